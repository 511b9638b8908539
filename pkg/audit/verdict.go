package audit

import (
	"github.com/Sumatoshi-tech/archgate/pkg/analyzers/lag"
	"github.com/Sumatoshi-tech/archgate/pkg/policy"
)

// Verdict reason strings, stable across runs so CI logs diff cleanly.
const (
	ReasonMaxCC       = "max_cc exceeded"
	ReasonADF         = "adf exceeded"
	ReasonCCR         = "ccr exceeded"
	ReasonUnparseable = "unparseable"
	ReasonCCRUnknown  = "ccr unknown, history unavailable"

	ReasonProjectMaxCC = "project_max_cc reached"
	ReasonProjectADF   = "adf_threshold reached"
	ReasonProjectCCR   = "ccr exceeded"
	ReasonProjectLag   = "technical lag high"
)

// FileVerdict pairs the measurements of one file with its pass or fail
// outcome and the ordered reasons behind it.
type FileVerdict struct {
	Metrics FileMetrics
	Failed  bool
	Reasons []string
}

// ProjectVerdict is the aggregate outcome over every audited file. The
// project gate is stricter than the per-file gate: complexity and drift
// fail at the threshold instead of above it, and a single high-lag file
// fails the whole project.
type ProjectVerdict struct {
	TotalFiles int

	MaxCC  int
	MeanCC float64
	MaxADF float64

	// MaxCCR and MeanCCR fold only files with a known churn ratio; nil
	// when no file had one.
	MaxCCR  *float64
	MeanCCR *float64

	GlobalLag lag.Level

	// PollutedFiles lists every path with nonzero drift density, sorted.
	PollutedFiles []string

	// LagInstances lists every legacy-API occurrence as "path:line".
	LagInstances []string

	Failed  bool
	Reasons []string
}

// EvaluateFile applies the per-file gate. Every threshold is strict:
// a measurement equal to its limit still passes. An unparseable file
// fails on that ground alone. An unknown churn ratio never fails the
// file but is recorded so the degraded confidence is visible.
func EvaluateFile(metrics FileMetrics, pol *policy.Policy) FileVerdict {
	verdict := FileVerdict{Metrics: metrics}

	if metrics.Unparseable {
		verdict.Failed = true
		verdict.Reasons = append(verdict.Reasons, ReasonUnparseable)

		return verdict
	}

	if metrics.MaxCC > pol.MaxCC {
		verdict.Failed = true
		verdict.Reasons = append(verdict.Reasons, ReasonMaxCC)
	}

	if metrics.ADF > pol.ADFThreshold {
		verdict.Failed = true
		verdict.Reasons = append(verdict.Reasons, ReasonADF)
	}

	switch {
	case metrics.CCR == nil:
		verdict.Reasons = append(verdict.Reasons, ReasonCCRUnknown)
	case *metrics.CCR > pol.CCRThreshold:
		verdict.Failed = true
		verdict.Reasons = append(verdict.Reasons, ReasonCCR)
	}

	return verdict
}

// AggregateProject folds per-file metrics into the project verdict.
// Unparseable files count toward the total but contribute nothing to the
// complexity fold; their text-derived drift and lag measurements still
// aggregate. Files without a known churn ratio are left out of the churn
// fold entirely.
func AggregateProject(metrics []FileMetrics, pol *policy.Policy) ProjectVerdict {
	verdict := ProjectVerdict{
		TotalFiles: len(metrics),
		GlobalLag:  lag.Low,
	}

	var (
		ccSum    float64
		ccCount  int
		ccrSum   float64
		ccrCount int
	)

	for _, m := range metrics {
		if !m.Unparseable {
			if m.MaxCC > verdict.MaxCC {
				verdict.MaxCC = m.MaxCC
			}

			// The project mean folds per-file maxima, not per-file means:
			// the gate cares about each file's worst unit.
			ccSum += float64(m.MaxCC)
			ccCount++
		}

		if m.ADF > verdict.MaxADF {
			verdict.MaxADF = m.ADF
		}

		if m.ADF > 0 {
			verdict.PollutedFiles = append(verdict.PollutedFiles, m.Path)
		}

		if m.CCR != nil {
			if verdict.MaxCCR == nil || *m.CCR > *verdict.MaxCCR {
				ratio := *m.CCR
				verdict.MaxCCR = &ratio
			}

			ccrSum += *m.CCR
			ccrCount++
		}

		if m.TechnicalLag == lag.High {
			verdict.GlobalLag = lag.High
		}

		verdict.LagInstances = append(verdict.LagInstances, m.LagInstances...)
	}

	if ccCount > 0 {
		verdict.MeanCC = ccSum / float64(ccCount)
	}

	if ccrCount > 0 {
		mean := ccrSum / float64(ccrCount)
		verdict.MeanCCR = &mean
	}

	if verdict.MaxCC >= pol.ProjectMaxCC {
		verdict.Failed = true
		verdict.Reasons = append(verdict.Reasons, ReasonProjectMaxCC)
	}

	if verdict.MaxADF >= pol.ADFThreshold {
		verdict.Failed = true
		verdict.Reasons = append(verdict.Reasons, ReasonProjectADF)
	}

	if verdict.MaxCCR != nil && *verdict.MaxCCR > pol.CCRThreshold {
		verdict.Failed = true
		verdict.Reasons = append(verdict.Reasons, ReasonProjectCCR)
	}

	if verdict.GlobalLag == lag.High {
		verdict.Failed = true
		verdict.Reasons = append(verdict.Reasons, ReasonProjectLag)
	}

	return verdict
}
