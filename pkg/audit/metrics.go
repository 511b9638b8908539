// Package audit runs the architectural-quality pipeline: it collects
// candidate files, fans the four analyzers out over workers, folds the
// measurements into per-file and project verdicts, and assembles the final
// report. Verdict computation is pure; all effects live in the engine.
package audit

import (
	"time"

	"github.com/Sumatoshi-tech/archgate/pkg/analyzers/lag"
)

// FileMetrics is the immutable measurement set for one file. Re-running
// produces a new value, never an update.
type FileMetrics struct {
	Path string

	// MaxCC and MeanCC reduce the per-unit complexity scores. Zero when the
	// file has no function units or is unparseable.
	MaxCC  int
	MeanCC float64

	// ADF is the illegal-pattern line density over non-blank lines.
	ADF float64

	// CCR is the normalized churn ratio; nil means the history log could
	// not measure this file and the churn predicate must be skipped.
	CCR *float64

	TechnicalLag lag.Level
	LagInstances []string

	// Advisory scores; never part of verdict predicates.
	HalsteadEffort       float64
	HalsteadDifficulty   float64
	MaintainabilityIndex float64

	// Unparseable marks a file whose source could not be read or parsed.
	// Such a file is excluded from complexity aggregation and never
	// silently counts as a pass.
	Unparseable bool
}

// Report is the full output of one run. Files are ordered by path; Project
// is nil for single-file runs.
type Report struct {
	Target       string
	ConfigSource string
	GeneratedAt  time.Time
	Files        []FileVerdict
	Project      *ProjectVerdict
	ExitCode     int
}

// Failed reports the verdict the process exit code reflects: the project
// verdict in directory mode, the single file verdict otherwise.
func (r *Report) Failed() bool {
	if r.Project != nil {
		return r.Project.Failed
	}

	for _, fv := range r.Files {
		if fv.Failed {
			return true
		}
	}

	return false
}
