// Package report renders audit results: a terminal table or banner, a JSON
// document with an embedded schema, YAML, and optional HTML plots. The
// engine never persists anything itself; persistence is this package's
// caller's choice.
package report

import (
	"time"

	"github.com/Sumatoshi-tech/archgate/pkg/audit"
)

// Document is the serializable form of one audit run. Field names are the
// wire schema; the embedded JSON schema in report-schema.json mirrors them.
type Document struct {
	Target       string        `json:"target"                  yaml:"target"`
	ConfigSource string        `json:"config_source,omitempty" yaml:"config_source,omitempty"`
	GeneratedAt  time.Time     `json:"generated_at"            yaml:"generated_at"`
	Files        []FileEntry   `json:"files"                   yaml:"files"`
	Project      *ProjectEntry `json:"project"                 yaml:"project"`
	ExitCode     int           `json:"exit_code"               yaml:"exit_code"`
}

// FileEntry is one file's metrics and verdict on the wire. CCR is null
// when the history log could not measure the file.
type FileEntry struct {
	Path                 string   `json:"path"                    yaml:"path"`
	MaxCC                int      `json:"max_cc"                  yaml:"max_cc"`
	MeanCC               float64  `json:"mean_cc"                 yaml:"mean_cc"`
	ADF                  float64  `json:"adf"                     yaml:"adf"`
	CCR                  *float64 `json:"ccr"                     yaml:"ccr"`
	TechnicalLag         string   `json:"technical_lag"           yaml:"technical_lag"`
	Failed               bool     `json:"failed"                  yaml:"failed"`
	Reasons              []string `json:"reasons"                 yaml:"reasons"`
	HalsteadEffort       float64  `json:"halstead_effort"         yaml:"halstead_effort"`
	HalsteadDifficulty   float64  `json:"halstead_difficulty"     yaml:"halstead_difficulty"`
	MaintainabilityIndex float64  `json:"maintainability_index"   yaml:"maintainability_index"`
	LagInstances         []string `json:"lag_instances,omitempty" yaml:"lag_instances,omitempty"`
	Unparseable          bool     `json:"unparseable,omitempty"   yaml:"unparseable,omitempty"`
}

// ProjectEntry is the directory-mode aggregate on the wire.
type ProjectEntry struct {
	TotalFiles    int      `json:"total_files"              yaml:"total_files"`
	MaxCC         int      `json:"max_cc"                   yaml:"max_cc"`
	MeanCC        float64  `json:"mean_cc"                  yaml:"mean_cc"`
	MaxADF        float64  `json:"max_adf"                  yaml:"max_adf"`
	MeanCCR       *float64 `json:"mean_ccr"                 yaml:"mean_ccr"`
	MaxCCR        *float64 `json:"max_ccr"                  yaml:"max_ccr"`
	GlobalLag     string   `json:"global_technical_lag"     yaml:"global_technical_lag"`
	PollutedFiles []string `json:"polluted_files,omitempty" yaml:"polluted_files,omitempty"`
	LagInstances  []string `json:"lag_instances,omitempty"  yaml:"lag_instances,omitempty"`
	Failed        bool     `json:"failed"                   yaml:"failed"`
	Reasons       []string `json:"reasons"                  yaml:"reasons"`
}

// BuildDocument converts an engine report into its wire form.
func BuildDocument(rep *audit.Report) *Document {
	doc := &Document{
		Target:       rep.Target,
		ConfigSource: rep.ConfigSource,
		GeneratedAt:  rep.GeneratedAt,
		Files:        make([]FileEntry, 0, len(rep.Files)),
		ExitCode:     rep.ExitCode,
	}

	for _, fv := range rep.Files {
		doc.Files = append(doc.Files, FileEntry{
			Path:                 fv.Metrics.Path,
			MaxCC:                fv.Metrics.MaxCC,
			MeanCC:               fv.Metrics.MeanCC,
			ADF:                  fv.Metrics.ADF,
			CCR:                  fv.Metrics.CCR,
			TechnicalLag:         string(fv.Metrics.TechnicalLag),
			Failed:               fv.Failed,
			Reasons:              nonNilReasons(fv.Reasons),
			HalsteadEffort:       fv.Metrics.HalsteadEffort,
			HalsteadDifficulty:   fv.Metrics.HalsteadDifficulty,
			MaintainabilityIndex: fv.Metrics.MaintainabilityIndex,
			LagInstances:         fv.Metrics.LagInstances,
			Unparseable:          fv.Metrics.Unparseable,
		})
	}

	if rep.Project != nil {
		doc.Project = &ProjectEntry{
			TotalFiles:    rep.Project.TotalFiles,
			MaxCC:         rep.Project.MaxCC,
			MeanCC:        rep.Project.MeanCC,
			MaxADF:        rep.Project.MaxADF,
			MeanCCR:       rep.Project.MeanCCR,
			MaxCCR:        rep.Project.MaxCCR,
			GlobalLag:     string(rep.Project.GlobalLag),
			PollutedFiles: rep.Project.PollutedFiles,
			LagInstances:  rep.Project.LagInstances,
			Failed:        rep.Project.Failed,
			Reasons:       nonNilReasons(rep.Project.Reasons),
		}
	}

	return doc
}

// nonNilReasons keeps the wire type an array. The schema rejects null, and
// passing verdicts carry no reasons.
func nonNilReasons(reasons []string) []string {
	if reasons == nil {
		return []string{}
	}

	return reasons
}
