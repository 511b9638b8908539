// Package policy resolves the effective audit policy for a run: thresholds,
// illegal-pattern and legacy-API pattern sets, and scan exclusions. A Policy
// is built once per run and shared read-only across all workers.
package policy

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// Built-in defaults, applied for any key absent from the policy file.
const (
	DefaultMaxCC        = 20
	DefaultADFThreshold = 0.05
	DefaultCCRThreshold = 0.3
	DefaultProjectMaxCC = 10

	DefaultChurnWindowDays     = 14
	DefaultChurnTimeoutSeconds = 5
	DefaultChurnBaseline       = 10
)

// Default pattern sets. Illegal patterns flag presentation and I/O calls in
// business-logic files; legacy patterns flag the deprecated filesystem API.
var (
	DefaultIllegalPatterns   = []string{`import tkinter`, `from tkinter`, `print\(`}
	DefaultLegacyAPIPatterns = []string{`os\.path`}
	DefaultExcludedDirs      = []string{"__pycache__", ".venv", "venv", ".git"}
)

// Sentinel errors for policy validation.
var (
	// ErrInvalidMaxCC indicates max_cc is not positive.
	ErrInvalidMaxCC = errors.New("max_cc must be positive")
	// ErrInvalidADFThreshold indicates adf_threshold is negative.
	ErrInvalidADFThreshold = errors.New("adf_threshold must be non-negative")
	// ErrInvalidCCRThreshold indicates ccr_threshold is negative.
	ErrInvalidCCRThreshold = errors.New("ccr_threshold must be non-negative")
	// ErrInvalidProjectMaxCC indicates project_max_cc is not positive or exceeds max_cc.
	ErrInvalidProjectMaxCC = errors.New("project_max_cc must be positive and not exceed max_cc")
	// ErrInvalidChurnWindow indicates churn_window_days is not positive.
	ErrInvalidChurnWindow = errors.New("churn_window_days must be positive")
	// ErrInvalidChurnTimeout indicates churn_timeout_seconds is not positive.
	ErrInvalidChurnTimeout = errors.New("churn_timeout_seconds must be positive")
	// ErrInvalidChurnBaseline indicates churn_baseline is not positive.
	ErrInvalidChurnBaseline = errors.New("churn_baseline must be positive")
	// ErrInvalidWorkers indicates the workers value is negative.
	ErrInvalidWorkers = errors.New("workers must be non-negative")
)

// Policy is the effective configuration for one audit run. Field tags use
// mapstructure for viper unmarshalling. Validate compiles the pattern sets;
// the struct is immutable afterwards.
type Policy struct {
	MaxCC        int     `mapstructure:"max_cc"`
	ADFThreshold float64 `mapstructure:"adf_threshold"`
	CCRThreshold float64 `mapstructure:"ccr_threshold"`
	ProjectMaxCC int     `mapstructure:"project_max_cc"`

	IllegalPatterns   []string `mapstructure:"illegal_patterns"`
	LegacyAPIPatterns []string `mapstructure:"legacy_api_patterns"`
	ExcludedDirs      []string `mapstructure:"excluded_dirs"`

	ChurnWindowDays     int `mapstructure:"churn_window_days"`
	ChurnTimeoutSeconds int `mapstructure:"churn_timeout_seconds"`
	ChurnBaseline       int `mapstructure:"churn_baseline"`

	// Workers bounds the parallel file workers; 0 means one per CPU.
	Workers int `mapstructure:"workers"`

	// Source is the path of the policy file the values came from, empty when
	// built-in defaults applied. Set by the loader, not by the file itself.
	Source string `mapstructure:"-"`

	illegal  []*regexp.Regexp
	legacy   []*regexp.Regexp
	excluded map[string]struct{}
}

// Default returns the built-in policy, validated and ready for use.
func Default() *Policy {
	p := &Policy{
		MaxCC:               DefaultMaxCC,
		ADFThreshold:        DefaultADFThreshold,
		CCRThreshold:        DefaultCCRThreshold,
		ProjectMaxCC:        DefaultProjectMaxCC,
		IllegalPatterns:     append([]string(nil), DefaultIllegalPatterns...),
		LegacyAPIPatterns:   append([]string(nil), DefaultLegacyAPIPatterns...),
		ExcludedDirs:        append([]string(nil), DefaultExcludedDirs...),
		ChurnWindowDays:     DefaultChurnWindowDays,
		ChurnTimeoutSeconds: DefaultChurnTimeoutSeconds,
		ChurnBaseline:       DefaultChurnBaseline,
	}

	// Defaults are compile-clean by construction.
	if err := p.Validate(); err != nil {
		panic(fmt.Sprintf("default policy invalid: %v", err))
	}

	return p
}

// Validate checks thresholds and compiles every pattern. A pattern that fails
// to compile is a fatal policy error, surfaced before any file is scanned.
func (p *Policy) Validate() error {
	if err := p.validateThresholds(); err != nil {
		return err
	}

	illegal, err := compilePatterns("illegal", p.IllegalPatterns)
	if err != nil {
		return err
	}

	legacy, err := compilePatterns("legacy_api", p.LegacyAPIPatterns)
	if err != nil {
		return err
	}

	p.illegal = illegal
	p.legacy = legacy

	p.excluded = make(map[string]struct{}, len(p.ExcludedDirs))
	for _, dir := range p.ExcludedDirs {
		p.excluded[dir] = struct{}{}
	}

	return nil
}

func (p *Policy) validateThresholds() error {
	if p.MaxCC <= 0 {
		return ErrInvalidMaxCC
	}

	if p.ADFThreshold < 0 {
		return ErrInvalidADFThreshold
	}

	if p.CCRThreshold < 0 {
		return ErrInvalidCCRThreshold
	}

	if p.ProjectMaxCC <= 0 || p.ProjectMaxCC > p.MaxCC {
		return ErrInvalidProjectMaxCC
	}

	if p.ChurnWindowDays <= 0 {
		return ErrInvalidChurnWindow
	}

	if p.ChurnTimeoutSeconds <= 0 {
		return ErrInvalidChurnTimeout
	}

	if p.ChurnBaseline <= 0 {
		return ErrInvalidChurnBaseline
	}

	if p.Workers < 0 {
		return ErrInvalidWorkers
	}

	return nil
}

func compilePatterns(kind string, patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))

	for _, pattern := range patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("compile %s pattern %q: %w", kind, pattern, err)
		}

		compiled = append(compiled, re)
	}

	return compiled, nil
}

// IllegalMatchers returns the compiled illegal-pattern set.
func (p *Policy) IllegalMatchers() []*regexp.Regexp {
	return p.illegal
}

// LegacyMatchers returns the compiled legacy-API pattern set.
func (p *Policy) LegacyMatchers() []*regexp.Regexp {
	return p.legacy
}

// IsExcludedDir reports whether a directory name is excluded from the scan.
func (p *Policy) IsExcludedDir(name string) bool {
	_, ok := p.excluded[name]

	return ok
}

// ChurnWindow returns the churn observation window as a duration.
func (p *Policy) ChurnWindow() time.Duration {
	return time.Duration(p.ChurnWindowDays) * 24 * time.Hour
}

// ChurnTimeout returns the per-file history-log subprocess timeout.
func (p *Policy) ChurnTimeout() time.Duration {
	return time.Duration(p.ChurnTimeoutSeconds) * time.Second
}
