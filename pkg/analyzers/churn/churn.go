// Package churn measures recent change frequency per file from the
// version-control history log. The log is an external text interface
// reached through a narrow seam, so correctness tests run against a fake
// instead of a real repository.
package churn

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable marks history that cannot be measured: git missing, the
// file untracked, the target outside a repository, or the log call timing
// out. Callers must treat the ratio as unknown, never as zero; defaulting
// to zero would silently mask an unmeasurable file as stable.
var ErrUnavailable = errors.New("history log unavailable")

// HistoryLog is the seam to the version-control log.
type HistoryLog interface {
	// RecentTouches counts log entries touching path within the window.
	// Returns an ErrUnavailable-wrapped error when the log cannot answer.
	RecentTouches(ctx context.Context, path string, window time.Duration) (int, error)
}

// Analyzer normalizes touch counts into the churn ratio.
type Analyzer struct {
	log      HistoryLog
	window   time.Duration
	baseline int
	timeout  time.Duration
}

// NewAnalyzer creates an Analyzer. The ratio formula is
// min(touches/baseline, 1.0) over the window: with the default baseline of
// 10 and a 14-day window, ten touched-file log entries saturate the ratio.
func NewAnalyzer(log HistoryLog, window time.Duration, baseline int, timeout time.Duration) *Analyzer {
	return &Analyzer{
		log:      log,
		window:   window,
		baseline: baseline,
		timeout:  timeout,
	}
}

// Measure returns the churn ratio for path in [0, 1]. An
// ErrUnavailable-wrapped error means the ratio is unknown for this file;
// the run continues and the verdict excludes the churn predicate.
func (a *Analyzer) Measure(ctx context.Context, path string) (float64, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	touches, err := a.log.RecentTouches(callCtx, path, a.window)
	if err != nil {
		return 0, err
	}

	ratio := float64(touches) / float64(a.baseline)
	if ratio > 1 {
		ratio = 1
	}

	return ratio, nil
}
