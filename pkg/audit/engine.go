package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/archgate/pkg/analyzers/churn"
	"github.com/Sumatoshi-tech/archgate/pkg/analyzers/complexity"
	"github.com/Sumatoshi-tech/archgate/pkg/analyzers/drift"
	"github.com/Sumatoshi-tech/archgate/pkg/analyzers/halstead"
	"github.com/Sumatoshi-tech/archgate/pkg/analyzers/lag"
	"github.com/Sumatoshi-tech/archgate/pkg/analyzers/maintidx"
	"github.com/Sumatoshi-tech/archgate/pkg/policy"
	"github.com/Sumatoshi-tech/archgate/pkg/pyparse"
	"github.com/Sumatoshi-tech/archgate/pkg/textutil"
)

// Run-level errors. Both abort before any verdict is produced.
var (
	ErrNoFiles   = errors.New("no auditable python files found")
	ErrNotPython = errors.New("target is not a python source file")
)

// Progress receives one tick per completed file during the parallel scan.
// *progressbar.ProgressBar satisfies it.
type Progress interface {
	Add(num int) error
}

// Engine wires one policy and one history log into a reusable audit
// pipeline. It is safe for a single Run at a time.
type Engine struct {
	policy   *policy.Policy
	churn    *churn.Analyzer
	logger   *slog.Logger
	workers  int
	progress Progress
}

// NewEngine creates an Engine over pol. The history log feeds the churn
// analyzer; pass an ExecHistoryLog for real git repositories. A Workers
// value of zero in the policy means one worker per CPU.
func NewEngine(pol *policy.Policy, history churn.HistoryLog, logger *slog.Logger) *Engine {
	workers := pol.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	return &Engine{
		policy:  pol,
		churn:   churn.NewAnalyzer(history, pol.ChurnWindow(), pol.ChurnBaseline, pol.ChurnTimeout()),
		logger:  logger,
		workers: workers,
	}
}

// SetProgress attaches a progress sink for the parallel phase.
func (e *Engine) SetProgress(progress Progress) {
	e.progress = progress
}

// Run audits target, which may be a single Python file or a directory
// tree. The returned report carries the exit code the process should end
// with. Cancelling ctx abandons in-flight work and returns an error
// instead of a partial report.
func (e *Engine) Run(ctx context.Context, target string) (*Report, error) {
	info, err := os.Stat(target)
	if err != nil {
		return nil, fmt.Errorf("stat target: %w", err)
	}

	if info.IsDir() {
		return e.runProject(ctx, target)
	}

	return e.runFile(ctx, target)
}

func (e *Engine) runFile(ctx context.Context, target string) (*Report, error) {
	if filepath.Ext(target) != pythonExt && !sniffsAsPython(target) {
		return nil, fmt.Errorf("%w: %s", ErrNotPython, target)
	}

	metrics := e.auditFile(ctx, target)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("audit interrupted: %w", err)
	}

	verdict := EvaluateFile(metrics, e.policy)

	report := &Report{
		Target:       target,
		ConfigSource: e.policy.Source,
		GeneratedAt:  time.Now().UTC(),
		Files:        []FileVerdict{verdict},
	}
	if verdict.Failed {
		report.ExitCode = 1
	}

	return report, nil
}

func (e *Engine) runProject(ctx context.Context, target string) (*Report, error) {
	files, err := CollectFiles(target, e.policy)
	if err != nil {
		return nil, err
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoFiles, target)
	}

	// Workers write into their own slot, so the result order matches the
	// sorted collection order without coordination.
	metrics := make([]FileMetrics, len(files))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(e.workers)

	for i, path := range files {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}

			metrics[i] = e.auditFile(groupCtx, path)

			if e.progress != nil {
				_ = e.progress.Add(1)
			}

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("audit interrupted: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("audit interrupted: %w", err)
	}

	verdicts := make([]FileVerdict, len(metrics))
	for i, fileMetrics := range metrics {
		verdicts[i] = EvaluateFile(fileMetrics, e.policy)
	}

	project := AggregateProject(metrics, e.policy)

	report := &Report{
		Target:       target,
		ConfigSource: e.policy.Source,
		GeneratedAt:  time.Now().UTC(),
		Files:        verdicts,
		Project:      &project,
	}
	if project.Failed {
		report.ExitCode = 1
	}

	return report, nil
}

// auditFile measures one file. It never returns an error: an unreadable or
// unparseable source yields marked metrics that fail at the verdict stage,
// so a broken file can never slip through as a silent pass.
func (e *Engine) auditFile(ctx context.Context, path string) FileMetrics {
	metrics := FileMetrics{Path: path, TechnicalLag: lag.Low}

	source, err := os.ReadFile(path)
	if err != nil {
		e.logger.Warn("unreadable source file", "path", path, "err", err)

		metrics.Unparseable = true

		return metrics
	}

	if textutil.IsBinary(source) {
		e.logger.Warn("binary content where python source was expected", "path", path)

		metrics.Unparseable = true

		return metrics
	}

	driftResult := drift.Scan(source, e.policy.IllegalMatchers())
	metrics.ADF = driftResult.Density

	lagResult := lag.Scan(source, e.policy.LegacyMatchers())
	metrics.TechnicalLag = lagResult.Level
	metrics.LagInstances = lagResult.Evidence(path)

	tree, parseErr := pyparse.Parse(ctx, source)
	if parseErr != nil {
		e.logger.Warn("unparseable source file", "path", path, "err", parseErr)

		metrics.Unparseable = true
	} else {
		fileCC := complexity.Analyze(tree)
		metrics.MaxCC = fileCC.MaxCC
		metrics.MeanCC = fileCC.MeanCC

		halsteadMetrics := halstead.Analyze(tree)
		metrics.HalsteadEffort = halsteadMetrics.Effort
		metrics.HalsteadDifficulty = halsteadMetrics.Difficulty

		metrics.MaintainabilityIndex = maintidx.Score(
			halsteadMetrics.Volume,
			fileCC.TotalCC,
			textutil.CountNonBlank(textutil.SplitLines(source)),
			maintidx.CommentPercent(source),
		)

		tree.Close()
	}

	ratio, churnErr := e.churn.Measure(ctx, path)
	if churnErr != nil {
		e.logger.Debug("churn ratio unavailable", "path", path, "err", churnErr)
	} else {
		metrics.CCR = &ratio
	}

	return metrics
}
