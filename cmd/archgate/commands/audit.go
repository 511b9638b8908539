// Package commands implements CLI command handlers for archgate.
package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/archgate/internal/observability"
	"github.com/Sumatoshi-tech/archgate/pkg/analyzers/churn"
	"github.com/Sumatoshi-tech/archgate/pkg/audit"
	"github.com/Sumatoshi-tech/archgate/pkg/policy"
	"github.com/Sumatoshi-tech/archgate/pkg/report"
)

// Process exit codes. The gate contract: 0 passes the build, 1 blocks it,
// 2 means the audit itself could not run.
const (
	ExitPassed = 0
	ExitFailed = 1
	ExitError  = 2
)

// ErrAuditFailed signals a completed run whose verdict is FAIL. The report has
// already been rendered when this is returned; main maps it to ExitFailed
// without printing anything further.
var ErrAuditFailed = errors.New("audit failed")

// AuditCommand holds configuration for the audit command.
type AuditCommand struct {
	configPath string
	format     string
	output     string
	plotDir    string
	workers    int
	noColor    bool
	quiet      bool
	verbose    bool
}

// NewAuditCommand creates the audit command.
func NewAuditCommand() *cobra.Command {
	ac := &AuditCommand{format: report.FormatTable}

	cmd := &cobra.Command{
		Use:   "audit [target]",
		Short: "Audit a Python file or project against the architectural policy",
		Long: `Audit a Python source file or project directory.

Four indicators feed the verdict: cyclomatic complexity, architectural drift
density, code churn ratio, and technical lag. Thresholds come from the nearest
.archgate.toml discovered above the target, or from built-in defaults.

Exit codes: 0 verdict passed, 1 verdict failed, 2 the audit could not run.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          ac.run,
	}

	cmd.Flags().StringVarP(&ac.configPath, "config", "c", "", "Explicit policy file (bypasses discovery)")
	cmd.Flags().StringVar(&ac.format, "format", report.FormatTable, "Output format: table, json, yaml")
	cmd.Flags().StringVarP(&ac.output, "output", "o", "", "Also write the JSON report to this file (.lz4 suffix compresses)")
	cmd.Flags().StringVar(&ac.plotDir, "plot", "", "Write an HTML metrics dashboard into this directory")
	cmd.Flags().IntVar(&ac.workers, "workers", 0, "Parallel file workers (0 = CPU count)")
	cmd.Flags().BoolVar(&ac.noColor, "no-color", false, "Disable colored verdicts")
	cmd.Flags().BoolVarP(&ac.quiet, "quiet", "q", false, "Suppress progress and info logging")
	cmd.Flags().BoolVarP(&ac.verbose, "verbose", "v", false, "Debug logging")

	return cmd
}

func (ac *AuditCommand) run(cmd *cobra.Command, args []string) error {
	target := "."
	if len(args) > 0 {
		target = args[0]
	}

	if ac.noColor {
		color.NoColor = true //nolint:reassign // process-wide flag is the color API.
	}

	ctx := cmd.Context()

	providers, err := initObservability(ctx, observability.ModeCLI, ac.verbose, ac.quiet, false)
	if err != nil {
		return err
	}

	defer shutdownProviders(providers)

	logger := providers.Logger

	pol, err := policy.Load(ac.configPath, target, logger)
	if err != nil {
		return err
	}

	if ac.workers > 0 {
		pol.Workers = ac.workers
	}

	engine := audit.NewEngine(pol, churn.NewExecHistoryLog(), logger)

	bar := ac.progressBar(cmd)
	if bar != nil {
		engine.SetProgress(bar)
	}

	start := time.Now()

	rep, err := engine.Run(ctx, target)

	if bar != nil {
		_ = bar.Finish()
		fmt.Fprintln(cmd.ErrOrStderr())
	}

	if err != nil {
		return err
	}

	ac.recordRun(cmd, providers, rep, time.Since(start))

	renderer := report.NewRenderer(pol)

	err = renderer.Render(rep, ac.format, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	if ac.output != "" {
		size, writeErr := report.WriteFile(rep, ac.output)
		if writeErr != nil {
			return writeErr
		}

		logger.Info("report written", "path", ac.output, "size", humanize.Bytes(uint64(size)))
	}

	if ac.plotDir != "" {
		plotPath, plotErr := renderer.WritePlots(rep, ac.plotDir)
		if plotErr != nil {
			return plotErr
		}

		logger.Info("dashboard written", "path", plotPath)
	}

	if rep.Failed() {
		return ErrAuditFailed
	}

	return nil
}

// progressBar returns a stderr spinner counting audited files, or nil when
// progress output is unwanted or would corrupt machine-readable output.
func (ac *AuditCommand) progressBar(cmd *cobra.Command) *progressbar.ProgressBar {
	if ac.quiet || ac.format != report.FormatTable {
		return nil
	}

	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("auditing"),
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionShowCount(),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
}

func (ac *AuditCommand) recordRun(cmd *cobra.Command, providers *observability.Providers, rep *audit.Report, duration time.Duration) {
	auditMetrics, err := observability.NewAuditMetrics(providers.Meter)
	if err != nil {
		providers.Logger.Warn("audit metrics unavailable", "error", err)

		return
	}

	failed := 0
	churnMisses := 0

	for _, file := range rep.Files {
		if file.Failed {
			failed++
		}

		if file.Metrics.CCR == nil {
			churnMisses++
		}
	}

	auditMetrics.RecordRun(cmd.Context(), len(rep.Files), failed, churnMisses, duration)
}
