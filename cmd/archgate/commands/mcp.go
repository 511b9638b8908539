package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/archgate/internal/observability"
	"github.com/Sumatoshi-tech/archgate/pkg/mcp"
)

// NewMCPCommand creates the MCP server command.
func NewMCPCommand() *cobra.Command {
	var (
		debug           bool
		diagnosticsAddr string
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The MCP server exposes the audit as tools that AI agents can discover and
invoke:
  - audit_path:   audit a Python file or project directory, full JSON report
  - audit_source: audit an inline Python snippet against the built-in policy
  - policy_show:  resolve the effective policy for a path`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			ctx := cobraCmd.Context()

			providers, err := initObservability(ctx, observability.ModeMCP, debug, false, true)
			if err != nil {
				return err
			}

			defer shutdownProviders(providers)

			red, redErr := observability.NewREDMetrics(providers.Meter)
			if redErr != nil {
				return redErr
			}

			auditMetrics, auditErr := observability.NewAuditMetrics(providers.Meter)
			if auditErr != nil {
				return auditErr
			}

			if diagnosticsAddr != "" {
				diag, diagErr := observability.NewDiagnosticsServer(ctx, diagnosticsAddr, providers.Logger)
				if diagErr != nil {
					return diagErr
				}

				defer func() {
					_ = diag.Close(context.Background())
				}()

				providers.Logger.Info("diagnostics listening", "addr", diag.Addr())
			}

			deps := mcp.ServerDeps{
				Logger:       providers.Logger,
				Metrics:      red,
				AuditMetrics: auditMetrics,
				Tracer:       providers.Tracer,
			}

			return mcp.NewServer(deps).Run(ctx)
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging to stderr")
	cmd.Flags().StringVar(&diagnosticsAddr, "diagnostics", "",
		"Serve /healthz, /readyz, /metrics on this address (empty = disabled)")

	return cmd
}
