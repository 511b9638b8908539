package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/archgate/internal/observability"
	"github.com/Sumatoshi-tech/archgate/pkg/lsp"
)

// NewLSPCommand creates the LSP server command.
func NewLSPCommand() *cobra.Command {
	var (
		debug           bool
		diagnosticsAddr string
	)

	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Start LSP server publishing audit findings as editor diagnostics",
		Long: `Start a Language Server Protocol server on stdio.

Open Python documents are re-audited on every change and save; illegal
patterns, legacy API usage, complexity breaches, and failing verdicts appear
as diagnostics in the editor.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			ctx := cobraCmd.Context()

			providers, err := initObservability(ctx, observability.ModeLSP, debug, false, true)
			if err != nil {
				return err
			}

			defer shutdownProviders(providers)

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

			lsp.NewServer(providers.Logger).Run()

			return nil
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging to stderr")
	cmd.Flags().StringVar(&diagnosticsAddr, "diagnostics", "",
		"Serve /healthz, /readyz, /metrics on this address (empty = disabled)")

	return cmd
}
