// Package main provides the entry point for the archgate CLI tool.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/archgate/cmd/archgate/commands"
	"github.com/Sumatoshi-tech/archgate/pkg/version"
)

func main() {
	version.InitBinaryVersion()

	rootCmd := &cobra.Command{
		Use:   "archgate",
		Short: "Archgate - architectural quality gate for Python codebases",
		Long: `Archgate audits Python codebases against an architectural policy.

Commands:
  audit     Audit a file or directory and render a verdict report
  mcp       Serve the audit engine over the Model Context Protocol
  lsp       Serve live diagnostics over the Language Server Protocol
  validate  Validate a report file against the report schema`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add commands.
	rootCmd.AddCommand(commands.NewAuditCommand())
	rootCmd.AddCommand(commands.NewMCPCommand())
	rootCmd.AddCommand(commands.NewLSPCommand())
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		// A failed verdict is not an operational error. The report has
		// already been rendered, so exit without extra noise.
		if errors.Is(err, commands.ErrAuditFailed) {
			os.Exit(commands.ExitFailed)
		}

		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(commands.ExitError)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "archgate %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
