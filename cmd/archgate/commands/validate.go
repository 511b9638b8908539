package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/archgate/pkg/report"
)

// ErrInvalidReport signals a report that failed schema validation.
var ErrInvalidReport = errors.New("report failed schema validation")

// NewValidateCommand creates the report validation command.
func NewValidateCommand() *cobra.Command {
	var nocolor bool

	cmd := &cobra.Command{
		Use:   "validate <report.json|->",
		Short: "Validate a report file against the embedded report schema",
		Long: `Validate an audit report against the canonical report schema.

Compressed reports written with a .lz4 suffix are transparently decoded.

Examples:
  archgate validate report.json
  archgate validate report.json.lz4
  archgate validate - < report.json
`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			return runValidate(cobraCmd, args[0], nocolor)
		},
	}

	cmd.Flags().BoolVar(&nocolor, "no-color", false, "disable colored output")

	return cmd
}

func runValidate(cmd *cobra.Command, inputPath string, nocolor bool) error {
	if nocolor {
		color.NoColor = true //nolint:reassign // intentional override of library global
	}

	data, label, err := loadReport(cmd, inputPath)
	if err != nil {
		return err
	}

	validationErrors, err := report.ValidateDocument(data)
	if err != nil {
		return fmt.Errorf("validate %s: %w", label, err)
	}

	out := cmd.OutOrStdout()

	if len(validationErrors) == 0 {
		color.New(color.FgGreen).Fprintf(out, "%s is a valid archgate report\n", label)

		return nil
	}

	color.New(color.FgRed).Fprintf(out, "%s is not a valid archgate report\n", label)
	fmt.Fprintf(out, "\nErrors:\n")

	for _, verr := range validationErrors {
		color.New(color.FgRed).Fprintf(out, "  - %s: %s\n", verr.Field(), verr.Description())
	}

	return fmt.Errorf("%w: %s", ErrInvalidReport, label)
}

func loadReport(cmd *cobra.Command, inputPath string) ([]byte, string, error) {
	if inputPath == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, "", fmt.Errorf("read stdin: %w", err)
		}

		return data, "stdin", nil
	}

	data, err := report.ReadFile(inputPath)
	if err != nil {
		return nil, "", err
	}

	return data, inputPath, nil
}
