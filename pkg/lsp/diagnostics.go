package lsp

import (
	"context"
	"fmt"
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/Sumatoshi-tech/archgate/pkg/analyzers/complexity"
	"github.com/Sumatoshi-tech/archgate/pkg/analyzers/drift"
	"github.com/Sumatoshi-tech/archgate/pkg/analyzers/lag"
	"github.com/Sumatoshi-tech/archgate/pkg/audit"
	"github.com/Sumatoshi-tech/archgate/pkg/policy"
	"github.com/Sumatoshi-tech/archgate/pkg/pyparse"
	"github.com/Sumatoshi-tech/archgate/pkg/textutil"
)

// diagnosticSource labels every finding in the editor UI.
const diagnosticSource = "archgate"

// Diagnose audits one document body against pol and renders the findings as
// LSP diagnostics. Churn is never measured here, the editor loop cannot
// afford a git subprocess per keystroke, so the churn predicate stays
// unknown exactly like an untracked file.
func Diagnose(pol *policy.Policy, source []byte) []protocol.Diagnostic {
	diagnostics := make([]protocol.Diagnostic, 0, 8)

	driftRes := drift.Scan(source, pol.IllegalMatchers())
	for _, match := range driftRes.Matches {
		diagnostics = append(diagnostics, diagnostic(
			match.Line-1, match.Start, match.End,
			protocol.DiagnosticSeverityWarning,
			fmt.Sprintf("illegal pattern %q in an audited file", match.Pattern),
		))
	}

	lagRes := lag.Scan(source, pol.LegacyMatchers())
	for _, inst := range lagRes.Instances {
		diagnostics = append(diagnostics, diagnostic(
			inst.Line-1, inst.Start, inst.End,
			protocol.DiagnosticSeverityInformation,
			fmt.Sprintf("legacy API usage %q raises technical lag", inst.Pattern),
		))
	}

	metrics := audit.FileMetrics{
		ADF:          driftRes.Density,
		TechnicalLag: lagRes.Level,
	}

	tree, err := pyparse.Parse(context.Background(), source)
	if err != nil {
		metrics.Unparseable = true

		diagnostics = append(diagnostics, diagnostic(
			0, 0, 1,
			protocol.DiagnosticSeverityError,
			"unparseable Python source",
		))
	} else {
		fileCC := complexity.Analyze(tree)
		tree.Close()

		metrics.MaxCC = fileCC.MaxCC
		metrics.MeanCC = fileCC.MeanCC

		lines := textutil.SplitLines(source)

		for _, unit := range fileCC.Units {
			if unit.Complexity <= pol.MaxCC {
				continue
			}

			diagnostics = append(diagnostics, diagnostic(
				unit.StartLine-1, 0, lineLength(lines, unit.StartLine-1),
				protocol.DiagnosticSeverityWarning,
				fmt.Sprintf("cyclomatic complexity %d of %s exceeds max_cc %d",
					unit.Complexity, unit.Name, pol.MaxCC),
			))
		}
	}

	verdict := audit.EvaluateFile(metrics, pol)
	if verdict.Failed {
		diagnostics = append(diagnostics, diagnostic(
			0, 0, 1,
			protocol.DiagnosticSeverityError,
			"file fails the architectural audit: "+strings.Join(verdict.Reasons, "; "),
		))
	}

	return diagnostics
}

// unitAtLine parses the document and returns the innermost function unit
// covering the 1-based line.
func unitAtLine(source []byte, line int) (complexity.UnitComplexity, bool) {
	tree, err := pyparse.Parse(context.Background(), source)
	if err != nil {
		return complexity.UnitComplexity{}, false
	}

	defer tree.Close()

	var (
		best  complexity.UnitComplexity
		found bool
	)

	for _, unit := range complexity.Analyze(tree).Units {
		if line < unit.StartLine || line > unit.EndLine {
			continue
		}

		if !found || unit.EndLine-unit.StartLine < best.EndLine-best.StartLine {
			best = unit
			found = true
		}
	}

	return best, found
}

func diagnostic(line, start, end int, sev protocol.DiagnosticSeverity, message string) protocol.Diagnostic {
	src := diagnosticSource

	return protocol.Diagnostic{
		Range: protocol.Range{
			Start: protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(start)},
			End:   protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(end)},
		},
		Severity: &sev,
		Source:   &src,
		Message:  message,
	}
}

func lineLength(lines [][]byte, idx int) int {
	if idx < 0 || idx >= len(lines) {
		return 1
	}

	if length := len(lines[idx]); length > 0 {
		return length
	}

	return 1
}
