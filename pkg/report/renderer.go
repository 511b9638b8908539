package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/archgate/pkg/audit"
	"github.com/Sumatoshi-tech/archgate/pkg/policy"
)

// Output formats accepted by Render.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// ErrUnsupportedFormat is returned for a format Render does not know.
var ErrUnsupportedFormat = errors.New("unsupported output format")

// Verdict labels. The per-file and project gates share the same two
// outcomes.
const (
	verdictPass = "PASS"
	verdictFail = "FAIL"

	ccrUnknown = "n/a"

	bannerWidth = 50
	rulerWidth  = 70
)

// Renderer writes audit reports. The policy supplies the limit values
// shown next to each measurement.
type Renderer struct {
	policy *policy.Policy
}

// NewRenderer creates a Renderer over pol.
func NewRenderer(pol *policy.Policy) *Renderer {
	return &Renderer{policy: pol}
}

// Render writes rep to w in the requested format.
func (r *Renderer) Render(rep *audit.Report, format string, w io.Writer) error {
	switch format {
	case FormatTable:
		return r.renderTable(rep, w)
	case FormatJSON:
		return writeJSON(rep, w)
	case FormatYAML:
		return writeYAML(rep, w)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

func writeJSON(rep *audit.Report, w io.Writer) error {
	payload, err := json.MarshalIndent(BuildDocument(rep), "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}

	payload = append(payload, '\n')

	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("json write: %w", err)
	}

	return nil
}

func writeYAML(rep *audit.Report, w io.Writer) error {
	payload, err := yaml.Marshal(BuildDocument(rep))
	if err != nil {
		return fmt.Errorf("yaml marshal: %w", err)
	}

	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("yaml write: %w", err)
	}

	return nil
}

func (r *Renderer) renderTable(rep *audit.Report, w io.Writer) error {
	if rep.Project != nil {
		return r.renderProject(rep, w)
	}

	return r.renderBanner(rep, w)
}

// renderBanner writes the single-file report: a header block, core and
// consensus metric sections, and the finding line.
func (r *Renderer) renderBanner(rep *audit.Report, w io.Writer) error {
	fv := rep.Files[0]
	m := fv.Metrics
	rule := strings.Repeat("=", bannerWidth)
	thin := strings.Repeat("-", bannerWidth)

	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "        ARCHGATE ARCHITECTURAL AUDIT")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Target: %s\n", m.Path)
	fmt.Fprintf(w, "Verdict: [%s]\n", verdictLabel(fv.Failed))

	if len(fv.Reasons) > 0 {
		fmt.Fprintf(w, "Reasons: %s\n", strings.Join(fv.Reasons, "; "))
	}

	fmt.Fprintln(w, thin)
	fmt.Fprintln(w, "[Core Metrics]")
	fmt.Fprintf(w, "  Max Cyclomatic Complexity : %d (Limit: %d)\n", m.MaxCC, r.policy.MaxCC)
	fmt.Fprintf(w, "  Maintainability Index     : %.2f (Limit: 20+)\n", m.MaintainabilityIndex)
	fmt.Fprintf(w, "  Halstead Effort           : %.2f\n", m.HalsteadEffort)
	fmt.Fprintln(w, thin)
	fmt.Fprintln(w, "[Consensus Audit]")
	fmt.Fprintf(w, "  Code Churn Rate (CCR)     : %s (Limit: %.0f%%)\n", formatCCRPercent(m.CCR), r.policy.CCRThreshold*100)
	fmt.Fprintf(w, "  Architecture Drift (ADF)  : %.4f (Limit: %v)\n", m.ADF, r.policy.ADFThreshold)
	fmt.Fprintf(w, "  Technical Lag (TL)        : %s\n", m.TechnicalLag)

	for _, inst := range m.LagInstances {
		fmt.Fprintf(w, "    -> %s\n", inst)
	}

	fmt.Fprintln(w, thin)

	if fv.Failed {
		fmt.Fprintln(w, "FINDING : Architectural integrity compromised.")
		fmt.Fprintln(w, "ACTION  : REJECT DELIVERY / MANDATORY REFACTORING.")
	} else {
		fmt.Fprintln(w, "FINDING : Architecture is healthy and scalable.")
	}

	fmt.Fprintln(w, rule)

	return nil
}

// renderProject writes the per-file table followed by the aggregate
// summary block and the colored project verdict.
func (r *Renderer) renderProject(rep *audit.Report, w io.Writer) error {
	project := rep.Project
	rule := strings.Repeat("=", rulerWidth)

	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "        ARCHGATE PROJECT AUDIT")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "  Files scanned: %s\n", humanize.Comma(int64(project.TotalFiles)))

	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Options.SeparateColumns = true
	tbl.Style().Options.SeparateRows = false
	tbl.AppendHeader(table.Row{"File", "CC", "ADF", "CCR", "TL", "Verdict"})

	for _, fv := range rep.Files {
		m := fv.Metrics
		tbl.AppendRow(table.Row{
			m.Path,
			m.MaxCC,
			fmt.Sprintf("%.4f", m.ADF),
			formatCCRPercent(m.CCR),
			string(m.TechnicalLag),
			verdictLabel(fv.Failed),
		})
	}

	tbl.Render()

	fmt.Fprintln(w, strings.Repeat("-", rulerWidth))
	fmt.Fprintln(w, "[Project Summary]")
	fmt.Fprintf(w, "  Max CC (across all files) : %d\n", project.MaxCC)
	fmt.Fprintf(w, "  Mean CC                   : %.1f\n", project.MeanCC)
	fmt.Fprintf(w, "  Max ADF                   : %.4f\n", project.MaxADF)

	if len(project.PollutedFiles) > 0 {
		fmt.Fprintf(w, "  Polluted files (%d):\n", len(project.PollutedFiles))

		for _, path := range project.PollutedFiles {
			fmt.Fprintf(w, "    -> %s\n", path)
		}
	}

	fmt.Fprintf(w, "  Mean CCR                  : %s\n", formatCCRPercent(project.MeanCCR))
	fmt.Fprintf(w, "  Max CCR                   : %s\n", formatCCRPercent(project.MaxCCR))
	fmt.Fprintf(w, "  Global TL                 : %s\n", project.GlobalLag)

	for _, inst := range project.LagInstances {
		fmt.Fprintf(w, "    -> %s\n", inst)
	}

	fmt.Fprintln(w, strings.Repeat("-", rulerWidth))
	fmt.Fprintf(w, "  Project Verdict: [%s]\n", verdictLabel(project.Failed))

	if project.Failed {
		fmt.Fprintf(w, "  Reasons: %s\n", strings.Join(project.Reasons, "; "))
		fmt.Fprintf(w, "  Passing requires: max_cc < %d, max_adf < %v, global_tl == LOW, max_ccr <= %.0f%%\n",
			r.policy.ProjectMaxCC, r.policy.ADFThreshold, r.policy.CCRThreshold*100)
	}

	fmt.Fprintln(w, rule)

	return nil
}

// verdictLabel renders PASS in green and FAIL in red. fatih/color honors
// NO_COLOR and non-terminal writers on its own.
func verdictLabel(failed bool) string {
	if failed {
		return color.New(color.FgRed).Sprint(verdictFail)
	}

	return color.New(color.FgGreen).Sprint(verdictPass)
}

// formatCCRPercent renders a churn ratio as a percentage, or a marker when
// the ratio is unknown.
func formatCCRPercent(ccr *float64) string {
	if ccr == nil {
		return ccrUnknown
	}

	return fmt.Sprintf("%.2f%%", *ccr*100)
}
