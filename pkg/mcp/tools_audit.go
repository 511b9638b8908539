package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/archgate/pkg/analyzers/churn"
	"github.com/Sumatoshi-tech/archgate/pkg/audit"
	"github.com/Sumatoshi-tech/archgate/pkg/policy"
	"github.com/Sumatoshi-tech/archgate/pkg/report"
)

// defaultSourceName labels inline snippets in reports when the caller does not
// provide one.
const defaultSourceName = "inline.py"

// tmpSourceMode keeps inline source private to the server process.
const tmpSourceMode = 0o600

// handleAuditPath processes audit_path tool calls.
func (s *Server) handleAuditPath(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input AuditPathInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if err := validateTarget(input.Target); err != nil {
		return errorResult(err)
	}

	pol, err := policy.Load(input.Config, input.Target, s.logger)
	if err != nil {
		return errorResult(fmt.Errorf("load policy: %w", err))
	}

	start := time.Now()

	engine := audit.NewEngine(pol, churn.NewExecHistoryLog(), s.logger)

	rep, err := engine.Run(ctx, input.Target)
	if err != nil {
		return errorResult(err)
	}

	s.recordRun(ctx, rep, time.Since(start))

	return jsonResult(report.BuildDocument(rep))
}

// handleAuditSource processes audit_source tool calls. The snippet is spilled
// to a private temp file so the whole engine path runs unchanged; the temp
// location never leaks into the response.
func (s *Server) handleAuditSource(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input AuditSourceInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if err := validateSource(input.Source); err != nil {
		return errorResult(err)
	}

	name := input.Filename
	if name == "" {
		name = defaultSourceName
	}

	dir, err := os.MkdirTemp("", "archgate-mcp-")
	if err != nil {
		return errorResult(fmt.Errorf("stage inline source: %w", err))
	}

	defer func() {
		_ = os.RemoveAll(dir)
	}()

	staged := filepath.Join(dir, "source.py")
	if err := os.WriteFile(staged, []byte(input.Source), tmpSourceMode); err != nil {
		return errorResult(fmt.Errorf("stage inline source: %w", err))
	}

	start := time.Now()

	engine := audit.NewEngine(policy.Default(), churn.NewExecHistoryLog(), s.logger)

	rep, err := engine.Run(ctx, staged)
	if err != nil {
		return errorResult(err)
	}

	s.recordRun(ctx, rep, time.Since(start))

	doc := report.BuildDocument(rep)
	doc.Target = name

	for i := range doc.Files {
		doc.Files[i].Path = name
	}

	return jsonResult(doc)
}

func (s *Server) recordRun(ctx context.Context, rep *audit.Report, duration time.Duration) {
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

	s.auditMetrics.RecordRun(ctx, len(rep.Files), failed, churnMisses, duration)
}
