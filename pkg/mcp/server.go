// Package mcp implements a Model Context Protocol server exposing the archgate
// audit as MCP tools over stdio transport, so coding agents can gate their own
// edits before committing them.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/archgate/internal/observability"
	"github.com/Sumatoshi-tech/archgate/pkg/version"
)

// serverName is the MCP server implementation name.
const serverName = "archgate"

// toolCount is the expected number of registered tools.
const toolCount = 3

// ServerDeps holds injectable dependencies for the MCP server.
// Zero-value fields use production defaults.
type ServerDeps struct {
	// Logger is an optional structured logger. Nil uses slog default.
	Logger *slog.Logger

	// Metrics is an optional RED metrics recorder. Nil disables per-tool metrics.
	Metrics *observability.REDMetrics

	// AuditMetrics optionally counts engine outcomes per run. Nil disables.
	AuditMetrics *observability.AuditMetrics

	// Tracer is an optional OTel tracer for per-tool-call spans. Nil disables tracing.
	Tracer trace.Tracer
}

// Server wraps the MCP SDK server with the archgate tool registrations.
type Server struct {
	inner        *mcpsdk.Server
	mu           sync.RWMutex
	tools        []string
	logger       *slog.Logger
	metrics      *observability.REDMetrics
	auditMetrics *observability.AuditMetrics
	tracer       trace.Tracer
}

// NewServer creates a new MCP server with all archgate tools registered.
func NewServer(deps ServerDeps) *Server {
	opts := &mcpsdk.ServerOptions{}
	if deps.Logger != nil {
		opts.Logger = deps.Logger
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	inner := mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    serverName,
			Version: version.Version,
		},
		opts,
	)

	srv := &Server{
		inner:        inner,
		tools:        make([]string, 0, toolCount),
		logger:       logger,
		metrics:      deps.Metrics,
		auditMetrics: deps.AuditMetrics,
		tracer:       deps.Tracer,
	}

	srv.registerTools()

	return srv
}

// ListToolNames returns the sorted names of all registered tools.
func (s *Server) ListToolNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, len(s.tools))
	copy(names, s.tools)
	sort.Strings(names)

	return names
}

// Run starts the MCP server on stdio transport. It blocks until the context
// is canceled or the connection closes.
func (s *Server) Run(ctx context.Context) error {
	err := s.inner.Run(ctx, &mcpsdk.StdioTransport{})
	if err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}

	return nil
}

// RunWithTransport starts the MCP server on the given transport. It blocks
// until the context is canceled or the connection closes.
func (s *Server) RunWithTransport(ctx context.Context, transport mcpsdk.Transport) error {
	err := s.inner.Run(ctx, transport)
	if err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}

	return nil
}

// registerTools adds all archgate MCP tools to the server.
func (s *Server) registerTools() {
	s.registerAuditPathTool()
	s.registerAuditSourceTool()
	s.registerPolicyShowTool()
}

func (s *Server) registerAuditPathTool() {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameAuditPath,
		Description: auditPathToolDescription,
	}, withMetrics(s.metrics, ToolNameAuditPath, withTracing(s.tracer, ToolNameAuditPath, s.handleAuditPath)))

	s.trackTool(ToolNameAuditPath)
}

func (s *Server) registerAuditSourceTool() {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameAuditSource,
		Description: auditSourceToolDescription,
	}, withMetrics(s.metrics, ToolNameAuditSource, withTracing(s.tracer, ToolNameAuditSource, s.handleAuditSource)))

	s.trackTool(ToolNameAuditSource)
}

func (s *Server) registerPolicyShowTool() {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNamePolicyShow,
		Description: policyShowToolDescription,
	}, withMetrics(s.metrics, ToolNamePolicyShow, withTracing(s.tracer, ToolNamePolicyShow, s.handlePolicyShow)))

	s.trackTool(ToolNamePolicyShow)
}

// mcpSpanPrefix is the prefix for MCP tool span names.
const mcpSpanPrefix = "mcp."

// traceIDMetaKey is the metadata key for trace_id in MCP tool responses.
const traceIDMetaKey = "trace_id"

// withTracing wraps an MCP tool handler to create an OTel span per invocation
// and include trace_id in the response content when sampled.
func withTracing[Input any](
	tracer trace.Tracer,
	toolName string,
	handler func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error),
) func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if tracer == nil {
		return handler
	}

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		ctx, span := tracer.Start(ctx, mcpSpanPrefix+toolName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attribute.String("mcp.tool", toolName)),
		)
		defer span.End()

		result, output, err := handler(ctx, req, input)

		// Include trace_id in response when span is sampled.
		sc := span.SpanContext()
		if sc.IsSampled() && result != nil {
			traceContent := &mcpsdk.TextContent{Text: fmt.Sprintf("%s=%s", traceIDMetaKey, sc.TraceID().String())}
			result.Content = append(result.Content, traceContent)
		}

		return result, output, err
	}
}

// withMetrics wraps an MCP tool handler to record RED metrics per invocation.
func withMetrics[Input any](
	metrics *observability.REDMetrics,
	toolName string,
	handler func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error),
) func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if metrics == nil {
		return handler
	}

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		start := time.Now()

		decInflight := metrics.TrackInflight(ctx)
		defer decInflight()

		result, output, err := handler(ctx, req, input)

		status := "ok"
		if err != nil || (result != nil && result.IsError) {
			status = "error"
		}

		metrics.RecordRequest(ctx, mcpSpanPrefix+toolName, status, time.Since(start))

		return result, output, err
	}
}

func (s *Server) trackTool(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tools = append(s.tools, name)
}

// Tool description constants.
const (
	auditPathToolDescription = "Audit a Python file or project directory against the " +
		"architectural policy (cyclomatic complexity, drift density, churn ratio, " +
		"technical lag). Returns the full JSON report with per-file and project verdicts."

	auditSourceToolDescription = "Audit a raw Python source snippet against the built-in " +
		"policy without touching the filesystem of the caller. Churn is reported as " +
		"unknown since inline source has no history."

	policyShowToolDescription = "Resolve and return the effective audit policy for a path: " +
		"thresholds, pattern sets, and the config file they came from."
)
