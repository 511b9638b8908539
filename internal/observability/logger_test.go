package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Sumatoshi-tech/archgate/internal/observability"
)

func TestTracingHandler_NoSpanNoTraceID(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := slog.New(observability.NewTracingHandler(slog.NewTextHandler(&buf, nil)))

	logger.InfoContext(context.Background(), "audit started")

	assert.Contains(t, buf.String(), "audit started")
	assert.NotContains(t, buf.String(), "trace_id")
}

func TestTracingHandler_InjectsSpanIdentifiers(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := slog.New(observability.NewTracingHandler(slog.NewTextHandler(&buf, nil)))

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(tracetest.NewInMemoryExporter())),
	)

	ctx, span := provider.Tracer("test").Start(context.Background(), "audit.run")
	defer span.End()

	logger.InfoContext(ctx, "file measured")

	out := buf.String()
	assert.Contains(t, out, "trace_id="+span.SpanContext().TraceID().String())
	assert.Contains(t, out, "span_id="+span.SpanContext().SpanID().String())
}

func TestTracingHandler_WithAttrsKeepsCorrelation(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	base := slog.New(observability.NewTracingHandler(slog.NewTextHandler(&buf, nil)))
	logger := base.With(slog.String("component", "engine"))

	logger.InfoContext(context.Background(), "hello")

	require.Contains(t, buf.String(), "component=engine")
}
