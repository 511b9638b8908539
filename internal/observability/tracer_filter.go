package observability

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/embedded"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
)

// suppressedTracers names instrumentation scopes whose spans are dropped
// unless TraceVerbose is set. The diagnostics endpoints emit a span per probe
// and would drown the audit spans in any export.
var suppressedTracers = map[string]struct{}{
	"archgate.diagnostics": {},
}

// suppressedSpans drops individual span names from scopes that otherwise
// export.
var suppressedSpans = map[string]struct{}{
	"GET /healthz": {},
	"GET /readyz":  {},
}

type filteringTracerProvider struct {
	embedded.TracerProvider

	inner trace.TracerProvider
	noop  trace.TracerProvider
}

// NewFilteringTracerProvider wraps inner so suppressed scopes and span names
// produce no-op spans instead of exported ones.
func NewFilteringTracerProvider(inner trace.TracerProvider) trace.TracerProvider {
	return &filteringTracerProvider{
		inner: inner,
		noop:  nooptrace.NewTracerProvider(),
	}
}

func (p *filteringTracerProvider) Tracer(name string, opts ...trace.TracerOption) trace.Tracer {
	if _, drop := suppressedTracers[name]; drop {
		return p.noop.Tracer(name, opts...)
	}

	return &filteringTracer{
		inner: p.inner.Tracer(name, opts...),
		noop:  p.noop.Tracer(name, opts...),
	}
}

type filteringTracer struct {
	embedded.Tracer

	inner trace.Tracer
	noop  trace.Tracer
}

func (t *filteringTracer) Start(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if _, drop := suppressedSpans[spanName]; drop {
		return t.noop.Start(ctx, spanName, opts...)
	}

	return t.inner.Start(ctx, spanName, opts...)
}
