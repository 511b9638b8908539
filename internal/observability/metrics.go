package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricRequestsTotal   = "archgate.requests.total"
	metricRequestDuration = "archgate.request.duration.seconds"
	metricErrorsTotal     = "archgate.errors.total"
	metricInflight        = "archgate.requests.inflight"

	statusError = "error"
)

// durationBucketBoundaries spans everything from a single-file audit to a
// monorepo sweep.
var durationBucketBoundaries = []float64{
	0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600,
}

// REDMetrics implements the rate, errors, duration triple for every request
// surface: CLI audits, MCP tool calls, and LSP notifications alike.
type REDMetrics struct {
	requestsTotal   metric.Int64Counter
	requestDuration metric.Float64Histogram
	errorsTotal     metric.Int64Counter
	inflight        metric.Int64UpDownCounter
}

// NewREDMetrics registers the RED instruments on meter.
func NewREDMetrics(meter metric.Meter) (*REDMetrics, error) {
	builder := newMetricBuilder(meter)

	red := &REDMetrics{
		requestsTotal:   builder.counter(metricRequestsTotal, "Total requests by operation and status."),
		requestDuration: builder.histogram(metricRequestDuration, "Request latency by operation.", "s", durationBucketBoundaries),
		errorsTotal:     builder.counter(metricErrorsTotal, "Total failed requests by operation."),
		inflight:        builder.upDownCounter(metricInflight, "Requests currently being served."),
	}

	if builder.err != nil {
		return nil, builder.err
	}

	return red, nil
}

// RecordRequest records one completed request. A nil receiver is a no-op so
// call sites need no guard when metrics are disabled.
func (m *REDMetrics) RecordRequest(ctx context.Context, operation, status string, duration time.Duration) {
	if m == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("status", status),
	)

	m.requestsTotal.Add(ctx, 1, attrs)
	m.requestDuration.Record(ctx, duration.Seconds(), attrs)

	if status == statusError {
		m.errorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
	}
}

// TrackInflight bumps the in-flight gauge and returns the matching decrement.
func (m *REDMetrics) TrackInflight(ctx context.Context) func() {
	if m == nil {
		return func() {}
	}

	m.inflight.Add(ctx, 1)

	return func() {
		m.inflight.Add(ctx, -1)
	}
}
