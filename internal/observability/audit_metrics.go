package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricFilesAudited     = "archgate.files.audited.total"
	metricVerdictsTotal    = "archgate.verdicts.total"
	metricAuditDuration    = "archgate.audit.duration.seconds"
	metricChurnUnavailable = "archgate.churn.unavailable.total"

	verdictPass = "pass"
	verdictFail = "fail"
)

// AuditMetrics counts what the audit engine actually decided, as opposed to
// the request-level RED view. One RecordRun call per engine run.
type AuditMetrics struct {
	filesAudited  metric.Int64Counter
	verdictsTotal metric.Int64Counter
	auditDuration metric.Float64Histogram
	churnMisses   metric.Int64Counter
}

// NewAuditMetrics registers the audit instruments on meter.
func NewAuditMetrics(meter metric.Meter) (*AuditMetrics, error) {
	builder := newMetricBuilder(meter)

	audit := &AuditMetrics{
		filesAudited:  builder.counter(metricFilesAudited, "Source files measured across all runs."),
		verdictsTotal: builder.counter(metricVerdictsTotal, "Per-file verdicts by outcome."),
		auditDuration: builder.histogram(metricAuditDuration, "Wall time of a full engine run.", "s", durationBucketBoundaries),
		churnMisses:   builder.counter(metricChurnUnavailable, "Files whose churn ratio could not be resolved."),
	}

	if builder.err != nil {
		return nil, builder.err
	}

	return audit, nil
}

// RecordRun folds one finished engine run into the instruments. A nil receiver
// is a no-op.
func (m *AuditMetrics) RecordRun(ctx context.Context, audited, failed, churnMisses int, duration time.Duration) {
	if m == nil {
		return
	}

	m.filesAudited.Add(ctx, int64(audited))
	m.auditDuration.Record(ctx, duration.Seconds())

	if failed > 0 {
		m.verdictsTotal.Add(ctx, int64(failed), metric.WithAttributes(attribute.String("verdict", verdictFail)))
	}

	if passed := audited - failed; passed > 0 {
		m.verdictsTotal.Add(ctx, int64(passed), metric.WithAttributes(attribute.String("verdict", verdictPass)))
	}

	if churnMisses > 0 {
		m.churnMisses.Add(ctx, int64(churnMisses))
	}
}
