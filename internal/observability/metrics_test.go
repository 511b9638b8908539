package observability_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Sumatoshi-tech/archgate/internal/observability"
)

func setupTestMeter(t *testing.T) (*observability.REDMetrics, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	red, err := observability.NewREDMetrics(provider.Meter("test"))
	require.NoError(t, err)

	return red, reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics

	err := reader.Collect(context.Background(), &rm)
	require.NoError(t, err)

	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for idx := range rm.ScopeMetrics {
		for midx := range rm.ScopeMetrics[idx].Metrics {
			if rm.ScopeMetrics[idx].Metrics[midx].Name == name {
				return &rm.ScopeMetrics[idx].Metrics[midx]
			}
		}
	}

	return nil
}

func TestREDMetrics_RecordRequest(t *testing.T) {
	t.Parallel()

	red, reader := setupTestMeter(t)
	ctx := context.Background()

	red.RecordRequest(ctx, "audit_path", "ok", 100*time.Millisecond)

	rm := collectMetrics(t, reader)

	require.NotNil(t, findMetric(rm, "archgate.requests.total"))
	require.NotNil(t, findMetric(rm, "archgate.request.duration.seconds"))
}

func TestREDMetrics_RecordRequestError(t *testing.T) {
	t.Parallel()

	red, reader := setupTestMeter(t)
	ctx := context.Background()

	red.RecordRequest(ctx, "audit_source", "error", time.Second)

	rm := collectMetrics(t, reader)

	require.NotNil(t, findMetric(rm, "archgate.errors.total"))
}

func TestREDMetrics_SuccessDoesNotCountAsError(t *testing.T) {
	t.Parallel()

	red, reader := setupTestMeter(t)

	red.RecordRequest(context.Background(), "audit_path", "ok", time.Millisecond)

	rm := collectMetrics(t, reader)

	assert.Nil(t, findMetric(rm, "archgate.errors.total"))
}

func TestREDMetrics_TrackInflight(t *testing.T) {
	t.Parallel()

	red, reader := setupTestMeter(t)
	ctx := context.Background()

	done := red.TrackInflight(ctx)

	rm := collectMetrics(t, reader)
	inflight := findMetric(rm, "archgate.requests.inflight")
	require.NotNil(t, inflight)

	sum, ok := inflight.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(1), sum.DataPoints[0].Value)

	done()

	rm = collectMetrics(t, reader)
	inflight = findMetric(rm, "archgate.requests.inflight")
	require.NotNil(t, inflight)

	sum, ok = inflight.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(0), sum.DataPoints[0].Value)
}

func TestREDMetrics_NilReceiverIsSafe(t *testing.T) {
	t.Parallel()

	var red *observability.REDMetrics

	red.RecordRequest(context.Background(), "audit_path", "ok", time.Second)
	red.TrackInflight(context.Background())()
}

func TestAuditMetrics_RecordRun(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	audit, err := observability.NewAuditMetrics(provider.Meter("test"))
	require.NoError(t, err)

	audit.RecordRun(context.Background(), 10, 3, 2, 5*time.Second)

	rm := collectMetrics(t, reader)

	files := findMetric(rm, "archgate.files.audited.total")
	require.NotNil(t, files)

	sum, ok := files.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(10), sum.DataPoints[0].Value)

	verdicts := findMetric(rm, "archgate.verdicts.total")
	require.NotNil(t, verdicts)

	verdictSum, ok := verdicts.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Len(t, verdictSum.DataPoints, 2)

	require.NotNil(t, findMetric(rm, "archgate.churn.unavailable.total"))
	require.NotNil(t, findMetric(rm, "archgate.audit.duration.seconds"))
}

func TestAuditMetrics_CleanRunReportsNoFailures(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	audit, err := observability.NewAuditMetrics(provider.Meter("test"))
	require.NoError(t, err)

	audit.RecordRun(context.Background(), 4, 0, 0, time.Second)

	rm := collectMetrics(t, reader)

	verdicts := findMetric(rm, "archgate.verdicts.total")
	require.NotNil(t, verdicts)

	verdictSum, ok := verdicts.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Len(t, verdictSum.DataPoints, 1)

	assert.Nil(t, findMetric(rm, "archgate.churn.unavailable.total"))
}
