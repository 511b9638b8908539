package observability

import (
	"context"
	runtimemetrics "runtime/metrics"

	"go.opentelemetry.io/otel/metric"
)

const (
	metricGoroutines = "archgate.runtime.goroutines"
	metricGomaxprocs = "archgate.runtime.gomaxprocs"
	metricHeapBytes  = "archgate.runtime.heap.objects.bytes"
)

// SchedulerMetrics surfaces runtime scheduler and heap gauges on the
// diagnostics scrape, useful when tuning --workers on large trees.
type SchedulerMetrics struct {
	goroutines metric.Int64ObservableGauge
	gomaxprocs metric.Int64ObservableGauge
	heapBytes  metric.Int64ObservableGauge

	samples []runtimemetrics.Sample
}

// NewSchedulerMetrics registers the runtime gauges on meter and hooks them to
// a single runtime/metrics read per collection.
func NewSchedulerMetrics(meter metric.Meter) (*SchedulerMetrics, error) {
	builder := newMetricBuilder(meter)

	sched := &SchedulerMetrics{
		goroutines: builder.observableGauge(metricGoroutines, "Live goroutines."),
		gomaxprocs: builder.observableGauge(metricGomaxprocs, "Scheduler processor limit."),
		heapBytes:  builder.observableGauge(metricHeapBytes, "Bytes occupied by live heap objects."),
		samples: []runtimemetrics.Sample{
			{Name: "/sched/goroutines:goroutines"},
			{Name: "/sched/gomaxprocs:threads"},
			{Name: "/memory/classes/heap/objects:bytes"},
		},
	}

	if builder.err != nil {
		return nil, builder.err
	}

	_, err := meter.RegisterCallback(
		sched.observe,
		sched.goroutines,
		sched.gomaxprocs,
		sched.heapBytes,
	)
	if err != nil {
		return nil, err
	}

	return sched, nil
}

func (s *SchedulerMetrics) observe(_ context.Context, observer metric.Observer) error {
	runtimemetrics.Read(s.samples)

	observer.ObserveInt64(s.goroutines, int64(s.samples[0].Value.Uint64()))
	observer.ObserveInt64(s.gomaxprocs, int64(s.samples[1].Value.Uint64()))
	observer.ObserveInt64(s.heapBytes, int64(s.samples[2].Value.Uint64()))

	return nil
}
