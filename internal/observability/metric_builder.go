package observability

import (
	"go.opentelemetry.io/otel/metric"
)

// metricBuilder creates instruments while accumulating the first error, so
// constructors can build a whole instrument set and check once at the end.
type metricBuilder struct {
	meter metric.Meter
	err   error
}

func newMetricBuilder(meter metric.Meter) *metricBuilder {
	return &metricBuilder{meter: meter}
}

func (b *metricBuilder) counter(name, description string) metric.Int64Counter {
	if b.err != nil {
		return nil
	}

	instrument, err := b.meter.Int64Counter(name, metric.WithDescription(description))
	if err != nil {
		b.err = err

		return nil
	}

	return instrument
}

func (b *metricBuilder) histogram(name, description, unit string, boundaries []float64) metric.Float64Histogram {
	if b.err != nil {
		return nil
	}

	instrument, err := b.meter.Float64Histogram(
		name,
		metric.WithDescription(description),
		metric.WithUnit(unit),
		metric.WithExplicitBucketBoundaries(boundaries...),
	)
	if err != nil {
		b.err = err

		return nil
	}

	return instrument
}

func (b *metricBuilder) upDownCounter(name, description string) metric.Int64UpDownCounter {
	if b.err != nil {
		return nil
	}

	instrument, err := b.meter.Int64UpDownCounter(name, metric.WithDescription(description))
	if err != nil {
		b.err = err

		return nil
	}

	return instrument
}

func (b *metricBuilder) observableGauge(name, description string) metric.Int64ObservableGauge {
	if b.err != nil {
		return nil
	}

	instrument, err := b.meter.Int64ObservableGauge(name, metric.WithDescription(description))
	if err != nil {
		b.err = err

		return nil
	}

	return instrument
}
