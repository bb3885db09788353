package httpclient

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// clientMetrics holds the instrument set for one client. A nil
// *clientMetrics is valid and records nothing.
type clientMetrics struct {
	duration metric.Float64Histogram
	active   metric.Int64UpDownCounter
	retries  metric.Int64Counter
	breaker  metric.Int64Counter
}

func newClientMetrics(meter metric.Meter) (*clientMetrics, error) {
	m := &clientMetrics{}
	var err error

	m.duration, err = meter.Float64Histogram(
		"http.client.request.duration",
		metric.WithDescription("Duration of outbound HTTP requests"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create http.client.request.duration")
	}

	m.active, err = meter.Int64UpDownCounter(
		"http.client.active_requests",
		metric.WithDescription("In-flight outbound HTTP requests"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create http.client.active_requests")
	}

	m.retries, err = meter.Int64Counter(
		"http.client.retry.attempts",
		metric.WithDescription("Retry attempts for outbound HTTP requests"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create http.client.retry.attempts")
	}

	m.breaker, err = meter.Int64Counter(
		"http.client.breaker.requests",
		metric.WithDescription("Requests seen by the circuit breaker, by outcome"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create http.client.breaker.requests")
	}

	return m, nil
}

func (m *clientMetrics) recordDuration(ctx context.Context, d time.Duration, attrs []attribute.KeyValue) {
	if m == nil {
		return
	}
	m.duration.Record(ctx, d.Seconds(), metric.WithAttributes(attrs...))
}

func (m *clientMetrics) addActive(ctx context.Context, delta int64, attrs []attribute.KeyValue) {
	if m == nil {
		return
	}
	m.active.Add(ctx, delta, metric.WithAttributes(attrs...))
}

func (m *clientMetrics) recordRetry(ctx context.Context, attrs []attribute.KeyValue) {
	if m == nil {
		return
	}
	m.retries.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *clientMetrics) recordBreaker(ctx context.Context, name, outcome string) {
	if m == nil {
		return
	}
	m.breaker.Add(ctx, 1, metric.WithAttributes(
		attribute.String("breaker.name", name),
		attribute.String("breaker.outcome", outcome),
	))
}
