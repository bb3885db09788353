package service

import (
	"net/http"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/kroma-labs/beacon-go/requestlog"
)

// MetricsConfig configures the OpenTelemetry metrics middleware.
type MetricsConfig struct {
	// MeterProvider supplies the meter. Default: the global provider.
	MeterProvider metric.MeterProvider

	// ServiceName is attached to every measurement as service.name.
	ServiceName string
}

// Metrics returns middleware that records request counts, durations,
// sizes and in-flight gauge per route.
func Metrics(cfg MetricsConfig) (Middleware, error) {
	provider := cfg.MeterProvider
	if provider == nil {
		provider = otel.GetMeterProvider()
	}

	meter := provider.Meter("github.com/kroma-labs/beacon-go/service")

	duration, err := meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("Duration of HTTP requests"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create request duration histogram")
	}

	requestSize, err := meter.Int64Histogram(
		"http.server.request.size",
		metric.WithDescription("Size of HTTP request bodies"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create request size histogram")
	}

	responseSize, err := meter.Int64Histogram(
		"http.server.response.size",
		metric.WithDescription("Size of HTTP response bodies"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create response size histogram")
	}

	activeRequests, err := meter.Int64UpDownCounter(
		"http.server.active_requests",
		metric.WithDescription("Number of in-flight HTTP requests"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create active requests counter")
	}

	requestTotal, err := meter.Int64Counter(
		"http.server.request.total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create request counter")
	}

	responseStatus, err := meter.Int64Counter(
		"http.server.response.status",
		metric.WithDescription("HTTP responses by status code"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create response status counter")
	}

	serviceAttr := attribute.String("service.name", cfg.ServiceName)

	mw := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			start := time.Now()

			baseAttrs := []attribute.KeyValue{
				serviceAttr,
				attribute.String("http.request.method", r.Method),
				attribute.String("url.path", r.URL.Path),
			}

			activeRequests.Add(ctx, 1, metric.WithAttributes(baseAttrs...))
			requestTotal.Add(ctx, 1, metric.WithAttributes(baseAttrs...))

			if r.ContentLength > 0 {
				requestSize.Record(ctx, r.ContentLength, metric.WithAttributes(baseAttrs...))
			}

			ww := requestlog.WrapResponseWriter(w)
			next.ServeHTTP(ww, r)

			statusAttrs := append(baseAttrs,
				attribute.Int("http.response.status_code", ww.Status()),
			)

			activeRequests.Add(ctx, -1, metric.WithAttributes(baseAttrs...))
			duration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(statusAttrs...))
			responseSize.Record(ctx, ww.BytesWritten(), metric.WithAttributes(statusAttrs...))
			responseStatus.Add(ctx, 1, metric.WithAttributes(statusAttrs...))
		})
	}

	return mw, nil
}
