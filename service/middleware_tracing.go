package service

import (
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/kroma-labs/beacon-go/requestlog"
)

// TracingConfig configures the OpenTelemetry tracing middleware.
type TracingConfig struct {
	// TracerProvider supplies the tracer. Default: the global provider.
	TracerProvider trace.TracerProvider

	// Propagators extract the parent context from incoming headers.
	// Default: the global propagators.
	Propagators propagation.TextMapPropagator

	// ServiceName is recorded on the span as service.name.
	ServiceName string

	// SkipPaths lists paths that get no spans, typically health and
	// metrics endpoints.
	SkipPaths []string
}

// Tracing returns middleware that opens a server span per request,
// honoring any propagated parent context.
func Tracing(cfg TracingConfig) Middleware {
	provider := cfg.TracerProvider
	if provider == nil {
		provider = otel.GetTracerProvider()
	}
	propagators := cfg.Propagators
	if propagators == nil {
		propagators = otel.GetTextMapPropagator()
	}

	tracer := provider.Tracer("github.com/kroma-labs/beacon-go/service")

	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := skip[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			ctx := propagators.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

			attrs := []attribute.KeyValue{
				semconv.HTTPRequestMethodKey.String(r.Method),
				semconv.URLPath(r.URL.Path),
				semconv.URLScheme(schemeOf(r)),
				semconv.ServerAddress(r.Host),
				semconv.UserAgentOriginal(r.UserAgent()),
			}
			if cfg.ServiceName != "" {
				attrs = append(attrs, attribute.String("service.name", cfg.ServiceName))
			}
			id := requestlog.IDFromContext(ctx)
			if id == "" {
				id = r.Header.Get(requestlog.Header)
			}
			if id != "" {
				attrs = append(attrs, attribute.String("request.id", id))
			}

			ctx, span := tracer.Start(ctx,
				fmt.Sprintf("%s %s", r.Method, r.URL.Path),
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(attrs...),
			)
			defer span.End()

			ww := requestlog.WrapResponseWriter(w)
			next.ServeHTTP(ww, r.WithContext(ctx))

			status := ww.Status()
			span.SetAttributes(semconv.HTTPResponseStatusCode(status))
			if status >= 500 {
				span.SetStatus(codes.Error, http.StatusText(status))
			}
		})
	}
}

func schemeOf(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	return "http"
}
