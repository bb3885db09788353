// Package grpcgateway adapts this module's middleware to
// grpc-gateway's runtime.ServeMux.
//
// # Quick Start
//
//	gwmux := runtime.NewServeMux()
//
//	// Register gRPC services with gwmux, then wrap:
//	handler, err := grpcgateway.NewHandler(gwmux, grpcgateway.Config{
//	    Log:       log,
//	    Tracing:   &service.TracingConfig{},
//	    RateLimit: &service.RateLimitConfig{Limit: 100, Burst: 200},
//	})
//
//	http.ListenAndServe(":8080", handler)
//
// To serve the gateway next to plain HTTP endpoints (health, metrics)
// on one port, see CombinedMux.
package grpcgateway

import (
	"net/http"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"

	"github.com/kroma-labs/beacon-go/requestlog"
	"github.com/kroma-labs/beacon-go/service"
)

// WrapWithMiddleware wraps a grpc-gateway ServeMux with middleware,
// applied in order, first outermost.
//
//	handler := grpcgateway.WrapWithMiddleware(gwmux,
//	    log.Middleware(),
//	    service.Recovery(log),
//	)
func WrapWithMiddleware(mux *runtime.ServeMux, middlewares ...service.Middleware) http.Handler {
	return service.Chain(middlewares...)(mux)
}

// Config holds the middleware selection for NewHandler.
type Config struct {
	// Log enables the lifecycle records and panic recovery.
	Log *requestlog.Logger

	// Tracing enables OpenTelemetry tracing.
	Tracing *service.TracingConfig

	// Metrics enables OpenTelemetry request metrics.
	Metrics *service.MetricsConfig

	// CORS enables Cross-Origin Resource Sharing.
	CORS *service.CORSConfig

	// RateLimit enables request rate limiting.
	RateLimit *service.RateLimitConfig
}

// NewHandler wraps mux in the configured middleware, ordered the same
// way the service facade orders its stack: tracing, metrics,
// lifecycle records, recovery, CORS, rate limiting.
func NewHandler(mux *runtime.ServeMux, cfg Config) (http.Handler, error) {
	var middlewares []service.Middleware

	if cfg.Tracing != nil {
		middlewares = append(middlewares, service.Tracing(*cfg.Tracing))
	}
	if cfg.Metrics != nil {
		mw, err := service.Metrics(*cfg.Metrics)
		if err != nil {
			return nil, err
		}
		middlewares = append(middlewares, mw)
	}
	if cfg.Log != nil {
		middlewares = append(middlewares, cfg.Log.Middleware(), service.Recovery(cfg.Log))
	}
	if cfg.CORS != nil {
		middlewares = append(middlewares, service.CORS(*cfg.CORS))
	}
	if cfg.RateLimit != nil {
		middlewares = append(middlewares, service.RateLimit(*cfg.RateLimit))
	}

	return service.Chain(middlewares...)(mux), nil
}

// CombinedMux routes between the gateway and plain HTTP handlers on
// one port: requests with a gRPC content type go to gwmux, everything
// else to httpmux. Useful for health checks and scrape endpoints next
// to a gateway.
//
//	httpmux := http.NewServeMux()
//	httpmux.Handle("/metrics", service.PrometheusHandler())
//	httpmux.Handle("/health", health.Handler())
//
//	handler := grpcgateway.CombinedMux(gwmux, httpmux)
func CombinedMux(gwmux *runtime.ServeMux, httpmux http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType := r.Header.Get("Content-Type")
		if contentType == "application/grpc" || contentType == "application/grpc-web" {
			gwmux.ServeHTTP(w, r)
			return
		}
		httpmux.ServeHTTP(w, r)
	})
}
