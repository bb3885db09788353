// Package echo adapts this module's middleware to the Echo framework.
//
// # Quick Start
//
//	e := echo.New()
//
//	log := requestlog.New(requestlog.DefaultConfig())
//	e.Use(echobeacon.Lifecycle(log))
//	e.Use(echobeacon.Recovery(log))
//
//	e.Use(echobeacon.RateLimit(service.RateLimitConfig{
//	    Limit: 100,
//	    Burst: 200,
//	}))
//
//	echobeacon.RegisterHealth(e, "/health", health)
//
// While the middleware runs, Echo's writes are routed through the
// wrapped response writer, so lifecycle records and metrics observe
// the real status code and body size.
package echo

import (
	"net/http"
	"time"

	echolib "github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/kroma-labs/beacon-go/requestlog"
	"github.com/kroma-labs/beacon-go/service"
)

// WrapMiddleware adapts a service.Middleware to Echo middleware.
//
//	e.Use(echobeacon.WrapMiddleware(myMiddleware))
func WrapMiddleware(m service.Middleware) echolib.MiddlewareFunc {
	return func(next echolib.HandlerFunc) echolib.HandlerFunc {
		return func(c echolib.Context) error {
			var err error
			handler := m(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				c.SetRequest(r)
				prev := c.Response().Writer
				c.Response().Writer = w
				err = next(c)
				c.Response().Writer = prev
			}))
			handler.ServeHTTP(c.Response().Writer, c.Request())
			return err
		}
	}
}

// Lifecycle returns Echo middleware that emits the arrival and
// response records, threads the request id, and arms the
// unresponsiveness alarm.
//
//	e.Use(echobeacon.Lifecycle(log))
func Lifecycle(l *requestlog.Logger) echolib.MiddlewareFunc {
	return WrapMiddleware(l.Middleware())
}

// Recovery returns Echo middleware that converts panics into 503
// responses.
func Recovery(l *requestlog.Logger) echolib.MiddlewareFunc {
	return WrapMiddleware(service.Recovery(l))
}

// Tracing returns Echo middleware for OpenTelemetry tracing.
func Tracing(cfg service.TracingConfig) echolib.MiddlewareFunc {
	return WrapMiddleware(service.Tracing(cfg))
}

// Metrics returns Echo middleware for OpenTelemetry request metrics.
func Metrics(cfg service.MetricsConfig) (echolib.MiddlewareFunc, error) {
	mw, err := service.Metrics(cfg)
	if err != nil {
		return nil, err
	}
	return WrapMiddleware(mw), nil
}

// CORS returns Echo middleware for Cross-Origin Resource Sharing.
//
//	e.Use(echobeacon.CORS(service.DefaultCORSConfig()))
func CORS(cfg service.CORSConfig) echolib.MiddlewareFunc {
	return WrapMiddleware(service.CORS(cfg))
}

// Timeout returns Echo middleware bounding request processing time.
func Timeout(timeout time.Duration) echolib.MiddlewareFunc {
	return WrapMiddleware(service.Timeout(timeout))
}

// RateLimit returns Echo middleware for token bucket rate limiting,
// in-memory or Redis-backed depending on cfg.
func RateLimit(cfg service.RateLimitConfig) echolib.MiddlewareFunc {
	return WrapMiddleware(service.RateLimit(cfg))
}

// RateLimitByIP returns Echo middleware limiting per client IP.
func RateLimitByIP(limit rate.Limit, burst int) echolib.MiddlewareFunc {
	return WrapMiddleware(service.RateLimitByIP(limit, burst))
}

// RegisterHealth mounts the health endpoint on an Echo instance.
//
//	echobeacon.RegisterHealth(e, "/health", health)
func RegisterHealth(e *echolib.Echo, path string, h *service.Health) {
	if path == "" {
		path = "/health"
	}
	e.GET(path, echolib.WrapHandler(h.Handler()))
}

// RegisterPprof mounts the profiling endpoints on an Echo instance.
func RegisterPprof(e *echolib.Echo, cfg service.PprofConfig) {
	if cfg.Prefix == "" {
		cfg.Prefix = "/debug/pprof"
	}
	e.Any(cfg.Prefix+"/*", echolib.WrapHandler(service.PprofHandler(cfg)))
}

// RegisterPrometheus mounts the Prometheus scrape endpoint on an Echo
// instance.
func RegisterPrometheus(e *echolib.Echo, path string) {
	if path == "" {
		path = "/metrics"
	}
	e.GET(path, echolib.WrapHandler(service.PrometheusHandler()))
}
