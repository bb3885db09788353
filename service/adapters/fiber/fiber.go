// Package fiber adapts this module's middleware to the Fiber
// framework.
//
// Fiber runs on fasthttp rather than net/http; gofiber/adaptor
// bridges the two. The bridge copies requests, so there is some
// overhead per call, but every middleware in this module works
// unchanged on the other side of it.
//
// # Quick Start
//
//	app := fiber.New()
//
//	log := requestlog.New(requestlog.DefaultConfig())
//	app.Use(fiberbeacon.Lifecycle(log))
//	app.Use(fiberbeacon.Recovery(log))
//
//	app.Use(fiberbeacon.RateLimit(service.RateLimitConfig{
//	    Limit: 100,
//	    Burst: 200,
//	}))
//
//	fiberbeacon.RegisterHealth(app, "/health", health)
package fiber

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"golang.org/x/time/rate"

	"github.com/kroma-labs/beacon-go/requestlog"
	"github.com/kroma-labs/beacon-go/service"
)

// WrapMiddleware adapts a service.Middleware to Fiber middleware.
//
//	app.Use(fiberbeacon.WrapMiddleware(myMiddleware))
func WrapMiddleware(m service.Middleware) fiber.Handler {
	return adaptor.HTTPMiddleware(func(next http.Handler) http.Handler {
		return m(next)
	})
}

// Lifecycle returns Fiber middleware that emits the arrival and
// response records, threads the request id, and arms the
// unresponsiveness alarm.
//
//	app.Use(fiberbeacon.Lifecycle(log))
func Lifecycle(l *requestlog.Logger) fiber.Handler {
	return WrapMiddleware(l.Middleware())
}

// Recovery returns Fiber middleware that converts panics into 503
// responses.
func Recovery(l *requestlog.Logger) fiber.Handler {
	return WrapMiddleware(service.Recovery(l))
}

// Tracing returns Fiber middleware for OpenTelemetry tracing.
func Tracing(cfg service.TracingConfig) fiber.Handler {
	return WrapMiddleware(service.Tracing(cfg))
}

// Metrics returns Fiber middleware for OpenTelemetry request metrics.
func Metrics(cfg service.MetricsConfig) (fiber.Handler, error) {
	mw, err := service.Metrics(cfg)
	if err != nil {
		return nil, err
	}
	return WrapMiddleware(mw), nil
}

// CORS returns Fiber middleware for Cross-Origin Resource Sharing.
//
//	app.Use(fiberbeacon.CORS(service.DefaultCORSConfig()))
func CORS(cfg service.CORSConfig) fiber.Handler {
	return WrapMiddleware(service.CORS(cfg))
}

// Timeout returns Fiber middleware bounding request processing time.
func Timeout(timeout time.Duration) fiber.Handler {
	return WrapMiddleware(service.Timeout(timeout))
}

// RateLimit returns Fiber middleware for token bucket rate limiting,
// in-memory or Redis-backed depending on cfg.
func RateLimit(cfg service.RateLimitConfig) fiber.Handler {
	return WrapMiddleware(service.RateLimit(cfg))
}

// RateLimitByIP returns Fiber middleware limiting per client IP.
func RateLimitByIP(limit rate.Limit, burst int) fiber.Handler {
	return WrapMiddleware(service.RateLimitByIP(limit, burst))
}

// RegisterHealth mounts the health endpoint on a Fiber app.
//
//	fiberbeacon.RegisterHealth(app, "/health", health)
func RegisterHealth(app *fiber.App, path string, h *service.Health) {
	if path == "" {
		path = "/health"
	}
	app.Get(path, adaptor.HTTPHandler(h.Handler()))
}

// RegisterPprof mounts the profiling endpoints on a Fiber app.
func RegisterPprof(app *fiber.App, cfg service.PprofConfig) {
	if cfg.Prefix == "" {
		cfg.Prefix = "/debug/pprof"
	}
	app.All(cfg.Prefix+"/*", adaptor.HTTPHandler(service.PprofHandler(cfg)))
}

// RegisterPrometheus mounts the Prometheus scrape endpoint on a Fiber
// app.
func RegisterPrometheus(app *fiber.App, path string) {
	if path == "" {
		path = "/metrics"
	}
	app.Get(path, adaptor.HTTPHandler(service.PrometheusHandler()))
}
