// Package gin adapts this module's middleware to the Gin framework.
//
// # Quick Start
//
//	r := gin.New()
//
//	log := requestlog.New(requestlog.DefaultConfig())
//	r.Use(ginbeacon.Lifecycle(log))
//	r.Use(ginbeacon.Recovery(log))
//
//	r.Use(ginbeacon.RateLimit(service.RateLimitConfig{
//	    Limit: 100,
//	    Burst: 200,
//	}))
//
//	ginbeacon.RegisterHealth(r, "/health", health)
package gin

import (
	"net/http"
	"time"

	ginlib "github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/kroma-labs/beacon-go/requestlog"
	"github.com/kroma-labs/beacon-go/service"
)

// WrapMiddleware adapts a service.Middleware to Gin middleware.
//
// Gin routes writes through its own ResponseWriter, so middleware
// observing the response body (lifecycle records, metrics) see the
// status Gin reports, not individual writes.
//
//	r.Use(ginbeacon.WrapMiddleware(myMiddleware))
func WrapMiddleware(m service.Middleware) ginlib.HandlerFunc {
	return func(c *ginlib.Context) {
		var aborted bool
		handler := m(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			c.Request = r
			c.Next()
			aborted = c.IsAborted()
		}))
		handler.ServeHTTP(c.Writer, c.Request)
		if aborted {
			c.Abort()
		}
	}
}

// Lifecycle returns Gin middleware that emits the arrival and response
// records, threads the request id, and arms the unresponsiveness
// alarm.
//
//	r.Use(ginbeacon.Lifecycle(log))
func Lifecycle(l *requestlog.Logger) ginlib.HandlerFunc {
	return WrapMiddleware(l.Middleware())
}

// Recovery returns Gin middleware that converts panics into 503
// responses.
func Recovery(l *requestlog.Logger) ginlib.HandlerFunc {
	return WrapMiddleware(service.Recovery(l))
}

// Tracing returns Gin middleware for OpenTelemetry tracing.
func Tracing(cfg service.TracingConfig) ginlib.HandlerFunc {
	return WrapMiddleware(service.Tracing(cfg))
}

// Metrics returns Gin middleware for OpenTelemetry request metrics.
func Metrics(cfg service.MetricsConfig) (ginlib.HandlerFunc, error) {
	mw, err := service.Metrics(cfg)
	if err != nil {
		return nil, err
	}
	return WrapMiddleware(mw), nil
}

// CORS returns Gin middleware for Cross-Origin Resource Sharing.
//
//	r.Use(ginbeacon.CORS(service.DefaultCORSConfig()))
func CORS(cfg service.CORSConfig) ginlib.HandlerFunc {
	return WrapMiddleware(service.CORS(cfg))
}

// Timeout returns Gin middleware bounding request processing time.
func Timeout(timeout time.Duration) ginlib.HandlerFunc {
	return WrapMiddleware(service.Timeout(timeout))
}

// RateLimit returns Gin middleware for token bucket rate limiting,
// in-memory or Redis-backed depending on cfg.
func RateLimit(cfg service.RateLimitConfig) ginlib.HandlerFunc {
	return WrapMiddleware(service.RateLimit(cfg))
}

// RateLimitByIP returns Gin middleware limiting per client IP.
func RateLimitByIP(limit rate.Limit, burst int) ginlib.HandlerFunc {
	return WrapMiddleware(service.RateLimitByIP(limit, burst))
}

// WrapHandler wraps an http.Handler as a Gin handler.
//
//	r.GET("/custom", ginbeacon.WrapHandler(myHandler))
func WrapHandler(h http.Handler) ginlib.HandlerFunc {
	return func(c *ginlib.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// RegisterHealth mounts the health endpoint on a Gin router.
//
//	ginbeacon.RegisterHealth(r, "/health", health)
func RegisterHealth(r *ginlib.Engine, path string, h *service.Health) {
	if path == "" {
		path = "/health"
	}
	r.GET(path, WrapHandler(h.Handler()))
}

// RegisterPprof mounts the profiling endpoints on a Gin router.
func RegisterPprof(r *ginlib.Engine, cfg service.PprofConfig) {
	if cfg.Prefix == "" {
		cfg.Prefix = "/debug/pprof"
	}
	r.Any(cfg.Prefix+"/*action", WrapHandler(service.PprofHandler(cfg)))
}

// RegisterPrometheus mounts the Prometheus scrape endpoint on a Gin
// router.
func RegisterPrometheus(r *ginlib.Engine, path string) {
	if path == "" {
		path = "/metrics"
	}
	r.GET(path, WrapHandler(service.PrometheusHandler()))
}
