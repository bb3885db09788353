package service

import (
	"crypto/tls"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/kroma-labs/beacon-go/requestlog"
)

// Config holds the facade configuration.
//
// Use DefaultConfig(), ProductionConfig(), or DevelopmentConfig() as a
// starting point, then override specific fields or apply Options.
//
// Example:
//
//	cfg := service.ProductionConfig()
//	cfg.Addr = ":9090"
//
//	svc, err := service.New(cfg,
//	    service.WithName("orders"),
//	)
type Config struct {
	// Addr is the TCP address to listen on (default ":8080").
	Addr string

	// Name identifies the service in records, spans, and health
	// responses. Default: "service".
	Name string

	// Process tags records with the emitting process or component.
	Process string

	// Version is reported by the health endpoint when set.
	Version string

	// Level is the minimum record level the sink emits. Arrival records
	// are trace level.
	Level zerolog.Level

	// LogWriter receives serialized records. Defaults to os.Stderr.
	LogWriter io.Writer

	// BasePath mounts every route, including health, under a prefix.
	// Empty means the root.
	BasePath string

	// HealthPath is where the health endpoint is served, relative to
	// BasePath. Default: "/health".
	HealthPath string

	// ReadTimeout bounds reading the entire request including the body.
	// Zero or negative means no timeout. Guards against clients that
	// trickle bytes to hold connections open.
	ReadTimeout time.Duration

	// ReadHeaderTimeout bounds reading the request headers. Zero falls
	// back to ReadTimeout.
	ReadHeaderTimeout time.Duration

	// WriteTimeout bounds writing the response. Zero or negative means
	// no timeout.
	WriteTimeout time.Duration

	// IdleTimeout bounds waiting for the next request on a kept-alive
	// connection. Zero falls back to ReadTimeout.
	IdleTimeout time.Duration

	// MaxHeaderBytes caps the request header size. Default 1MB.
	MaxHeaderBytes int

	// TLSConfig optionally provides TLS configuration. Nil runs HTTP.
	TLSConfig *tls.Config

	// ShutdownTimeout is how long Run waits for in-flight requests
	// after a shutdown signal before closing connections.
	ShutdownTimeout time.Duration

	// RequestTimeout, when positive, bounds each request with the
	// timeout middleware. The handler's context is cancelled and a 503
	// goes out when it elapses.
	RequestTimeout time.Duration

	// LagProbeInterval is how often the scheduler lag sampler fires.
	LagProbeInterval time.Duration

	// UnresponsiveTimeout is the per-request alarm deadline.
	UnresponsiveTimeout time.Duration

	// SkipLogPaths lists exact paths served without lifecycle records.
	SkipLogPaths []string

	// GCStats overrides the collection stats source. When nil and
	// DisableGCStats is false, the facade runs its own runtime watcher.
	GCStats requestlog.GCStatsSource

	// DisableGCStats turns off collection records entirely.
	DisableGCStats bool

	// CORS enables the CORS middleware when set.
	CORS *CORSConfig

	// RateLimit enables request rate limiting when set.
	RateLimit *RateLimitConfig

	// Tracing enables the OpenTelemetry tracing middleware when set.
	Tracing *TracingConfig

	// Metrics enables the OpenTelemetry metrics middleware when set.
	Metrics *MetricsConfig

	// MetricsPath, when non-empty, serves the Prometheus scrape
	// endpoint at this path.
	MetricsPath string

	// Pprof, when set, mounts the profiling endpoints.
	Pprof *PprofConfig

	// Middleware is appended after the built-in stack.
	Middleware []Middleware
}

// DefaultConfig returns a balanced configuration suitable for most
// deployments.
//
// Timeout values:
//   - ReadTimeout: 15s
//   - WriteTimeout: 15s
//   - IdleTimeout: 60s
//   - ShutdownTimeout: 10s
func DefaultConfig() Config {
	return Config{
		Addr:                ":8080",
		Name:                "service",
		Level:               zerolog.InfoLevel,
		HealthPath:          "/health",
		ReadTimeout:         15 * time.Second,
		ReadHeaderTimeout:   10 * time.Second,
		WriteTimeout:        15 * time.Second,
		IdleTimeout:         60 * time.Second,
		MaxHeaderBytes:      1 << 20, // 1 MB
		ShutdownTimeout:     10 * time.Second,
		LagProbeInterval:    requestlog.DefaultLagProbeInterval,
		UnresponsiveTimeout: requestlog.DefaultUnresponsiveTimeout,
	}
}

// ProductionConfig returns a hardened configuration tuned for
// Kubernetes, where terminationGracePeriodSeconds defaults to 30s.
//
// Timeout values:
//   - ReadTimeout: 10s (most API requests finish in under a second)
//   - WriteTimeout: 10s
//   - IdleTimeout: 30s
//   - ShutdownTimeout: 25s (5s buffer before the SIGKILL at 30s)
func ProductionConfig() Config {
	cfg := DefaultConfig()
	cfg.ReadTimeout = 10 * time.Second
	cfg.ReadHeaderTimeout = 5 * time.Second
	cfg.WriteTimeout = 10 * time.Second
	cfg.IdleTimeout = 30 * time.Second
	cfg.ShutdownTimeout = 25 * time.Second
	return cfg
}

// DevelopmentConfig returns a lenient configuration for local work:
// no read/write timeouts (debugger friendly), trace-level records so
// arrivals are visible, and a short shutdown for fast restarts.
//
// Do not use this in production.
func DevelopmentConfig() Config {
	cfg := DefaultConfig()
	cfg.Level = zerolog.TraceLevel
	cfg.ReadTimeout = 0
	cfg.ReadHeaderTimeout = 0
	cfg.WriteTimeout = 0
	cfg.IdleTimeout = 120 * time.Second
	cfg.ShutdownTimeout = 3 * time.Second
	return cfg
}
