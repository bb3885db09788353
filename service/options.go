package service

import (
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/kroma-labs/beacon-go/requestlog"
)

// Option configures the facade.
type Option func(*Config)

// WithConfig replaces the whole configuration.
//
// Example:
//
//	cfg := service.ProductionConfig()
//	cfg.Addr = ":9090"
//
//	svc, err := service.New(service.DefaultConfig(),
//	    service.WithConfig(cfg),
//	    service.WithName("orders"),
//	)
func WithConfig(cfg Config) Option {
	return func(c *Config) {
		*c = cfg
	}
}

// WithName sets the service identity used in records, spans, metrics
// labels, and health responses.
func WithName(name string) Option {
	return func(c *Config) {
		c.Name = name
	}
}

// WithProcess sets the process tag on every record.
func WithProcess(process string) Option {
	return func(c *Config) {
		c.Process = process
	}
}

// WithVersion sets the version reported by the health endpoint.
func WithVersion(version string) Option {
	return func(c *Config) {
		c.Version = version
	}
}

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(c *Config) {
		c.Addr = addr
	}
}

// WithLevel sets the minimum emitted record level.
func WithLevel(level zerolog.Level) Option {
	return func(c *Config) {
		c.Level = level
	}
}

// WithLogWriter sets the record destination.
func WithLogWriter(w io.Writer) Option {
	return func(c *Config) {
		c.LogWriter = w
	}
}

// WithBasePath mounts all routes under a prefix.
func WithBasePath(prefix string) Option {
	return func(c *Config) {
		c.BasePath = prefix
	}
}

// WithHealthPath moves the health endpoint.
func WithHealthPath(path string) Option {
	return func(c *Config) {
		c.HealthPath = path
	}
}

// WithMiddleware appends middleware after the built-in stack.
func WithMiddleware(ms ...Middleware) Option {
	return func(c *Config) {
		c.Middleware = append(c.Middleware, ms...)
	}
}

// WithRequestTimeout bounds each request with the timeout middleware.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.RequestTimeout = d
	}
}

// WithUnresponsiveTimeout sets the per-request alarm deadline.
func WithUnresponsiveTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.UnresponsiveTimeout = d
	}
}

// WithLagProbeInterval sets the scheduler lag sampling interval.
func WithLagProbeInterval(d time.Duration) Option {
	return func(c *Config) {
		c.LagProbeInterval = d
	}
}

// WithSkipLogPaths adds paths served without lifecycle records.
func WithSkipLogPaths(paths ...string) Option {
	return func(c *Config) {
		c.SkipLogPaths = append(c.SkipLogPaths, paths...)
	}
}

// WithGCStats overrides the collection stats source.
func WithGCStats(src requestlog.GCStatsSource) Option {
	return func(c *Config) {
		c.GCStats = src
	}
}

// WithoutGCStats turns off collection records.
func WithoutGCStats() Option {
	return func(c *Config) {
		c.DisableGCStats = true
	}
}

// WithCORS enables the CORS middleware.
func WithCORS(cfg CORSConfig) Option {
	return func(c *Config) {
		c.CORS = &cfg
	}
}

// WithRateLimit enables rate limiting for all requests.
//
// For per-route limits, apply the RateLimit middleware on specific
// routes instead.
func WithRateLimit(cfg RateLimitConfig) Option {
	return func(c *Config) {
		c.RateLimit = &cfg
	}
}

// WithTracing enables the OpenTelemetry tracing middleware. The
// service name is applied to spans automatically.
func WithTracing(cfg TracingConfig) Option {
	return func(c *Config) {
		c.Tracing = &cfg
	}
}

// WithMetrics enables the OpenTelemetry metrics middleware. The
// service name is applied to instruments automatically.
func WithMetrics(cfg MetricsConfig) Option {
	return func(c *Config) {
		c.Metrics = &cfg
	}
}

// WithPrometheus serves the Prometheus scrape endpoint at path.
func WithPrometheus(path string) Option {
	return func(c *Config) {
		c.MetricsPath = path
	}
}

// WithPprof mounts the profiling endpoints.
func WithPprof(cfg PprofConfig) Option {
	return func(c *Config) {
		c.Pprof = &cfg
	}
}
