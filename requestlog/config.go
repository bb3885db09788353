package requestlog

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// DefaultUnresponsiveTimeout is how long a request may stay in flight
// before the alarm record fires.
const DefaultUnresponsiveTimeout = 30 * time.Second

// Config controls the sink identity and the lifecycle probes.
type Config struct {
	// Name identifies the service on every record.
	Name string

	// Process tags records with the emitting process or component.
	Process string

	// Level is the minimum level the sink emits. Incoming records are
	// trace level, so they only appear when Level is trace.
	Level zerolog.Level

	// Writer receives serialized records. Defaults to os.Stderr.
	Writer io.Writer

	// LagProbeInterval is how often the scheduler lag sampler fires.
	// Defaults to DefaultLagProbeInterval.
	LagProbeInterval time.Duration

	// UnresponsiveTimeout is the in-flight alarm deadline. Defaults to
	// DefaultUnresponsiveTimeout.
	UnresponsiveTimeout time.Duration

	// GCStats, when set, is subscribed for collection records until the
	// Logger is closed. The source's lifecycle stays with the caller.
	GCStats GCStatsSource

	// Fields are static fields stamped on every record.
	Fields map[string]any

	// SkipPaths lists exact request paths the middleware passes through
	// without lifecycle records.
	SkipPaths []string
}

// DefaultConfig returns a production-leaning configuration.
func DefaultConfig() Config {
	return Config{
		Name:                "service",
		Level:               zerolog.InfoLevel,
		Writer:              os.Stderr,
		LagProbeInterval:    DefaultLagProbeInterval,
		UnresponsiveTimeout: DefaultUnresponsiveTimeout,
	}
}

// DevelopmentConfig returns DefaultConfig opened up to trace level so
// arrival records are visible.
func DevelopmentConfig() Config {
	cfg := DefaultConfig()
	cfg.Level = zerolog.TraceLevel
	return cfg
}

// Option mutates a Config.
type Option func(*Config)

// WithName sets the service name.
func WithName(name string) Option {
	return func(c *Config) {
		c.Name = name
	}
}

// WithProcess sets the process tag.
func WithProcess(process string) Option {
	return func(c *Config) {
		c.Process = process
	}
}

// WithLevel sets the minimum emitted level.
func WithLevel(level zerolog.Level) Option {
	return func(c *Config) {
		c.Level = level
	}
}

// WithWriter sets the record destination.
func WithWriter(w io.Writer) Option {
	return func(c *Config) {
		c.Writer = w
	}
}

// WithLagProbeInterval sets the lag sampler interval.
func WithLagProbeInterval(d time.Duration) Option {
	return func(c *Config) {
		c.LagProbeInterval = d
	}
}

// WithUnresponsiveTimeout sets the in-flight alarm deadline.
func WithUnresponsiveTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.UnresponsiveTimeout = d
	}
}

// WithGCStats sets the collection stats source.
func WithGCStats(src GCStatsSource) Option {
	return func(c *Config) {
		c.GCStats = src
	}
}

// WithFields adds static fields to every record.
func WithFields(fields map[string]any) Option {
	return func(c *Config) {
		if c.Fields == nil {
			c.Fields = make(map[string]any, len(fields))
		}
		for k, v := range fields {
			c.Fields[k] = v
		}
	}
}

// WithSkipPaths adds paths the middleware passes through unlogged.
func WithSkipPaths(paths ...string) Option {
	return func(c *Config) {
		c.SkipPaths = append(c.SkipPaths, paths...)
	}
}
