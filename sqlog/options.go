package sqlog

import (
	"time"

	"github.com/rs/zerolog"
)

type config struct {
	Log          *zerolog.Logger
	SlowAfter    time.Duration
	Sanitizer    func(string) string
	DisableQuery bool
	System       string
	Database     string
}

func newConfig(opts ...Option) *config {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Option configures a DB wrapper.
type Option func(*config)

// WithLogger sets the logger used when the context carries no request
// logger. Statements outside a request scope are silently skipped
// without it.
func WithLogger(log *zerolog.Logger) Option {
	return func(cfg *config) {
		cfg.Log = log
	}
}

// WithSlowThreshold logs statements that take at least d at warn level
// with a slow marker. Zero disables the check.
func WithSlowThreshold(d time.Duration) Option {
	return func(cfg *config) {
		cfg.SlowAfter = d
	}
}

// WithSanitizer rewrites statement text before it is logged. See
// DefaultSanitizer.
func WithSanitizer(fn func(string) string) Option {
	return func(cfg *config) {
		cfg.Sanitizer = fn
	}
}

// WithDisableQuery drops statement text from log events. The operation
// verb is still logged.
func WithDisableQuery() Option {
	return func(cfg *config) {
		cfg.DisableQuery = true
	}
}

// WithSystem tags events with the database system, e.g. "postgresql".
func WithSystem(system string) Option {
	return func(cfg *config) {
		cfg.System = system
	}
}

// WithDatabase tags events with the database name.
func WithDatabase(name string) Option {
	return func(cfg *config) {
		cfg.Database = name
	}
}
