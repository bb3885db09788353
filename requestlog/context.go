package requestlog

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Header is the request identity header, propagated inbound and stamped
// on every response.
const Header = "X-Request-ID"

// ctxKey is the context key for the per-request Context.
type ctxKey struct{}

// Context carries the identity and timing of one in-flight request,
// plus a child logger scoped to it.
//
// Exactly one Context exists per request: it is attached to the request
// context on arrival and reused by everything downstream, so the
// unresponsiveness alarm can never be armed twice for one request.
type Context struct {
	// ID is the globally unique request identifier: the propagated
	// inbound value, or a generated UUID when none was supplied.
	ID string

	// Start is when the request began.
	Start time.Time

	// Log is a child logger tagged with request_id. It is nil when no
	// parent logger was supplied; callers must check.
	Log *zerolog.Logger

	mu    sync.Mutex
	timer *time.Timer
}

// NewContext builds a Context. A zero id generates a fresh UUID; a zero
// start captures the current time; a nil parent leaves Log unset.
func NewContext(id string, start time.Time, parent *zerolog.Logger) *Context {
	if id == "" {
		id = uuid.New().String()
	}
	if start.IsZero() {
		start = time.Now()
	}

	c := &Context{ID: id, Start: start}

	if parent != nil {
		child := parent.With().Str("request_id", id).Logger()
		c.Log = &child
	}

	return c
}

// Elapsed returns the time since the request began. Never negative,
// never decreasing across calls.
func (c *Context) Elapsed() time.Duration {
	d := time.Since(c.Start)
	if d < 0 {
		return 0
	}
	return d
}

// Arm schedules fn to fire once after d unless Disarm runs first.
// Arming an already armed context is a no-op.
func (c *Context) Arm(d time.Duration, fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		return
	}
	c.timer = time.AfterFunc(d, fn)
}

// Disarm cancels the pending alarm. Idempotent by contract: disarming
// twice, after firing, or on a context that was never armed is a no-op.
func (c *Context) Disarm() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// WithContext attaches rc to ctx.
func WithContext(ctx context.Context, rc *Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, rc)
}

// FromContext extracts the request Context from ctx, or nil when absent.
func FromContext(ctx context.Context) *Context {
	rc, _ := ctx.Value(ctxKey{}).(*Context)
	return rc
}

// FromRequest extracts the request Context from r, or nil when absent.
func FromRequest(r *http.Request) *Context {
	return FromContext(r.Context())
}

// IDFromContext returns the request id from ctx, or an empty string when
// no Context is attached.
func IDFromContext(ctx context.Context) string {
	if rc := FromContext(ctx); rc != nil {
		return rc.ID
	}
	return ""
}
