package requestlog

import (
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/kroma-labs/beacon-go/errfmt"
	"github.com/kroma-labs/beacon-go/reply"
)

// Logger emits one trace record when a request arrives and one leveled
// record when its response goes out, tying both to the same Context. It
// also carries the process-wide scheduler lag sampler and, when
// configured, forwards garbage collection stats.
type Logger struct {
	log     zerolog.Logger
	timeout time.Duration
	lag     *LagSampler
	skip    map[string]struct{}
	gcUnsub func()
}

// New builds a Logger from cfg with opts applied on top. Close it to
// release the lag sampler and the GC subscription.
func New(cfg Config, opts ...Option) *Logger {
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Writer == nil {
		cfg.Writer = os.Stderr
	}
	if cfg.LagProbeInterval <= 0 {
		cfg.LagProbeInterval = DefaultLagProbeInterval
	}
	if cfg.UnresponsiveTimeout <= 0 {
		cfg.UnresponsiveTimeout = DefaultUnresponsiveTimeout
	}

	lc := zerolog.New(cfg.Writer).Level(cfg.Level).With().Timestamp()
	if cfg.Name != "" {
		lc = lc.Str("name", cfg.Name)
	}
	if cfg.Process != "" {
		lc = lc.Str("process", cfg.Process)
	}
	if len(cfg.Fields) > 0 {
		lc = lc.Fields(cfg.Fields)
	}

	l := &Logger{
		log:     lc.Logger(),
		timeout: cfg.UnresponsiveTimeout,
		lag:     NewLagSampler(cfg.LagProbeInterval),
	}

	if len(cfg.SkipPaths) > 0 {
		l.skip = make(map[string]struct{}, len(cfg.SkipPaths))
		for _, p := range cfg.SkipPaths {
			l.skip[p] = struct{}{}
		}
	}

	if cfg.GCStats != nil {
		l.gcUnsub = cfg.GCStats.Subscribe(l.gcRecord)
	}

	return l
}

// Close stops the lag sampler and drops the GC subscription. Safe to
// call more than once.
func (l *Logger) Close() {
	l.lag.Stop()
	if l.gcUnsub != nil {
		l.gcUnsub()
	}
}

// Base returns the underlying sink for components that log outside a
// request scope.
func (l *Logger) Base() *zerolog.Logger {
	return &l.log
}

// Incoming registers the arrival of r: it ensures a Context (seeding
// the id from X-Request-ID), stamps the id onto w before the handler
// runs, emits the trace-level arrival record, and arms the one-shot
// unresponsiveness alarm. The returned request carries the Context.
func (l *Logger) Incoming(w http.ResponseWriter, r *http.Request) (*http.Request, *Context) {
	rc := FromRequest(r)
	if rc == nil {
		rc = NewContext(r.Header.Get(Header), time.Time{}, &l.log)
		r = r.WithContext(WithContext(r.Context(), rc))
	}
	l.adopt(rc)

	w.Header().Set(Header, rc.ID)

	if e := rc.Log.Trace(); e.Enabled() {
		e.Str("method", r.Method).
			Interface("headers", r.Header).
			Str("path", r.URL.Path).
			Interface("query", r.URL.Query()).
			Interface("state", cookieState(r)).
			Str("rawUrl", r.URL.RequestURI()).
			Int64("start", rc.Start.UnixMilli()).
			Float64("lag", l.lag.Millis())
		if remote := r.Header.Get("X-Forwarded-For"); remote != "" {
			e.Str("remote", remote)
		}
		e.Msg("incoming request")
	}

	method, path, timeout := r.Method, r.URL.Path, l.timeout
	rc.Arm(timeout, func() {
		rc.Log.Error().Msgf("%s %s is unresponsive (%dms)", method, path, timeout.Milliseconds())
	})

	return r, rc
}

// Outgoing registers the completion of r: it clears the alarm, measures
// elapsed time, classifies the recorded outcome, and emits the final
// record at the level the classification dictates. status is the wire
// status actually written; o may be nil when the handler bypassed the
// translation layer.
func (l *Logger) Outgoing(w http.ResponseWriter, r *http.Request, status int, o *reply.Outcome) {
	rc := FromRequest(r)
	if rc == nil {
		// A response without a logged request. Degenerate but tolerated.
		rc = NewContext(r.Header.Get(Header), time.Time{}, &l.log)
	}
	l.adopt(rc)
	rc.Disarm()

	if w.Header().Get(Header) == "" {
		w.Header().Set(Header, rc.ID)
	}

	if status == 0 {
		if o != nil && o.StatusCode != 0 {
			status = o.StatusCode
		} else {
			status = http.StatusOK
		}
	}

	elapsed := rc.Elapsed()
	finish := rc.Start.Add(elapsed)

	var e *zerolog.Event
	switch reply.Classify(o) {
	case reply.ClassFrameworkError:
		rec := errfmt.NewRecord(o.Err)
		if o.Err.IsServer() {
			e = rc.Log.Error().Interface("error", rec)
		} else {
			e = rc.Log.Warn().Interface("error", rec.WithoutStack())
		}
	case reply.ClassBusinessFailure:
		e = rc.Log.Error().Interface("error", errfmt.Serialize(o.Source))
	default:
		e = rc.Log.Info()
	}

	e.Str("method", r.Method).
		Str("path", r.URL.Path).
		Interface("query", r.URL.Query()).
		Str("rawUrl", r.URL.RequestURI()).
		Int64("start", rc.Start.UnixMilli()).
		Int64("finish", finish.UnixMilli()).
		Int64("elapsed", elapsed.Milliseconds()).
		Float64("lag", l.lag.Millis()).
		Int("statusCode", status).
		Interface("headers", w.Header())

	if l.traceEnabled() {
		e.Interface("requestHeaders", r.Header).
			Interface("state", cookieState(r))
		if params := routeParams(r); params != nil {
			e.Interface("params", params)
		}
	}

	e.Msgf("%s %s %d (%dms)", r.Method, r.URL.Path, status, elapsed.Milliseconds())
}

// Info emits msg at info level. A string data lands under "info", a map
// merges into the record, and any other value lands under "data".
func (l *Logger) Info(msg string, data any) {
	emit(l.log.Info(), msg, data)
}

// Warn emits msg at warn level with the same data handling as Info.
func (l *Logger) Warn(msg string, data any) {
	emit(l.log.Warn(), msg, data)
}

// Trace emits msg at trace level with the same data handling as Info.
func (l *Logger) Trace(msg string, data any) {
	emit(l.log.Trace(), msg, data)
}

// Error emits msg at error level with err serialized under "error".
func (l *Logger) Error(msg string, err error) {
	e := l.log.Error()
	if err != nil {
		e.Interface("error", errfmt.NewRecord(err))
	}
	e.Msg(msg)
}

// Lag returns the current scheduler lag estimate in milliseconds.
func (l *Logger) Lag() float64 {
	return l.lag.Millis()
}

func (l *Logger) gcRecord(stats GCStats) {
	l.Info("GC", stats)
}

func (l *Logger) adopt(rc *Context) {
	if rc.Log == nil {
		child := l.log.With().Str("request_id", rc.ID).Logger()
		rc.Log = &child
	}
}

func (l *Logger) traceEnabled() bool {
	return l.log.GetLevel() <= zerolog.TraceLevel
}

func emit(e *zerolog.Event, msg string, data any) {
	switch d := data.(type) {
	case nil:
	case string:
		e.Str("info", d)
	case map[string]any:
		e.Fields(d)
	default:
		e.Interface("data", d)
	}
	e.Msg(msg)
}

func cookieState(r *http.Request) map[string]string {
	cookies := r.Cookies()
	if len(cookies) == 0 {
		return nil
	}
	state := make(map[string]string, len(cookies))
	for _, c := range cookies {
		state[c.Name] = c.Value
	}
	return state
}

func routeParams(r *http.Request) map[string]string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return nil
	}
	params := make(map[string]string, len(rctx.URLParams.Keys))
	for i, k := range rctx.URLParams.Keys {
		if k == "*" {
			continue
		}
		params[k] = rctx.URLParams.Values[i]
	}
	if len(params) == 0 {
		return nil
	}
	return params
}
