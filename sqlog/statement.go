package sqlog

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kroma-labs/beacon-go/requestlog"
)

var (
	stringLiteralRe  = regexp.MustCompile(`'(?:[^'\\]|\\.)*'`)
	hexLiteralRe     = regexp.MustCompile(`0[xX][0-9a-fA-F]+`)
	numericLiteralRe = regexp.MustCompile(`\b\d+\.?\d*\b`)
)

// DefaultSanitizer replaces string, numeric, and hex literals in a
// statement with placeholders so values never reach the logs. Pass it
// to WithSanitizer.
func DefaultSanitizer(query string) string {
	query = stringLiteralRe.ReplaceAllString(query, "'?'")
	query = numericLiteralRe.ReplaceAllString(query, "?")
	query = hexLiteralRe.ReplaceAllString(query, "?")
	return query
}

// operation returns the leading SQL verb, uppercased. "SELECT * FROM t"
// yields "SELECT", a comment or empty string yields "UNKNOWN".
func operation(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return "UNKNOWN"
	}
	if idx := strings.IndexAny(query, " \t\n\r"); idx > 0 {
		query = query[:idx]
	}
	verb := strings.ToUpper(query)
	if strings.HasPrefix(verb, "--") || strings.HasPrefix(verb, "/*") {
		return "UNKNOWN"
	}
	return verb
}

// destLen reports the element count of a scan destination, for the row
// count of Select. Only pointers to slices, arrays, and maps count.
func destLen(dest any) (int64, bool) {
	v := reflect.ValueOf(dest)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return 0, false
	}
	switch v := v.Elem(); v.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return int64(v.Len()), true
	default:
		return 0, false
	}
}

// statement is one executed query, ready to log.
type statement struct {
	op      string
	query   string
	args    int
	rows    int64
	hasRows bool
	err     error
	elapsed time.Duration
}

// logger resolves the event sink for ctx: the request logger when the
// context carries one, else the configured fallback. The returned id is
// non-empty only when the fallback needs request_id stamped on.
func (cfg *config) logger(ctx context.Context) (*zerolog.Logger, string) {
	if rc := requestlog.FromContext(ctx); rc != nil {
		if rc.Log != nil {
			return rc.Log, ""
		}
		return cfg.Log, rc.ID
	}
	return cfg.Log, ""
}

// record logs one executed statement. Errors log at warn, except
// sql.ErrNoRows which is an outcome rather than a failure and stays at
// trace. Statements at or over the slow threshold log at warn.
func (cfg *config) record(ctx context.Context, st statement) {
	log, requestID := cfg.logger(ctx)
	if log == nil {
		return
	}

	var ev *zerolog.Event
	switch {
	case st.err != nil && !errors.Is(st.err, sql.ErrNoRows):
		ev = log.Warn().Err(st.err)
	case st.err != nil:
		ev = log.Trace().Err(st.err)
	case cfg.SlowAfter > 0 && st.elapsed >= cfg.SlowAfter:
		ev = log.Warn().Bool("slow", true)
	default:
		ev = log.Trace()
	}

	ev.Str("op", st.op)
	if !cfg.DisableQuery && st.query != "" {
		q := st.query
		if cfg.Sanitizer != nil {
			q = cfg.Sanitizer(q)
		}
		ev.Str("query", q)
	}
	ev.Int("args", st.args)
	if st.hasRows {
		ev.Int64("rows", st.rows)
	}

	cfg.finish(ev, requestID, st.elapsed)
}

// control logs a lifecycle operation: BEGIN, COMMIT, ROLLBACK, PING.
// sql.ErrTxDone stays at trace; it is the normal outcome of a deferred
// Rollback after Commit.
func (cfg *config) control(ctx context.Context, op string, err error, elapsed time.Duration) {
	log, requestID := cfg.logger(ctx)
	if log == nil {
		return
	}

	var ev *zerolog.Event
	if err != nil && !errors.Is(err, sql.ErrTxDone) {
		ev = log.Warn().Err(err)
	} else if err != nil {
		ev = log.Trace().Err(err)
	} else {
		ev = log.Trace()
	}
	ev.Str("op", op)

	cfg.finish(ev, requestID, elapsed)
}

func (cfg *config) finish(ev *zerolog.Event, requestID string, elapsed time.Duration) {
	if cfg.Database != "" {
		ev.Str("db", cfg.Database)
	}
	if cfg.System != "" {
		ev.Str("system", cfg.System)
	}
	if requestID != "" {
		ev.Str("request_id", requestID)
	}
	ev.Int64("elapsed", elapsed.Milliseconds())
	ev.Msg("sql statement")
}
