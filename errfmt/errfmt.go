// Package errfmt flattens Go errors into structured records suitable for
// log emission.
//
// The central entry point is Serialize, which turns any error into a
// *Record carrying the message, the concrete type name, the full stack
// text across the cause chain, and process exit details when present.
// Values that are not errors pass through Serialize unchanged, so callers
// can feed it arbitrary payloads without pre-checking.
//
// Stack text is sourced from errors created with github.com/pkg/errors
// (or any error exposing a compatible StackTrace method). Errors without
// captured stacks fall back to their string rendering.
//
// Example:
//
//	err := errors.Wrap(io.ErrUnexpectedEOF, "read manifest")
//	log.Error().Interface("error", errfmt.Serialize(err)).Msg("load failed")
package errfmt

import (
	stderrors "errors"
	"fmt"
	"os/exec"
	"reflect"
	"strings"
	"syscall"

	"github.com/pkg/errors"
)

// causeSeparator joins the stack text of an error with the stack text of
// the error that caused it.
const causeSeparator = "\nCaused by: "

// maxCauseDepth bounds the cause-chain walk. Chains deeper than this are
// truncated; in practice real chains are a handful of links.
const maxCauseDepth = 32

// Record is the flat wire shape of a serialized error.
//
// Fields with no meaningful value are omitted from marshaled output
// rather than zero-stuffed.
type Record struct {
	Message string `json:"message"`
	Name    string `json:"name"`
	Stack   string `json:"stack,omitempty"`
	Code    int    `json:"code,omitempty"`
	Signal  string `json:"signal,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// WithoutStack returns a copy of the record with the stack text removed.
// Used when logging expected client errors where stacks are noise.
func (r *Record) WithoutStack() *Record {
	if r == nil {
		return nil
	}
	clone := *r
	clone.Stack = ""
	return &clone
}

// stackTracer is the stack capture contract of github.com/pkg/errors.
type stackTracer interface {
	StackTrace() errors.StackTrace
}

// causer is the legacy cause accessor used by wrapped errors.
type causer interface {
	Cause() error
}

// Serialize converts v into a loggable value.
//
// nil stays nil. Values that do not implement error are returned
// unchanged. Errors become a *Record built by NewRecord.
func Serialize(v any) any {
	if v == nil {
		return nil
	}
	if err, ok := v.(error); ok {
		return NewRecord(err)
	}
	return v
}

// NewRecord builds the structured record for err. Returns nil for a nil
// error.
func NewRecord(err error) *Record {
	if err == nil {
		return nil
	}

	rec := &Record{
		Message: err.Error(),
		Name:    errorName(err),
		Stack:   FullStack(err),
	}

	// The error's own accessors win over anything deeper in the chain.
	if coder, ok := err.(interface{ Code() int }); ok {
		rec.Code = coder.Code()
	} else if sc, ok := err.(interface{ StatusCode() int }); ok {
		rec.Code = sc.StatusCode()
	}

	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) {
		rec.Code = exitErr.ExitCode()
		if ps := exitErr.ProcessState; ps != nil {
			if ws, ok := ps.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
				rec.Signal = ws.Signal().String()
			}
		}
	}

	if d, ok := err.(interface{ Data() any }); ok {
		rec.Data = d.Data()
	}

	return rec
}

// FullStack renders the stack text of err followed by the stack text of
// each cause, joined with "Caused by:" markers, innermost cause last.
//
// The walk is iterative and guarded: comparable errors are tracked in a
// visited set so a cause cycle terminates the chain instead of looping,
// and the depth cap covers errors whose dynamic type cannot be compared.
func FullStack(err error) string {
	if err == nil {
		return ""
	}

	var b strings.Builder
	seen := make(map[error]bool, 4)

	for depth := 0; err != nil && depth < maxCauseDepth; depth++ {
		if revisited(seen, err) {
			break
		}
		if depth > 0 {
			b.WriteString(causeSeparator)
		}
		b.WriteString(stackText(err))
		err = unwrapCause(err)
	}

	return b.String()
}

// revisited records err in the visited set and reports whether it was
// already there. Uncomparable dynamic types are never recorded; the
// depth cap alone covers them.
func revisited(seen map[error]bool, err error) bool {
	t := reflect.TypeOf(err)
	if t == nil || !t.Comparable() {
		return false
	}
	if seen[err] {
		return true
	}
	seen[err] = true
	return false
}

// stackText returns the error's own stack rendering when it carries one,
// or its plain string rendering otherwise.
func stackText(err error) string {
	if st, ok := err.(stackTracer); ok {
		if trace := st.StackTrace(); len(trace) > 0 {
			return fmt.Sprintf("%s%+v", err.Error(), trace)
		}
	}
	return err.Error()
}

// unwrapCause follows the explicit Cause accessor when present, falling
// back to the standard Unwrap convention.
func unwrapCause(err error) error {
	if c, ok := err.(causer); ok {
		return c.Cause()
	}
	return stderrors.Unwrap(err)
}

// errorName reports the concrete type of err with pointer markers
// stripped, e.g. "reply.Error" or "errors.fundamental".
func errorName(err error) string {
	return strings.TrimLeft(fmt.Sprintf("%T", err), "*")
}
