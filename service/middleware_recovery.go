package service

import (
	"net/http"

	"github.com/pkg/errors"

	"github.com/kroma-labs/beacon-go/reply"
	"github.com/kroma-labs/beacon-go/requestlog"
)

// Recovery returns middleware that converts panics into 503 responses.
//
// The panic becomes a stack-carrying error behind the outcome, so the
// outgoing record logs it at error level with the trace. When no
// outcome recorder is installed (skipped paths), the panic is logged
// directly instead.
func Recovery(l *requestlog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}

				err, ok := rec.(error)
				if ok {
					err = errors.WithStack(err)
				} else {
					err = errors.Errorf("panic: %v", rec)
				}

				if reply.RecorderFrom(r.Context()) == nil && l != nil {
					l.Error("panic recovered", err)
				}

				o, _ := reply.Translate(reply.Wrap(err, http.StatusInternalServerError), nil, "")
				reply.Write(w, r, o)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
