package service

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/kroma-labs/beacon-go/reply"
)

// Timeout returns middleware that bounds request processing time.
//
// When the deadline passes the handler's context is cancelled and a
// 503 outcome goes out. The handler must respect context cancellation
// for the bound to be effective; late writes from it are discarded.
func Timeout(timeout time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			done := make(chan struct{})
			tw := &timeoutWriter{ResponseWriter: w}

			go func() {
				defer close(done)
				next.ServeHTTP(tw, r.WithContext(ctx))
			}()

			select {
			case <-done:
			case <-ctx.Done():
				// The handler goroutine may still be running; its
				// writes are discarded from here on.
				tw.markTimedOut()

				o, _ := reply.Translate(reply.ServiceUnavailable("request timed out"), nil, "")
				reply.Write(w, r, o)
			}
		})
	}
}

// timeoutWriter discards handler writes that race the timeout
// response.
type timeoutWriter struct {
	http.ResponseWriter

	mu       sync.Mutex
	timedOut bool
	wrote    bool
}

func (tw *timeoutWriter) markTimedOut() {
	tw.mu.Lock()
	tw.timedOut = true
	tw.mu.Unlock()
}

func (tw *timeoutWriter) WriteHeader(code int) {
	tw.mu.Lock()
	if tw.timedOut || tw.wrote {
		tw.mu.Unlock()
		return
	}
	tw.wrote = true
	tw.mu.Unlock()

	tw.ResponseWriter.WriteHeader(code)
}

func (tw *timeoutWriter) Write(b []byte) (int, error) {
	tw.mu.Lock()
	if tw.timedOut {
		tw.mu.Unlock()
		return 0, context.DeadlineExceeded
	}
	firstWrite := !tw.wrote
	tw.wrote = true
	tw.mu.Unlock()

	if firstWrite {
		tw.ResponseWriter.WriteHeader(http.StatusOK)
	}
	return tw.ResponseWriter.Write(b)
}
