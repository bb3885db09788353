package requestlog

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/kroma-labs/beacon-go/reply"
)

// Middleware binds Incoming and Outgoing around each request for plain
// net/http or chi use, installing an outcome recorder so reply.Write
// can report what it sent.
func (l *Logger) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Skipped paths get no records but keep the id header
			// contract.
			if _, ok := l.skip[r.URL.Path]; ok {
				id := r.Header.Get(Header)
				if id == "" {
					id = uuid.New().String()
				}
				w.Header().Set(Header, id)
				next.ServeHTTP(w, r)
				return
			}

			rec := &reply.Recorder{}
			r = r.WithContext(reply.WithRecorder(r.Context(), rec))

			ww := WrapResponseWriter(w)
			r, _ = l.Incoming(ww, r)

			next.ServeHTTP(ww, r)

			l.Outgoing(ww, r, ww.Status(), rec.Outcome())
		})
	}
}
