package requestlog

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
)

// ResponseWriter wraps http.ResponseWriter to capture the status code
// and bytes written for the outgoing record.
type ResponseWriter struct {
	http.ResponseWriter
	status      int
	bytes       int64
	wroteHeader bool
}

// WrapResponseWriter wraps w. The status defaults to 200 so handlers
// that never call WriteHeader still report correctly.
func WrapResponseWriter(w http.ResponseWriter) *ResponseWriter {
	return &ResponseWriter{ResponseWriter: w, status: http.StatusOK}
}

// WriteHeader records the status code and forwards it. Only the first
// call is recorded, matching net/http semantics.
func (rw *ResponseWriter) WriteHeader(status int) {
	if !rw.wroteHeader {
		rw.status = status
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(status)
}

// Write forwards the bytes and counts them.
func (rw *ResponseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.wroteHeader = true
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += int64(n)
	return n, err
}

// Status returns the response status code.
func (rw *ResponseWriter) Status() int {
	return rw.status
}

// BytesWritten returns the number of body bytes written so far.
func (rw *ResponseWriter) BytesWritten() int64 {
	return rw.bytes
}

// Written reports whether the header has been sent.
func (rw *ResponseWriter) Written() bool {
	return rw.wroteHeader
}

// Flush implements http.Flusher when the underlying writer does.
func (rw *ResponseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack implements http.Hijacker when the underlying writer does.
func (rw *ResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := rw.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, fmt.Errorf("requestlog: underlying ResponseWriter does not support hijacking")
}

// Push implements http.Pusher when the underlying writer does.
func (rw *ResponseWriter) Push(target string, opts *http.PushOptions) error {
	if p, ok := rw.ResponseWriter.(http.Pusher); ok {
		return p.Push(target, opts)
	}
	return http.ErrNotSupported
}

// Unwrap returns the wrapped writer, supporting http.ResponseController.
func (rw *ResponseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
