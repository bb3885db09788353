package reply

import (
	"context"
	"net/http"
	"sync"
)

// Kind labels the status class of a translated outcome.
type Kind int

const (
	// KindSuccess is a serialized payload response.
	KindSuccess Kind = iota
	// KindClientError is a 4xx response.
	KindClientError
	// KindServerError is a server failure compressed to 503.
	KindServerError
	// KindRedirect is a Location response.
	KindRedirect
)

// Outcome is a decided response: status, headers, and body, together
// with the originals the decision was made from so lifecycle logging can
// classify the request after the fact.
type Outcome struct {
	Kind       Kind
	StatusCode int
	Header     http.Header
	Body       []byte

	// ETag is the content fingerprint of Body, set for success outcomes.
	ETag string

	// Source is the raw handler value the outcome was built from.
	Source any

	// Err is the error wrapper behind client and server error outcomes.
	Err *Error
}

// recorderKey is the context key for the per-request Recorder.
type recorderKey struct{}

// Recorder captures the outcome written for a request. The lifecycle
// logger installs one before the handler runs and reads it afterwards.
//
// A mutex guards the slot because timeout middleware may run the handler
// on a separate goroutine from the one that logs the response.
type Recorder struct {
	mu      sync.Mutex
	outcome *Outcome
}

// Record stores the outcome. The last write wins.
func (rec *Recorder) Record(o *Outcome) {
	rec.mu.Lock()
	rec.outcome = o
	rec.mu.Unlock()
}

// Outcome returns the recorded outcome, or nil when the handler wrote
// its response without going through Write.
func (rec *Recorder) Outcome() *Outcome {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.outcome
}

// WithRecorder attaches rec to ctx.
func WithRecorder(ctx context.Context, rec *Recorder) context.Context {
	return context.WithValue(ctx, recorderKey{}, rec)
}

// RecorderFrom extracts the Recorder from ctx, or nil when absent.
func RecorderFrom(ctx context.Context) *Recorder {
	rec, _ := ctx.Value(recorderKey{}).(*Recorder)
	return rec
}
