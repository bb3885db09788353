package reply

import "net/http"

// Write renders the outcome onto w and records it for lifecycle logging
// when a Recorder is present on the request context.
//
// Headers already set on w (such as the request id stamped by the
// lifecycle logger) survive; outcome headers are added on top.
func Write(w http.ResponseWriter, r *http.Request, o *Outcome) {
	if o == nil {
		o = notFoundOutcome()
	}

	if rec := RecorderFrom(r.Context()); rec != nil {
		rec.Record(o)
	}

	h := w.Header()
	for key, values := range o.Header {
		h[key] = append([]string(nil), values...)
	}

	w.WriteHeader(o.StatusCode)

	if len(o.Body) > 0 && r.Method != http.MethodHead {
		_, _ = w.Write(o.Body)
	}
}
