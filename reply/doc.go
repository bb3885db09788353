// Package reply turns handler results into HTTP response decisions.
//
// The package implements a deliberate status policy for small services:
// client errors pass through untouched, upstream server errors are
// compressed to 503 so internal failure codes never reach callers, and
// errors without a recognizable status hide behind 404.
//
// # Translation
//
// Translate maps an (error, data) pair to an Outcome:
//
//   - err set: 4xx codes pass through, 5xx codes become 503, anything
//     else becomes 404.
//   - err nil, data nil: a bare 404.
//   - err nil, data set: data is JSON-serialized, fingerprinted for
//     cache validation, and served as 200 with an ETag.
//
// Example:
//
//	func getOrder(w http.ResponseWriter, r *http.Request) {
//	    order, err := store.Fetch(chi.URLParam(r, "id"))
//	    o, terr := reply.Translate(err, order, "max-age=30")
//	    if terr != nil {
//	        // serialization failed; no valid response can be built
//	        panic(terr)
//	    }
//	    reply.Write(w, r, o)
//	}
//
// # Error Wrappers
//
// Error carries an HTTP status, client-facing message, optional response
// headers, and opaque data for logging:
//
//	return nil, reply.NotFound("order does not exist")
//	return nil, reply.Wrap(err, http.StatusBadGateway)
//
// # Outcome Recording
//
// Write records the Outcome on the request context (via Recorder) so
// lifecycle logging can classify the response after the handler returns.
// Handlers that bypass Write are still logged, just without the handler
// level detail.
package reply
