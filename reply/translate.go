package reply

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"reflect"
	"strconv"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
)

const contentTypeJSON = "application/json"

// errorBody is the wire shape for translated errors.
type errorBody struct {
	StatusCode int    `json:"statusCode"`
	Error      string `json:"error"`
	Message    string `json:"message,omitempty"`
}

// Translate maps a handler result to a response decision.
//
// When err is set the status policy applies: 4xx codes pass through
// verbatim, 5xx codes are forced to 503 so raw upstream failures never
// leak, and errors with no recognizable code (or codes outside 400-599)
// fall back to 404. A nil err with nil data yields a bare 404. Otherwise
// data is JSON-serialized, fingerprinted, and served as 200 with an
// ETag; cacheControl, when non-empty, is set verbatim on the response.
//
// A data serialization failure is returned to the caller: no valid
// response can be built from it, so it must not be swallowed.
func Translate(err error, data any, cacheControl string) (*Outcome, error) {
	if err != nil {
		return translateError(err), nil
	}

	if isNilValue(data) {
		return notFoundOutcome(), nil
	}

	body, merr := json.Marshal(data)
	if merr != nil {
		return nil, errors.Wrap(merr, "reply: serialize response body")
	}

	etag := Fingerprint(body)
	header := http.Header{}
	header.Set("Content-Type", contentTypeJSON)
	header.Set("ETag", strconv.Quote(etag))
	if cacheControl != "" {
		header.Set("Cache-Control", cacheControl)
	}

	return &Outcome{
		Kind:       KindSuccess,
		StatusCode: http.StatusOK,
		Header:     header,
		Body:       body,
		ETag:       etag,
		Source:     data,
	}, nil
}

// translateError applies the status policy and builds the error outcome.
func translateError(err error) *Outcome {
	status := http.StatusNotFound
	switch code := statusFrom(err); {
	case code >= 400 && code < 500:
		status = code
	case code >= 500 && code < 600:
		status = http.StatusServiceUnavailable
	}

	wrapper := asError(err, status)

	kind := KindClientError
	if status >= 500 {
		kind = KindServerError
	}

	header := http.Header{}
	for key, values := range wrapper.Header {
		for _, v := range values {
			header.Add(key, v)
		}
	}
	header.Set("Content-Type", contentTypeJSON)

	// Server-class failures get a generic body; the real message still
	// reaches the logs through the outcome's error wrapper.
	wire := errorBody{StatusCode: status, Error: http.StatusText(status)}
	if status < 500 {
		wire.Message = wrapper.Message
	}
	body, _ := json.Marshal(wire)

	return &Outcome{
		Kind:       kind,
		StatusCode: status,
		Header:     header,
		Body:       body,
		Err:        wrapper,
	}
}

// statusFrom extracts a numeric status code from the error's accessors.
// Returns 0 when the error exposes none.
func statusFrom(err error) int {
	var re *Error
	if errors.As(err, &re) {
		return re.Status
	}
	if coder, ok := err.(interface{ Code() int }); ok {
		return coder.Code()
	}
	if sc, ok := err.(interface{ StatusCode() int }); ok {
		return sc.StatusCode()
	}
	return 0
}

// asError returns err as an *Error, wrapping it with the decided status
// when it is not one already.
func asError(err error, status int) *Error {
	var re *Error
	if errors.As(err, &re) {
		return re
	}
	return &Error{Status: status, Message: err.Error(), cause: err}
}

// notFoundOutcome is the decision for an absent result: 404, empty body.
func notFoundOutcome() *Outcome {
	return &Outcome{
		Kind:       KindClientError,
		StatusCode: http.StatusNotFound,
		Header:     http.Header{},
	}
}

// isNilValue reports whether data is nil, including typed nils hiding
// behind the interface.
func isNilValue(data any) bool {
	if data == nil {
		return true
	}
	v := reflect.ValueOf(data)
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		return v.IsNil()
	default:
		return false
	}
}

// Fingerprint computes the deterministic content hash used for cache
// validation: the first 128 bits of SHA-256 over the serialized bytes,
// hex rendered.
func Fingerprint(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:16])
}
