package reply

import "net/http"

// Error is an HTTP-shaped error wrapper: a status code, a client-facing
// message, optional response headers, and opaque data carried for
// logging, independent of the underlying cause.
type Error struct {
	// Status is the HTTP status code the error maps to.
	Status int

	// Message is the client-facing message.
	Message string

	// Header is merged into the response headers when the error is
	// translated.
	Header http.Header

	// Payload is opaque data attached for log records. It never reaches
	// the client.
	Payload any

	cause error
}

// NewError creates an Error with the given status and message. An empty
// message falls back to the standard status text.
func NewError(status int, message string) *Error {
	if message == "" {
		message = http.StatusText(status)
	}
	return &Error{Status: status, Message: message}
}

// Wrap attaches an HTTP status to an existing error, preserving it as
// the cause. Returns nil when err is nil.
func Wrap(err error, status int) *Error {
	if err == nil {
		return nil
	}
	return &Error{Status: status, Message: err.Error(), cause: err}
}

// BadRequest creates a 400 error.
func BadRequest(message string) *Error {
	return NewError(http.StatusBadRequest, message)
}

// Unauthorized creates a 401 error.
func Unauthorized(message string) *Error {
	return NewError(http.StatusUnauthorized, message)
}

// Forbidden creates a 403 error.
func Forbidden(message string) *Error {
	return NewError(http.StatusForbidden, message)
}

// NotFound creates a 404 error.
func NotFound(message string) *Error {
	return NewError(http.StatusNotFound, message)
}

// Conflict creates a 409 error.
func Conflict(message string) *Error {
	return NewError(http.StatusConflict, message)
}

// TooManyRequests creates a 429 error.
func TooManyRequests(message string) *Error {
	return NewError(http.StatusTooManyRequests, message)
}

// Internal creates a 500 error. Translation never exposes the code
// verbatim; it surfaces as 503.
func Internal(message string) *Error {
	return NewError(http.StatusInternalServerError, message)
}

// ServiceUnavailable creates a 503 error.
func ServiceUnavailable(message string) *Error {
	return NewError(http.StatusServiceUnavailable, message)
}

// Error implements the error interface.
func (e *Error) Error() string { return e.Message }

// Unwrap exposes the underlying cause, if any.
func (e *Error) Unwrap() error { return e.cause }

// StatusCode reports the HTTP status the error maps to.
func (e *Error) StatusCode() int { return e.Status }

// IsServer reports whether the error is server-class (5xx).
func (e *Error) IsServer() bool { return e.Status >= 500 }

// Data exposes the attached payload for error serialization.
func (e *Error) Data() any { return e.Payload }

// WithHeader sets a response header on the error and returns it for
// chaining.
func (e *Error) WithHeader(key, value string) *Error {
	if e.Header == nil {
		e.Header = http.Header{}
	}
	e.Header.Set(key, value)
	return e
}

// WithData attaches opaque data for log records and returns the error
// for chaining.
func (e *Error) WithData(data any) *Error {
	e.Payload = data
	return e
}
