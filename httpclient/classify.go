package httpclient

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"syscall"
)

// RetryClassifier decides whether an attempt's outcome should be
// retried. It runs inside the transport chain, so err is the raw
// transport error, never an *url.Error wrapper.
type RetryClassifier func(resp *http.Response, err error) bool

// DefaultRetryClassifier retries transient failures only: transport
// errors that aren't permanent, 429, and the 502/503/504 gateway
// statuses. Cancelled contexts, TLS and NXDOMAIN failures, plain 500s,
// and client errors are not retried.
func DefaultRetryClassifier(resp *http.Response, err error) bool {
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return false
		}
		return !isPermanentError(err)
	}

	if resp != nil {
		return retryableStatus(resp.StatusCode)
	}

	return false
}

// StatusCodeClassifier retries the listed status codes plus transient
// network errors.
//
// Example:
//
//	httpclient.WithRetryClassifier(httpclient.StatusCodeClassifier(500, 502, 503, 504))
func StatusCodeClassifier(codes ...int) RetryClassifier {
	set := make(map[int]bool, len(codes))
	for _, code := range codes {
		set[code] = true
	}

	return func(resp *http.Response, err error) bool {
		if err != nil {
			return !isPermanentError(err) && isNetworkError(err)
		}
		return resp != nil && set[resp.StatusCode]
	}
}

// NeverRetryClassifier disables retries regardless of outcome.
func NeverRetryClassifier() RetryClassifier {
	return func(*http.Response, error) bool { return false }
}

// retryableStatus reports whether code is a transient upstream status.
// 500 is deliberately absent: a plain internal error is usually a bug,
// not a blip.
func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// isNetworkError reports whether err looks like a transport-level
// failure rather than an application response.
func isNetworkError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ETIMEDOUT) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, os.ErrDeadlineExceeded)
}

// isPermanentError reports failures that cannot succeed on retry.
func isPermanentError(err error) bool {
	if err == nil {
		return false
	}

	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
		return true
	}

	return errors.Is(err, syscall.EACCES)
}

// errorType labels a transport error for metrics.
func errorType(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded), os.IsTimeout(err):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case isNetworkError(err):
		return "network"
	default:
		return "other"
	}
}
