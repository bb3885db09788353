package httpclient_test

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kroma-labs/beacon-go/httpclient"
)

func respWithStatus(code int) *http.Response {
	return &http.Response{StatusCode: code}
}

func TestDefaultRetryClassifier(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		resp *http.Response
		err  error
		want bool
	}{
		{"given a 200, then no retry", respWithStatus(http.StatusOK), nil, false},
		{"given a 400, then no retry", respWithStatus(http.StatusBadRequest), nil, false},
		{"given a 404, then no retry", respWithStatus(http.StatusNotFound), nil, false},
		{"given a plain 500, then no retry", respWithStatus(http.StatusInternalServerError), nil, false},
		{"given a 429, then retry", respWithStatus(http.StatusTooManyRequests), nil, true},
		{"given a 502, then retry", respWithStatus(http.StatusBadGateway), nil, true},
		{"given a 503, then retry", respWithStatus(http.StatusServiceUnavailable), nil, true},
		{"given a 504, then retry", respWithStatus(http.StatusGatewayTimeout), nil, true},
		{"given a cancelled context, then no retry", nil, context.Canceled, false},
		{"given a deadline exceeded, then no retry", nil, context.DeadlineExceeded, false},
		{"given connection refused, then retry", nil, syscall.ECONNREFUSED, true},
		{"given connection reset, then retry", nil, syscall.ECONNRESET, true},
		{"given an unexpected EOF, then retry", nil, io.ErrUnexpectedEOF, true},
		{"given a missing host, then no retry", nil, &net.DNSError{Err: "no such host", IsNotFound: true}, false},
		{"given permission denied, then no retry", nil, syscall.EACCES, false},
		{"given an unknown transport error, then retry", nil, errors.New("wire fell out"), true},
		{"given no response and no error, then no retry", nil, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, httpclient.DefaultRetryClassifier(tt.resp, tt.err))
		})
	}
}

func TestStatusCodeClassifier(t *testing.T) {
	t.Parallel()

	classify := httpclient.StatusCodeClassifier(http.StatusInternalServerError, http.StatusBadGateway)

	tests := []struct {
		name string
		resp *http.Response
		err  error
		want bool
	}{
		{"given a listed 500, then retry", respWithStatus(http.StatusInternalServerError), nil, true},
		{"given a listed 502, then retry", respWithStatus(http.StatusBadGateway), nil, true},
		{"given an unlisted 503, then no retry", respWithStatus(http.StatusServiceUnavailable), nil, false},
		{"given a 200, then no retry", respWithStatus(http.StatusOK), nil, false},
		{"given a network error, then retry", nil, syscall.ECONNRESET, true},
		{"given a missing host, then no retry", nil, &net.DNSError{Err: "no such host", IsNotFound: true}, false},
		{"given a non network error, then no retry", nil, errors.New("marshal failed"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, classify(tt.resp, tt.err))
		})
	}
}

func TestNeverRetryClassifier(t *testing.T) {
	t.Parallel()

	classify := httpclient.NeverRetryClassifier()

	assert.False(t, classify(respWithStatus(http.StatusServiceUnavailable), nil))
	assert.False(t, classify(nil, syscall.ECONNREFUSED))
	assert.False(t, classify(nil, nil))
}
