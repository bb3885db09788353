package httpclient

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// RetryConfig bounds the automatic retry loop. The initial attempt is
// not counted as a retry.
type RetryConfig struct {
	// MaxRetries caps retry attempts. Zero disables retries.
	MaxRetries uint

	// InitialInterval is the first wait. Later waits grow by Multiplier.
	InitialInterval time.Duration

	// MaxInterval caps a single wait.
	MaxInterval time.Duration

	// MaxElapsedTime bounds the whole retry sequence. Zero means only
	// MaxRetries applies.
	MaxElapsedTime time.Duration

	// Multiplier is the exponential growth factor between waits.
	Multiplier float64

	// JitterFactor randomizes each wait by up to ±factor so synchronized
	// clients don't retry in lockstep. Clamped to [0, 1].
	JitterFactor float64
}

// DefaultRetryConfig retries three times with exponential backoff from
// 500ms and 50% jitter, within a two minute budget.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     30 * time.Second,
		MaxElapsedTime:  2 * time.Minute,
		Multiplier:      2.0,
		JitterFactor:    0.5,
	}
}

// AggressiveRetryConfig suits idempotent calls that must land: five
// retries starting at 200ms within a five minute budget.
func AggressiveRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      5,
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     60 * time.Second,
		MaxElapsedTime:  5 * time.Minute,
		Multiplier:      2.0,
		JitterFactor:    0.5,
	}
}

// ConservativeRetryConfig suits rate-limited or expensive upstreams: two
// slow retries within a 30 second budget.
func ConservativeRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      2,
		InitialInterval: time.Second,
		MaxInterval:     10 * time.Second,
		MaxElapsedTime:  30 * time.Second,
		Multiplier:      2.0,
		JitterFactor:    0.5,
	}
}

// NoRetryConfig disables the retry loop.
func NoRetryConfig() RetryConfig {
	return RetryConfig{}
}

// Enabled reports whether the retry loop is active.
func (c RetryConfig) Enabled() bool {
	return c.MaxRetries > 0
}

// retryableStatusError signals the backoff loop that the response status
// warrants another attempt.
type retryableStatusError struct {
	code int
}

func (e *retryableStatusError) Error() string {
	return fmt.Sprintf("retryable status %d", e.code)
}

// retryTransport re-issues requests the classifier deems transient,
// waiting per the configured backoff between attempts.
type retryTransport struct {
	base       http.RoundTripper
	s          *settings
	classifier RetryClassifier
}

func newRetryTransport(base http.RoundTripper, s *settings) http.RoundTripper {
	if !s.Retry.Enabled() {
		return base
	}

	classifier := s.RetryClassifier
	if classifier == nil {
		classifier = DefaultRetryClassifier
	}

	return &retryTransport{base: base, s: s, classifier: classifier}
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	cfg := t.s.Retry

	// Buffer the body up front so every attempt can replay it.
	var payload []byte
	if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
		var err error
		payload, err = io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return nil, err
		}
		req.Body = io.NopCloser(bytes.NewReader(payload))
	}

	span := trace.SpanFromContext(ctx)

	var attempts int
	opts := []backoff.RetryOption{
		backoff.WithBackOff(t.backOff()),
		backoff.WithMaxTries(cfg.MaxRetries + 1),
		backoff.WithNotify(func(err error, next time.Duration) {
			attempts++
			if span.IsRecording() {
				attrs := []attribute.KeyValue{
					attribute.Int("retry.attempt", attempts),
					attribute.Int64("retry.delay_ms", next.Milliseconds()),
				}
				if err != nil {
					attrs = append(attrs, attribute.String("retry.reason", err.Error()))
				}
				span.AddEvent("http.retry", trace.WithAttributes(attrs...))
			}
			t.s.metrics.recordRetry(ctx, t.s.baseAttributes())
		}),
	}
	if cfg.MaxElapsedTime > 0 {
		opts = append(opts, backoff.WithMaxElapsedTime(cfg.MaxElapsedTime))
	}

	// last holds the response of a status-triggered retry so the final
	// one can be handed to the caller when attempts run out.
	var last *http.Response

	resp, err := backoff.Retry(ctx, func() (*http.Response, error) {
		if last != nil {
			io.Copy(io.Discard, last.Body)
			last.Body.Close()
			last = nil
		}

		resp, err := t.base.RoundTrip(t.attempt(req, payload))

		if t.classifier(resp, err) {
			if err == nil {
				last = resp
				return nil, &retryableStatusError{code: resp.StatusCode}
			}
			return nil, err
		}

		if err != nil {
			return nil, backoff.Permanent(err)
		}
		return resp, nil
	}, opts...)

	if attempts > 0 && span.IsRecording() {
		span.SetAttributes(
			attribute.Int("http.retry_count", attempts),
			attribute.Bool("http.retry_success", err == nil),
		)
	}

	if err != nil {
		var statusErr *retryableStatusError
		if errors.As(err, &statusErr) && last != nil {
			// Retries exhausted on a retryable status: the caller gets
			// the real final response, not a synthetic error.
			return last, nil
		}
		if last != nil {
			io.Copy(io.Discard, last.Body)
			last.Body.Close()
		}
		return nil, err
	}

	return resp, nil
}

// attempt clones req with a replayable body.
func (t *retryTransport) attempt(req *http.Request, payload []byte) *http.Request {
	clone := req.Clone(req.Context())

	if payload != nil {
		clone.Body = io.NopCloser(bytes.NewReader(payload))
		clone.ContentLength = int64(len(payload))
	} else if req.GetBody != nil {
		if body, err := req.GetBody(); err == nil {
			clone.Body = body
		}
	}

	return clone
}

func (t *retryTransport) backOff() backoff.BackOff {
	if t.s.NewBackOff != nil {
		return t.s.NewBackOff()
	}
	return exponentialFromConfig(t.s.Retry)
}
