package httpclient_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kroma-labs/beacon-go/httpclient"
)

// fastRetry keeps waits in the low milliseconds so tests finish quickly.
func fastRetry(maxRetries uint) httpclient.RetryConfig {
	return httpclient.RetryConfig{
		MaxRetries:      maxRetries,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		Multiplier:      2.0,
		JitterFactor:    0.1,
	}
}

func TestRetryConfigs(t *testing.T) {
	t.Parallel()

	assert.True(t, httpclient.DefaultRetryConfig().Enabled())
	assert.Equal(t, uint(3), httpclient.DefaultRetryConfig().MaxRetries)
	assert.Equal(t, uint(5), httpclient.AggressiveRetryConfig().MaxRetries)
	assert.Equal(t, uint(2), httpclient.ConservativeRetryConfig().MaxRetries)
	assert.False(t, httpclient.NoRetryConfig().Enabled())
}

func TestRetryTransientFailures(t *testing.T) {
	t.Parallel()

	t.Run("given two 503s then a 200, then the call succeeds after retries", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hits.Add(1) <= 2 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte("recovered"))
		}))
		t.Cleanup(srv.Close)

		client := httpclient.New(
			httpclient.WithBaseURL(srv.URL),
			httpclient.WithRetry(fastRetry(3)),
		)

		resp, err := client.Get(context.Background(), "/flaky")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "recovered", resp.String())
		assert.Equal(t, int32(3), hits.Load())
	})

	t.Run("given retries exhausted on a 503, then the final response is returned", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("upstream drained"))
		}))
		t.Cleanup(srv.Close)

		client := httpclient.New(
			httpclient.WithBaseURL(srv.URL),
			httpclient.WithRetry(fastRetry(2)),
		)

		resp, err := client.Get(context.Background(), "/down")
		require.NoError(t, err)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "upstream drained", resp.String())
		assert.Equal(t, int32(3), hits.Load())
	})

	t.Run("given a 400, then the request is not retried", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusBadRequest)
		}))
		t.Cleanup(srv.Close)

		client := httpclient.New(
			httpclient.WithBaseURL(srv.URL),
			httpclient.WithRetry(fastRetry(3)),
		)

		resp, err := client.Get(context.Background(), "/bad")
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, int32(1), hits.Load())
	})

	t.Run("given a plain 500, then the request is not retried", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		t.Cleanup(srv.Close)

		client := httpclient.New(
			httpclient.WithBaseURL(srv.URL),
			httpclient.WithRetry(fastRetry(3)),
		)

		resp, err := client.Get(context.Background(), "/buggy")
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, int32(1), hits.Load())
	})

	t.Run("given retries disabled, then a 503 comes straight back", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		t.Cleanup(srv.Close)

		client := httpclient.New(
			httpclient.WithBaseURL(srv.URL),
			httpclient.WithRetry(httpclient.NoRetryConfig()),
		)

		resp, err := client.Get(context.Background(), "/down")
		require.NoError(t, err)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, int32(1), hits.Load())
	})

	t.Run("given connection errors, then attempts are retried and the error surfaces", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32
		rt := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			attempts.Add(1)
			return nil, syscall.ECONNREFUSED
		})

		client := httpclient.New(
			httpclient.WithTransport(rt),
			httpclient.WithRetry(fastRetry(2)),
		)

		_, err := client.Get(context.Background(), "http://upstream.internal/jobs")
		require.Error(t, err)
		assert.ErrorIs(t, err, syscall.ECONNREFUSED)
		assert.Equal(t, int32(3), attempts.Load())
	})
}

func TestRetryBodyReplay(t *testing.T) {
	t.Parallel()

	t.Run("given a JSON post, then every attempt carries the full body", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			assert.JSONEq(t, `{"sku":"A-1","qty":3}`, string(body))

			if hits.Add(1) <= 2 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusCreated)
		}))
		t.Cleanup(srv.Close)

		client := httpclient.New(
			httpclient.WithBaseURL(srv.URL),
			httpclient.WithRetry(fastRetry(3)),
		)

		resp, err := client.Post(context.Background(), "/orders", map[string]any{
			"sku": "A-1",
			"qty": 3,
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Equal(t, int32(3), hits.Load())
	})

	t.Run("given a raw reader request, then the body is buffered for replay", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			assert.Equal(t, "replay me", string(body))

			if hits.Add(1) == 1 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		t.Cleanup(srv.Close)

		client := httpclient.New(
			httpclient.WithBaseURL(srv.URL),
			httpclient.WithRetry(fastRetry(2)),
		)

		resp, err := client.Post(context.Background(), "/ingest", strings.NewReader("replay me"))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, int32(2), hits.Load())
	})
}

func TestRetryClassifierOverride(t *testing.T) {
	t.Parallel()

	t.Run("given a status classifier including 500, then 500s are retried", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		t.Cleanup(srv.Close)

		client := httpclient.New(
			httpclient.WithBaseURL(srv.URL),
			httpclient.WithRetry(fastRetry(2)),
			httpclient.WithRetryClassifier(httpclient.StatusCodeClassifier(http.StatusInternalServerError)),
		)

		resp, err := client.Get(context.Background(), "/buggy")
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, int32(3), hits.Load())
	})

	t.Run("given the never classifier, then a 503 is not retried", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		t.Cleanup(srv.Close)

		client := httpclient.New(
			httpclient.WithBaseURL(srv.URL),
			httpclient.WithRetry(fastRetry(3)),
			httpclient.WithRetryClassifier(httpclient.NeverRetryClassifier()),
		)

		resp, err := client.Get(context.Background(), "/down")
		require.NoError(t, err)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, int32(1), hits.Load())
	})
}

func TestRetryCustomBackOff(t *testing.T) {
	t.Parallel()

	t.Run("given a backoff factory, then each request gets a fresh strategy", func(t *testing.T) {
		t.Parallel()

		var built atomic.Int32
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hits.Add(1)%2 == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		t.Cleanup(srv.Close)

		client := httpclient.New(
			httpclient.WithBaseURL(srv.URL),
			httpclient.WithRetry(fastRetry(2)),
			httpclient.WithRetryBackOff(func() backoff.BackOff {
				built.Add(1)
				return &httpclient.ConstantBackOffWithJitter{Interval: time.Millisecond}
			}),
		)

		for i := 0; i < 3; i++ {
			resp, err := client.Get(context.Background(), "/flaky")
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
		}

		assert.Equal(t, int32(3), built.Load())
	})
}
