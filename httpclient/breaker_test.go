package httpclient_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kroma-labs/beacon-go/httpclient"
)

func TestDefaultBreakerConfig(t *testing.T) {
	t.Parallel()

	cfg := httpclient.DefaultBreakerConfig()

	assert.Equal(t, uint32(1), cfg.MaxRequests)
	assert.Equal(t, 10*time.Second, cfg.Interval)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, uint32(20), cfg.FailureThreshold)
	assert.InEpsilon(t, 0.5, cfg.FailureRatio, 0.001)
	assert.Equal(t, uint32(5), cfg.ConsecutiveFailures)
	assert.Nil(t, cfg.Store)
	assert.NotNil(t, cfg.Classifier)
}

func TestDefaultBreakerClassifier(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		resp *http.Response
		err  error
		want bool
	}{
		{"given a 200, then no failure", respWithStatus(http.StatusOK), nil, false},
		{"given a 400, then no failure", respWithStatus(http.StatusBadRequest), nil, false},
		{"given a 429, then no failure", respWithStatus(http.StatusTooManyRequests), nil, false},
		{"given a 500, then failure", respWithStatus(http.StatusInternalServerError), nil, true},
		{"given a 503, then failure", respWithStatus(http.StatusServiceUnavailable), nil, true},
		{"given connection refused, then failure", nil, syscall.ECONNREFUSED, true},
		{"given a non network error, then no failure", nil, errors.New("marshal failed"), false},
		{"given no response and no error, then no failure", nil, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, httpclient.DefaultBreakerClassifier(tt.resp, tt.err))
		})
	}
}

func TestBreakerOpens(t *testing.T) {
	t.Parallel()

	t.Run("given consecutive failures, when the threshold is reached, then calls fail fast", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		t.Cleanup(srv.Close)

		var transitions []string
		cfg := httpclient.DefaultBreakerConfig()
		cfg.FailureThreshold = 2
		cfg.ConsecutiveFailures = 2
		cfg.FailureRatio = 0
		cfg.Interval = time.Minute
		cfg.Timeout = time.Minute
		cfg.OnStateChange = func(name string, from, to gobreaker.State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		}

		client := httpclient.New(
			httpclient.WithBaseURL(srv.URL),
			httpclient.WithServiceName("payments"),
			httpclient.WithRetry(httpclient.NoRetryConfig()),
			httpclient.WithBreaker(cfg),
		)

		ctx := context.Background()

		// Failures pass through while the breaker is still closed.
		resp, err := client.Get(ctx, "/flaky")
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

		resp, err = client.Get(ctx, "/flaky")
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

		// Open now: rejected without reaching the upstream.
		before := hits.Load()
		_, err = client.Get(ctx, "/flaky")
		require.Error(t, err)
		assert.ErrorIs(t, err, gobreaker.ErrOpenState)
		assert.Equal(t, before, hits.Load())

		assert.Contains(t, transitions, "closed->open")
	})

	t.Run("given successes, then the breaker stays closed", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			_, _ = w.Write([]byte("ok"))
		}))
		t.Cleanup(srv.Close)

		client := httpclient.New(
			httpclient.WithBaseURL(srv.URL),
			httpclient.WithRetry(httpclient.NoRetryConfig()),
			httpclient.WithBreaker(httpclient.DefaultBreakerConfig()),
		)

		for i := 0; i < 3; i++ {
			resp, err := client.Get(context.Background(), "/healthy")
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
		}
		assert.Equal(t, int32(3), hits.Load())
	})

	t.Run("given a network failure, then the error surfaces through the breaker", func(t *testing.T) {
		t.Parallel()

		rt := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			return nil, syscall.ECONNREFUSED
		})

		client := httpclient.New(
			httpclient.WithTransport(rt),
			httpclient.WithRetry(httpclient.NoRetryConfig()),
			httpclient.WithBreaker(httpclient.DefaultBreakerConfig()),
		)

		_, err := client.Get(context.Background(), "http://upstream.internal/jobs")
		require.Error(t, err)
		assert.ErrorIs(t, err, syscall.ECONNREFUSED)
	})
}

func TestDistributedBreaker(t *testing.T) {
	t.Parallel()

	t.Run("given a redis store, then the shared breaker carries requests", func(t *testing.T) {
		t.Parallel()

		mr := miniredis.RunT(t)
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = rdb.Close() })

		store := httpclient.NewRedisStore(rdb)
		cfg := httpclient.DistributedBreakerConfig(store)
		assert.Equal(t, store, cfg.Store)
		assert.Equal(t, 10*time.Second, cfg.Interval)

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("shared"))
		}))
		t.Cleanup(srv.Close)

		client := httpclient.New(
			httpclient.WithBaseURL(srv.URL),
			httpclient.WithServiceName("inventory"),
			httpclient.WithRetry(httpclient.NoRetryConfig()),
			httpclient.WithBreaker(cfg),
		)

		resp, err := client.Get(context.Background(), "/stock")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "shared", resp.String())
	})
}
