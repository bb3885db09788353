package httpclient

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	gobreaker "github.com/sony/gobreaker/v2"
	gobreakerredis "github.com/sony/gobreaker/v2/redis"
)

// BreakerClassifier decides whether an outcome counts as a failure for
// the circuit breaker.
type BreakerClassifier func(resp *http.Response, err error) bool

// DefaultBreakerClassifier counts network errors and 5xx statuses as
// failures. 429s belong to the retry path and do not trip the breaker.
func DefaultBreakerClassifier(resp *http.Response, err error) bool {
	if err != nil {
		return isNetworkError(err)
	}
	return resp != nil && resp.StatusCode >= 500
}

// BreakerConfig tunes the circuit breaker. Closed passes requests
// through, open rejects them immediately, half-open lets MaxRequests
// probes through to test recovery.
type BreakerConfig struct {
	// MaxRequests is how many probes may pass while half-open.
	MaxRequests uint32

	// Interval is the closed-state period after which failure counts
	// reset. Zero never resets.
	Interval time.Duration

	// Timeout is how long the breaker stays open before going half-open.
	Timeout time.Duration

	// FailureThreshold is the minimum request count before FailureRatio
	// can trip the breaker.
	FailureThreshold uint32

	// FailureRatio trips the breaker when failures/requests reaches it.
	FailureRatio float64

	// ConsecutiveFailures trips the breaker outright when reached. Zero
	// disables the rule.
	ConsecutiveFailures uint32

	// Store shares breaker state across instances. Nil keeps the breaker
	// process-local.
	Store gobreaker.SharedDataStore

	// Classifier decides what counts as a failure. Defaults to
	// DefaultBreakerClassifier.
	Classifier BreakerClassifier

	// OnStateChange is invoked on every state transition.
	OnStateChange func(name string, from, to gobreaker.State)
}

// DefaultBreakerConfig returns a local breaker that trips after five
// consecutive failures, or a 50% failure ratio over at least twenty
// requests, and probes again after ten seconds.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:         1,
		Interval:            10 * time.Second,
		Timeout:             10 * time.Second,
		FailureThreshold:    20,
		FailureRatio:        0.5,
		ConsecutiveFailures: 5,
		Classifier:          DefaultBreakerClassifier,
	}
}

// DistributedBreakerConfig returns DefaultBreakerConfig sharing state
// through store, so one instance tripping stops them all.
func DistributedBreakerConfig(store gobreaker.SharedDataStore) BreakerConfig {
	cfg := DefaultBreakerConfig()
	cfg.Store = store
	return cfg
}

// NewRedisStore adapts a redis client into a breaker state store.
//
// Example:
//
//	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	cfg := httpclient.DistributedBreakerConfig(httpclient.NewRedisStore(rdb))
func NewRedisStore(client redis.UniversalClient) gobreaker.SharedDataStore {
	return gobreakerredis.NewStoreFromClient(client)
}

// errBreakerFailure marks a response the classifier counted as a
// failure, so the breaker records it without hiding the response from
// the caller.
var errBreakerFailure = errors.New("breaker failure")

// breakerExecutor matches both the local and the distributed gobreaker.
type breakerExecutor interface {
	Execute(fn func() (*http.Response, error)) (*http.Response, error)
}

type breakerTransport struct {
	base       http.RoundTripper
	breaker    breakerExecutor
	classifier BreakerClassifier
	s          *settings
	name       string
}

func newBreakerTransport(base http.RoundTripper, s *settings) http.RoundTripper {
	if s.Breaker == nil {
		return base
	}

	cfg := *s.Breaker
	if cfg.Classifier == nil {
		cfg.Classifier = DefaultBreakerClassifier
	}

	name := s.ServiceName
	if name == "" {
		name = "httpclient"
	}

	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if cfg.FailureThreshold > 0 && counts.Requests < cfg.FailureThreshold {
				return false
			}
			if cfg.ConsecutiveFailures > 0 && counts.ConsecutiveFailures >= cfg.ConsecutiveFailures {
				return true
			}
			return cfg.FailureRatio > 0 && counts.TotalFailures > 0 &&
				float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		OnStateChange: cfg.OnStateChange,
	}

	var cb breakerExecutor
	if cfg.Store != nil {
		dcb, err := gobreaker.NewDistributedCircuitBreaker[*http.Response](cfg.Store, st)
		if err != nil {
			// A store that cannot initialize should not strip overload
			// protection entirely; fall back to a process-local breaker.
			cb = gobreaker.NewCircuitBreaker[*http.Response](st)
		} else {
			cb = dcb
		}
	} else {
		cb = gobreaker.NewCircuitBreaker[*http.Response](st)
	}

	return &breakerTransport{
		base:       base,
		breaker:    cb,
		classifier: cfg.Classifier,
		s:          s,
		name:       name,
	}
}

func (t *breakerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	resp, err := t.breaker.Execute(func() (*http.Response, error) {
		resp, err := t.base.RoundTrip(req)

		if t.classifier(resp, err) {
			if err == nil {
				return resp, errBreakerFailure
			}
			if resp != nil {
				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
			}
			return nil, err
		}

		return resp, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			t.s.metrics.recordBreaker(ctx, t.name, "rejected")
			return nil, err
		}

		t.s.metrics.recordBreaker(ctx, t.name, "failure")

		if errors.Is(err, errBreakerFailure) {
			// The failure was an HTTP status; the caller still gets the
			// response.
			return resp, nil
		}
		return nil, err
	}

	t.s.metrics.recordBreaker(ctx, t.name, "success")
	return resp, nil
}
