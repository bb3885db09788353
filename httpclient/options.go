package httpclient

import (
	"crypto/tls"
	"net/http"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// scope is the instrumentation scope for client spans and metrics.
const scope = "github.com/kroma-labs/beacon-go/httpclient"

// settings is the assembled configuration for one Client.
type settings struct {
	Config  Config
	BaseURL string
	Headers http.Header

	ServiceName string

	Retry           RetryConfig
	NewBackOff      func() backoff.BackOff
	RetryClassifier RetryClassifier

	Breaker *BreakerConfig

	Coalesce bool

	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
	Propagators    propagation.TextMapPropagator

	TLSConfig *tls.Config

	base http.RoundTripper

	tracer  trace.Tracer
	metrics *clientMetrics
}

func newSettings(opts ...Option) *settings {
	s := &settings{
		Config:         DefaultConfig(),
		Headers:        make(http.Header),
		Retry:          DefaultRetryConfig(),
		TracerProvider: otel.GetTracerProvider(),
		MeterProvider:  otel.GetMeterProvider(),
		Propagators: propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.tracer = s.TracerProvider.Tracer(scope)
	// A failed instrument build leaves metrics nil; the recording
	// methods tolerate that.
	s.metrics, _ = newClientMetrics(s.MeterProvider.Meter(scope))

	return s
}

// baseAttributes returns the attributes shared by all spans and metrics
// of this client.
func (s *settings) baseAttributes() []attribute.KeyValue {
	if s.ServiceName == "" {
		return nil
	}
	return []attribute.KeyValue{attribute.String("http.client.name", s.ServiceName)}
}

// Option configures a Client.
type Option func(*settings)

// WithBaseURL prefixes every request path with base.
func WithBaseURL(base string) Option {
	return func(s *settings) { s.BaseURL = base }
}

// WithServiceName names this client in spans and metrics, as the
// http.client.name attribute.
func WithServiceName(name string) Option {
	return func(s *settings) { s.ServiceName = name }
}

// WithConfig replaces the transport tuning.
func WithConfig(c Config) Option {
	return func(s *settings) { s.Config = c }
}

// WithHeader adds a header sent on every request. Request-level headers
// with the same name win.
func WithHeader(key, value string) Option {
	return func(s *settings) { s.Headers.Add(key, value) }
}

// WithRetry replaces the retry policy. Use NoRetryConfig to disable
// retries entirely.
func WithRetry(cfg RetryConfig) Option {
	return func(s *settings) { s.Retry = cfg }
}

// WithRetryBackOff overrides the wait strategy between attempts.
// newBackOff is called once per request so concurrent requests never
// share backoff state.
//
// Example:
//
//	httpclient.WithRetryBackOff(func() backoff.BackOff {
//	    return httpclient.NewDecorrelatedJitterBackOff()
//	})
func WithRetryBackOff(newBackOff func() backoff.BackOff) Option {
	return func(s *settings) { s.NewBackOff = newBackOff }
}

// WithRetryClassifier overrides which outcomes are retried.
func WithRetryClassifier(f RetryClassifier) Option {
	return func(s *settings) { s.RetryClassifier = f }
}

// WithBreaker enables the circuit breaker.
func WithBreaker(cfg BreakerConfig) Option {
	return func(s *settings) { s.Breaker = &cfg }
}

// WithCoalescing merges concurrent identical GET and HEAD requests into
// one upstream call.
func WithCoalescing() Option {
	return func(s *settings) { s.Coalesce = true }
}

// WithTransport replaces the pooled transport at the bottom of the
// chain. Retry, breaker, and tracing still wrap it.
func WithTransport(rt http.RoundTripper) Option {
	return func(s *settings) { s.base = rt }
}

// WithTLSConfig sets the TLS client configuration, for mTLS or custom
// roots.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(s *settings) { s.TLSConfig = cfg }
}

// WithTracerProvider overrides the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *settings) { s.TracerProvider = tp }
}

// WithMeterProvider overrides the global meter provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *settings) { s.MeterProvider = mp }
}

// WithPropagators overrides the default W3C trace context propagators.
func WithPropagators(p propagation.TextMapPropagator) Option {
	return func(s *settings) { s.Propagators = p }
}
