// Package httpclient is the outbound counterpart of the service kit: an
// HTTP client that threads the inbound request identity to downstream
// services and layers retries, circuit breaking, and request coalescing
// over an instrumented transport.
//
// # Quick Start
//
//	client := httpclient.New(
//	    httpclient.WithBaseURL("https://billing.internal"),
//	    httpclient.WithServiceName("orders"),
//	)
//
//	resp, err := client.Get(ctx, "/invoices/42")
//	if err != nil {
//	    return err
//	}
//
//	var invoice Invoice
//	if err := resp.JSON(&invoice); err != nil {
//	    return err
//	}
//
// Responses come back fully buffered: the body is drained and closed
// before the call returns and can be re-read any number of times.
//
// # Request Identity
//
// When ctx carries a request identity (attached by the requestlog
// middleware), the transport stamps it on the outgoing X-Request-ID
// header, so one id follows a request across service hops.
//
// # Resilience
//
// Transient failures are retried with exponential backoff and jitter by
// default; LinearBackOff and DecorrelatedJitterBackOff are drop-in
// alternatives. A circuit breaker, local or shared through Redis, stops
// calls to an upstream that keeps failing:
//
//	client := httpclient.New(
//	    httpclient.WithBaseURL("https://billing.internal"),
//	    httpclient.WithRetry(httpclient.ConservativeRetryConfig()),
//	    httpclient.WithBreaker(httpclient.DefaultBreakerConfig()),
//	)
//
// WithCoalescing merges concurrent identical GETs into a single
// upstream call whose buffered response every caller shares.
//
// # Telemetry
//
// Every request opens a client span carrying the canonical HTTP
// attributes and the request id, injects W3C trace context, and records
// duration, in-flight, retry, and breaker metrics through the global
// OpenTelemetry providers, or the ones supplied with WithTracerProvider
// and WithMeterProvider.
package httpclient
