package httpclient

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/kroma-labs/beacon-go/requestlog"
)

var _ http.RoundTripper = (*traceTransport)(nil)

// traceTransport is the outermost transport: it stamps the request
// identity header, opens the client span, and injects trace context.
// Sitting above the retry transport means one span covers every attempt,
// with retries visible as span events.
type traceTransport struct {
	base http.RoundTripper
	s    *settings
}

func newTraceTransport(base http.RoundTripper, s *settings) http.RoundTripper {
	return &traceTransport{base: base, s: s}
}

func (t *traceTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	ctx, span := t.s.tracer.Start(req.Context(), "HTTP "+req.Method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(t.requestAttributes(req)...),
	)
	defer span.End()

	req = req.Clone(ctx)

	// Thread the inbound request identity to the downstream service.
	if id := requestlog.IDFromContext(ctx); id != "" && req.Header.Get(requestlog.Header) == "" {
		req.Header.Set(requestlog.Header, id)
	}

	t.s.Propagators.Inject(ctx, propagation.HeaderCarrier(req.Header))

	base := t.s.baseAttributes()
	t.s.metrics.addActive(ctx, 1, base)
	defer t.s.metrics.addActive(ctx, -1, base)

	resp, err := t.base.RoundTrip(req)
	elapsed := time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		t.s.metrics.recordDuration(ctx, elapsed, append(t.s.baseAttributes(),
			attribute.String("http.request.method", req.Method),
			attribute.String("error.type", errorType(err)),
		))
		return nil, err
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if resp.StatusCode >= 400 {
		span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", resp.StatusCode))
	}

	t.s.metrics.recordDuration(ctx, elapsed, t.resultAttributes(req, resp))

	return resp, nil
}

func (t *traceTransport) requestAttributes(req *http.Request) []attribute.KeyValue {
	attrs := append(t.s.baseAttributes(),
		attribute.String("http.request.method", req.Method),
	)

	if u := req.URL; u != nil {
		attrs = append(attrs,
			attribute.String("url.full", u.String()),
			attribute.String("url.scheme", u.Scheme),
		)
		if host := u.Hostname(); host != "" {
			attrs = append(attrs, attribute.String("server.address", host))
		}
		if port := serverPort(u); port > 0 {
			attrs = append(attrs, attribute.Int("server.port", port))
		}
	}

	if id := requestlog.IDFromContext(req.Context()); id != "" {
		attrs = append(attrs, attribute.String("request.id", id))
	}

	if req.ContentLength > 0 {
		attrs = append(attrs, attribute.Int64("http.request.body.size", req.ContentLength))
	}

	return attrs
}

func (t *traceTransport) resultAttributes(req *http.Request, resp *http.Response) []attribute.KeyValue {
	attrs := append(t.s.baseAttributes(),
		attribute.String("http.request.method", req.Method),
		attribute.Int("http.response.status_code", resp.StatusCode),
	)

	if req.URL != nil {
		if host := req.URL.Hostname(); host != "" {
			attrs = append(attrs, attribute.String("server.address", host))
		}
	}

	return attrs
}

func serverPort(u *url.URL) int {
	if p := u.Port(); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0
		}
		return n
	}

	switch u.Scheme {
	case "http":
		return 80
	case "https":
		return 443
	}
	return 0
}
