package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"
	"golang.org/x/sync/singleflight"
)

// Client is an outbound HTTP client built for service-to-service calls:
// the inbound request identity rides along on every call, and retries,
// circuit breaking, and tracing live in the transport where they cover
// raw *http.Client usage too.
type Client struct {
	http     *http.Client
	baseURL  string
	headers  http.Header
	coalesce bool
	group    singleflight.Group
}

// New builds a Client. The transport chain is, outermost first: tracing,
// circuit breaker, retry, connection pool.
func New(opts ...Option) *Client {
	s := newSettings(opts...)

	rt := s.base
	if rt == nil {
		rt = s.Config.transport(s.TLSConfig)
	}
	rt = newRetryTransport(rt, s)
	rt = newBreakerTransport(rt, s)
	rt = newTraceTransport(rt, s)

	return &Client{
		http:     &http.Client{Transport: rt, Timeout: s.Config.Timeout},
		baseURL:  strings.TrimRight(s.BaseURL, "/"),
		headers:  s.Headers,
		coalesce: s.Coalesce,
	}
}

// HTTP returns the underlying *http.Client for callers that need to
// hand it to libraries expecting one. Requests made through it still go
// through the full transport chain.
func (c *Client) HTTP() *http.Client {
	return c.http
}

// Get issues a GET for path and buffers the response.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.call(ctx, http.MethodGet, path, nil)
}

// Head issues a HEAD for path.
func (c *Client) Head(ctx context.Context, path string) (*Response, error) {
	return c.call(ctx, http.MethodHead, path, nil)
}

// Delete issues a DELETE for path.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.call(ctx, http.MethodDelete, path, nil)
}

// Post issues a POST with body encoded per encodeBody.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.call(ctx, http.MethodPost, path, body)
}

// Put issues a PUT with body encoded per encodeBody.
func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.call(ctx, http.MethodPut, path, body)
}

// Patch issues a PATCH with body encoded per encodeBody.
func (c *Client) Patch(ctx context.Context, path string, body any) (*Response, error) {
	return c.call(ctx, http.MethodPatch, path, body)
}

// Do executes a prepared request through the transport chain and
// buffers the response body.
func (c *Client) Do(req *http.Request) (*Response, error) {
	return c.do(req, nil)
}

func (c *Client) call(ctx context.Context, method, path string, body any) (*Response, error) {
	payload, contentType, err := encodeBody(body)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), reader)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	return c.do(req, payload)
}

func (c *Client) do(req *http.Request, payload []byte) (*Response, error) {
	for key, values := range c.headers {
		if req.Header.Get(key) == "" {
			for _, v := range values {
				req.Header.Add(key, v)
			}
		}
	}

	if c.coalesce && coalescable(req.Method) {
		return c.doCoalesced(req, payload)
	}
	return c.execute(req)
}

func (c *Client) execute(req *http.Request) (*Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	return buffer(resp)
}

func (c *Client) doCoalesced(req *http.Request, payload []byte) (*Response, error) {
	key := CoalesceKey(req.Method, req.URL.String(), payload)

	v, err, shared := c.group.Do(key, func() (any, error) {
		return c.execute(req)
	})
	if err != nil {
		return nil, err
	}

	resp := v.(*Response)
	if shared {
		// Every sharing caller gets its own body reader over the one
		// buffer.
		resp = resp.clone()
	}
	return resp, nil
}

func coalescable(method string) bool {
	return method == http.MethodGet || method == http.MethodHead
}

func (c *Client) url(path string) string {
	if c.baseURL == "" ||
		strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

// encodeBody turns a call-level body into wire bytes. Raw bytes and
// strings pass through untouched, io.Readers are drained, anything else
// is marshaled as JSON.
func encodeBody(body any) ([]byte, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case []byte:
		return b, "", nil
	case string:
		return []byte(b), "", nil
	case io.Reader:
		data, err := io.ReadAll(b)
		if err != nil {
			return nil, "", fmt.Errorf("read request body: %w", err)
		}
		return data, "", nil
	default:
		data, err := json.Marshal(body)
		if err != nil {
			return nil, "", fmt.Errorf("marshal request body: %w", err)
		}
		return data, "application/json", nil
	}
}
