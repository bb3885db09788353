package httpclient

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	json "github.com/goccy/go-json"
)

// Response is a fully buffered HTTP response. The network body is
// drained and closed before Response is returned, so callers never have
// to remember Close, and coalesced callers can each re-read it.
type Response struct {
	*http.Response

	body []byte
}

// buffer drains resp's body into memory.
func buffer(resp *http.Response) (*Response, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))

	return &Response{Response: resp, body: body}, nil
}

// clone returns an independent view of the same buffered response.
func (r *Response) clone() *Response {
	inner := *r.Response
	inner.Body = io.NopCloser(bytes.NewReader(r.body))
	return &Response{Response: &inner, body: r.body}
}

// Bytes returns the buffered body.
func (r *Response) Bytes() []byte {
	return r.body
}

// String returns the buffered body as a string.
func (r *Response) String() string {
	return string(r.body)
}

// JSON unmarshals the buffered body into v.
func (r *Response) JSON(v any) error {
	return json.Unmarshal(r.body, v)
}

// IsSuccess reports whether the status code is in the 2xx range.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsError reports whether the status code is 400 or above.
func (r *Response) IsError() bool {
	return r.StatusCode >= 400
}
