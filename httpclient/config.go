package httpclient

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

// Config tunes the connection pool and per-phase timeouts of the
// underlying transport. Start from DefaultConfig and adjust fields.
type Config struct {
	// Timeout bounds the whole request: dial, TLS handshake, writing the
	// request, and reading the full response body. Zero means no limit.
	Timeout time.Duration

	// MaxIdleConns caps idle keep-alive connections across all hosts.
	MaxIdleConns int

	// MaxIdleConnsPerHost caps idle connections kept per host. For
	// clients that mostly talk to one downstream, raise this toward
	// MaxIdleConns.
	MaxIdleConnsPerHost int

	// MaxConnsPerHost caps total connections per host, idle and active.
	// Zero means unlimited.
	MaxConnsPerHost int

	// IdleConnTimeout closes idle connections after this long in the
	// pool. Keep it below the downstream's own idle timeout.
	IdleConnTimeout time.Duration

	// TLSHandshakeTimeout bounds the TLS handshake.
	TLSHandshakeTimeout time.Duration

	// ExpectContinueTimeout bounds the wait for a 100 Continue when the
	// Expect header is sent.
	ExpectContinueTimeout time.Duration

	// ResponseHeaderTimeout bounds the wait for response headers after
	// the request is fully written. Zero falls back to Timeout.
	ResponseHeaderTimeout time.Duration

	// DialTimeout bounds TCP connection establishment.
	DialTimeout time.Duration

	// KeepAlive is the TCP keep-alive probe interval.
	KeepAlive time.Duration

	// DisableKeepAlives forces a fresh connection per request. Almost
	// never wanted outside debugging.
	DisableKeepAlives bool

	// DisableCompression skips the automatic Accept-Encoding: gzip
	// request header. On by default; not every downstream handles
	// compressed responses well.
	DisableCompression bool

	// ForceHTTP2 attempts HTTP/2 via ALPN even with a custom TLS config.
	ForceHTTP2 bool
}

// DefaultConfig returns balanced settings for service-to-service calls.
func DefaultConfig() Config {
	return Config{
		Timeout:               15 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   20,
		MaxConnsPerHost:       100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
		DialTimeout:           5 * time.Second,
		KeepAlive:             30 * time.Second,
		DisableCompression:    true,
	}
}

// LowLatencyConfig returns settings that fail fast: tight dial and
// header timeouts for latency-sensitive callers.
func LowLatencyConfig() Config {
	return Config{
		Timeout:               5 * time.Second,
		MaxIdleConns:          50,
		MaxIdleConnsPerHost:   25,
		MaxConnsPerHost:       50,
		IdleConnTimeout:       60 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 500 * time.Millisecond,
		ResponseHeaderTimeout: 3 * time.Second,
		DialTimeout:           2 * time.Second,
		KeepAlive:             15 * time.Second,
		DisableCompression:    true,
		ForceHTTP2:            true,
	}
}

// ConservativeConfig returns settings with a small footprint for
// constrained environments or processes holding many clients.
func ConservativeConfig() Config {
	return Config{
		Timeout:               10 * time.Second,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   5,
		MaxConnsPerHost:       20,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
		DialTimeout:           5 * time.Second,
		KeepAlive:             30 * time.Second,
		DisableCompression:    true,
	}
}

// transport builds the pooled http.Transport these settings describe.
func (c Config) transport(tlsCfg *tls.Config) *http.Transport {
	dialer := &net.Dialer{
		Timeout:   c.DialTimeout,
		KeepAlive: c.KeepAlive,
	}

	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConns:          c.MaxIdleConns,
		MaxIdleConnsPerHost:   c.MaxIdleConnsPerHost,
		MaxConnsPerHost:       c.MaxConnsPerHost,
		IdleConnTimeout:       c.IdleConnTimeout,
		TLSHandshakeTimeout:   c.TLSHandshakeTimeout,
		ResponseHeaderTimeout: c.ResponseHeaderTimeout,
		ExpectContinueTimeout: c.ExpectContinueTimeout,
		DisableKeepAlives:     c.DisableKeepAlives,
		DisableCompression:    c.DisableCompression,
		TLSClientConfig:       tlsCfg,
		ForceAttemptHTTP2:     c.ForceHTTP2,
	}
}
