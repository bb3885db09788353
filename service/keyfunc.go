package service

import "net/http"

// KeyFunc extracts a rate limiting key from a request. Requests with
// the same key share one token bucket; a nil KeyFunc means one global
// bucket for everything.
type KeyFunc func(r *http.Request) string

// KeyByIP groups requests by client IP: the X-Forwarded-For header
// when present (reverse proxy setups), RemoteAddr otherwise.
func KeyByIP() KeyFunc {
	return func(r *http.Request) string {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			return xff
		}
		return r.RemoteAddr
	}
}

// KeyByPath groups requests by URL path, limiting each endpoint across
// all clients combined.
func KeyByPath() KeyFunc {
	return func(r *http.Request) string {
		return r.URL.Path
	}
}

// KeyByIPAndPath groups requests by client IP and path, the most
// granular built-in split.
func KeyByIPAndPath() KeyFunc {
	return func(r *http.Request) string {
		ip := r.RemoteAddr
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			ip = xff
		}
		return ip + ":" + r.URL.Path
	}
}

// KeyByHeader groups requests by a header value, such as a tenant id
// or API key. Requests missing the header share one bucket.
func KeyByHeader(header string) KeyFunc {
	return func(r *http.Request) string {
		return r.Header.Get(header)
	}
}
