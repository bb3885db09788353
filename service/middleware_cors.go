package service

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig configures the CORS middleware.
type CORSConfig struct {
	// AllowedOrigins lists allowed origins. "*" allows all origins.
	AllowedOrigins []string

	// AllowedMethods lists allowed HTTP methods.
	AllowedMethods []string

	// AllowedHeaders lists headers allowed in requests.
	AllowedHeaders []string

	// ExposedHeaders lists headers exposed to the client.
	ExposedHeaders []string

	// AllowCredentials permits cookies and auth headers cross-origin.
	AllowCredentials bool

	// MaxAge is the preflight cache lifetime in seconds.
	MaxAge int
}

// DefaultCORSConfig returns a permissive configuration suitable for
// development. Pin AllowedOrigins to your domains in production.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
			http.MethodHead,
			http.MethodPatch,
		},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Request-ID",
			"X-Requested-With",
		},
		ExposedHeaders: []string{
			"X-Request-ID",
			"ETag",
		},
		AllowCredentials: false,
		MaxAge:           86400, // 24 hours
	}
}

// corsPolicy is a CORSConfig compiled for per-request use.
type corsPolicy struct {
	allowAll      bool
	origins       map[string]struct{}
	methods       string
	headers       string
	expose        string
	credentials   bool
	maxAge        string
	exposeHeaders bool
}

func compileCORS(cfg CORSConfig) *corsPolicy {
	p := &corsPolicy{
		origins:       make(map[string]struct{}, len(cfg.AllowedOrigins)),
		methods:       strings.Join(cfg.AllowedMethods, ", "),
		headers:       strings.Join(cfg.AllowedHeaders, ", "),
		expose:        strings.Join(cfg.ExposedHeaders, ", "),
		credentials:   cfg.AllowCredentials,
		maxAge:        strconv.Itoa(cfg.MaxAge),
		exposeHeaders: len(cfg.ExposedHeaders) > 0,
	}
	for _, origin := range cfg.AllowedOrigins {
		if origin == "*" {
			p.allowAll = true
		}
		p.origins[origin] = struct{}{}
	}
	return p
}

func (p *corsPolicy) allows(origin string) bool {
	if p.allowAll {
		return true
	}
	_, ok := p.origins[origin]
	return ok
}

// CORS returns middleware handling Cross-Origin Resource Sharing,
// answering preflight requests with 204.
func CORS(cfg CORSConfig) Middleware {
	policy := compileCORS(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin := r.Header.Get("Origin"); origin != "" && policy.allows(origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
			}

			if policy.credentials {
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
			if policy.exposeHeaders {
				w.Header().Set("Access-Control-Expose-Headers", policy.expose)
			}

			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", policy.methods)
				w.Header().Set("Access-Control-Allow-Headers", policy.headers)
				w.Header().Set("Access-Control-Max-Age", policy.maxAge)
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
