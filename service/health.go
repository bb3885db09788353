package service

import (
	"context"
	"net/http"
	"sync"
	"time"

	json "github.com/goccy/go-json"
)

// HealthCheck probes one dependency. Return nil when healthy, or an
// error describing the problem.
//
// Example:
//
//	svc.AddHealthCheck("postgres", func(ctx context.Context) error {
//	    return db.PingContext(ctx)
//	})
type HealthCheck func(ctx context.Context) error

// healthBody is the health endpoint wire shape. With no checks and no
// version configured it is exactly {"statusCode":200,"healthy":true}.
type healthBody struct {
	StatusCode int               `json:"statusCode"`
	Healthy    bool              `json:"healthy"`
	Version    string            `json:"version,omitempty"`
	Checks     map[string]string `json:"checks,omitempty"`
}

// Health serves the health endpoint: 200 with healthy=true when every
// registered check passes, 503 with healthy=false otherwise. With no
// checks registered it reports healthy unconditionally.
type Health struct {
	version string

	mu     sync.RWMutex
	checks map[string]HealthCheck
}

// NewHealth builds a Health. version may be empty.
func NewHealth(version string) *Health {
	return &Health{
		version: version,
		checks:  make(map[string]HealthCheck),
	}
}

// Add registers a named dependency check. Re-adding a name replaces
// the previous check.
func (h *Health) Add(name string, check HealthCheck) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

// Handler returns the health endpoint handler.
func (h *Health) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		body := h.evaluate(ctx)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(body.StatusCode)
		_ = json.NewEncoder(w).Encode(body)
	})
}

func (h *Health) evaluate(ctx context.Context) healthBody {
	h.mu.RLock()
	checks := make(map[string]HealthCheck, len(h.checks))
	for name, check := range h.checks {
		checks[name] = check
	}
	h.mu.RUnlock()

	body := healthBody{
		StatusCode: http.StatusOK,
		Healthy:    true,
		Version:    h.version,
	}

	if len(checks) == 0 {
		return body
	}

	body.Checks = make(map[string]string, len(checks))
	for name, check := range checks {
		if err := check(ctx); err != nil {
			body.Checks[name] = err.Error()
			body.Healthy = false
			body.StatusCode = http.StatusServiceUnavailable
			continue
		}
		body.Checks[name] = "ok"
	}

	return body
}
