package service

import (
	"crypto/subtle"
	"net/http"
	"net/http/pprof"
	"strings"
)

// PprofConfig configures the runtime profiling endpoints.
type PprofConfig struct {
	// Prefix is the mount path. Default: "/debug/pprof".
	Prefix string

	// Username and Password enable HTTP basic auth when both are set.
	// Profiles expose internals; never mount this unauthenticated on a
	// public listener.
	Username string
	Password string
}

// PprofHandler serves the net/http/pprof endpoints under cfg.Prefix.
func PprofHandler(cfg PprofConfig) http.Handler {
	if cfg.Prefix == "" {
		cfg.Prefix = "/debug/pprof"
	}

	mux := http.NewServeMux()
	mux.HandleFunc(cfg.Prefix+"/", pprof.Index)
	mux.HandleFunc(cfg.Prefix+"/cmdline", pprof.Cmdline)
	mux.HandleFunc(cfg.Prefix+"/profile", pprof.Profile)
	mux.HandleFunc(cfg.Prefix+"/symbol", pprof.Symbol)
	mux.HandleFunc(cfg.Prefix+"/trace", pprof.Trace)

	var handler http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// pprof.Index dispatches named profiles itself, but only when
		// mounted at its canonical path. Route them explicitly here.
		name := strings.TrimPrefix(r.URL.Path, cfg.Prefix+"/")
		switch name {
		case "", "cmdline", "profile", "symbol", "trace":
			mux.ServeHTTP(w, r)
		default:
			pprof.Handler(name).ServeHTTP(w, r)
		}
	})

	if cfg.Username != "" && cfg.Password != "" {
		handler = basicAuth(handler, cfg.Username, cfg.Password)
	}
	return handler
}

func basicAuth(next http.Handler, username, password string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(username)) == 1
		passMatch := subtle.ConstantTimeCompare([]byte(pass), []byte(password)) == 1
		if !ok || !userMatch || !passMatch {
			w.Header().Set("WWW-Authenticate", `Basic realm="pprof"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
