package service

import "net/http"

// Middleware is a function that wraps an http.Handler.
//
// Middleware compose with Chain() into a processing pipeline; the
// facade installs its own stack (logging, recovery, limits) and
// appends user middleware after it.
type Middleware func(http.Handler) http.Handler

// Chain composes middlewares into one. They apply in the order given:
// the first middleware is outermost, running first on the way in and
// last on the way out.
//
// Example:
//
//	handler := service.Chain(
//	    service.Recovery(log),
//	    service.Timeout(5*time.Second),
//	)(myHandler)
func Chain(middlewares ...Middleware) Middleware {
	return func(next http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}
