// Package service assembles an HTTP service from the building blocks
// in this module: a chi router wrapped in the request lifecycle
// logging stack, translation-aware handler registration, a health
// endpoint, and a server with graceful shutdown.
//
// # Quick Start
//
//	svc, err := service.New(service.DefaultConfig(),
//	    service.WithName("orders"),
//	    service.WithAddr(":8080"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	svc.Route("/orders", func(r chi.Router) {
//	    r.Method(http.MethodGet, "/{id}", service.Handler(getOrder))
//	})
//
//	if err := svc.Run(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//
// Handlers return a value and an error; translation turns them into
// the response envelope, and the middleware stack records the
// lifecycle:
//
//	func getOrder(r *http.Request) (any, error) {
//	    id := chi.URLParam(r, "id")
//	    order, err := store.Get(r.Context(), id)
//	    if err != nil {
//	        return nil, err // translated to an HTTP error shape
//	    }
//	    return order, nil
//	}
//
// # Middleware
//
// New installs tracing, metrics, lifecycle logging, panic recovery,
// CORS, rate limiting, and the request timeout, in that order, each
// only when configured. Application middleware from WithMiddleware
// runs after the built-in stack. Middleware composes with Chain for
// use outside the facade.
//
// # Operational Endpoints
//
// The health endpoint aggregates registered dependency checks and is
// mounted at HealthPath. WithPrometheus exposes the scrape endpoint,
// and WithPprof mounts the profiling handlers, optionally behind
// basic auth.
package service
