package service

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kroma-labs/beacon-go/reply"
	"github.com/kroma-labs/beacon-go/requestlog"
)

// Service is the facade: a chi router under the lifecycle logging
// stack, with health, translation-aware handler registration, and a
// graceful server.
//
//	svc, err := service.New(service.DefaultConfig(),
//	    service.WithName("orders"),
//	)
//	if err != nil {
//	    ...
//	}
//	defer svc.Close()
//
//	svc.Route("/orders", func(r chi.Router) {
//	    r.Method(http.MethodGet, "/{id}", service.Handler(getOrder))
//	})
//
//	err = svc.Run(ctx)
type Service struct {
	cfg    Config
	log    *requestlog.Logger
	root   chi.Router
	routes chi.Router
	health *Health

	// gc is set when the facade owns the default runtime watcher.
	gc *requestlog.GCWatcher
}

// New builds the facade from cfg with opts applied on top.
func New(cfg Config, opts ...Option) (*Service, error) {
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Name == "" {
		cfg.Name = "service"
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.HealthPath == "" {
		cfg.HealthPath = "/health"
	}

	s := &Service{cfg: cfg}

	gcStats := cfg.GCStats
	if gcStats == nil && !cfg.DisableGCStats {
		s.gc = requestlog.NewGCWatcher(0)
		gcStats = s.gc
	}

	s.log = requestlog.New(requestlog.Config{
		Name:                cfg.Name,
		Process:             cfg.Process,
		Level:               cfg.Level,
		Writer:              cfg.LogWriter,
		LagProbeInterval:    cfg.LagProbeInterval,
		UnresponsiveTimeout: cfg.UnresponsiveTimeout,
		GCStats:             gcStats,
		SkipPaths:           cfg.SkipLogPaths,
	})

	router := chi.NewRouter()

	if cfg.Tracing != nil {
		tracing := *cfg.Tracing
		if tracing.ServiceName == "" {
			tracing.ServiceName = cfg.Name
		}
		router.Use(Tracing(tracing))
	}
	if cfg.Metrics != nil {
		metricsCfg := *cfg.Metrics
		if metricsCfg.ServiceName == "" {
			metricsCfg.ServiceName = cfg.Name
		}
		metrics, err := Metrics(metricsCfg)
		if err != nil {
			s.close()
			return nil, err
		}
		router.Use(metrics)
	}

	router.Use(s.log.Middleware())
	router.Use(Recovery(s.log))

	if cfg.CORS != nil {
		router.Use(CORS(*cfg.CORS))
	}
	if cfg.RateLimit != nil {
		router.Use(RateLimit(*cfg.RateLimit))
	}
	if cfg.RequestTimeout > 0 {
		router.Use(Timeout(cfg.RequestTimeout))
	}
	for _, m := range cfg.Middleware {
		router.Use(m)
	}

	s.health = NewHealth(cfg.Version)
	router.Get(cfg.HealthPath, s.health.Handler().ServeHTTP)

	if cfg.MetricsPath != "" {
		router.Method(http.MethodGet, cfg.MetricsPath, PrometheusHandler())
	}
	if cfg.Pprof != nil {
		pprofCfg := *cfg.Pprof
		if pprofCfg.Prefix == "" {
			pprofCfg.Prefix = "/debug/pprof"
		}
		router.Handle(pprofCfg.Prefix+"/*", PprofHandler(pprofCfg))
	}

	s.routes = router
	if cfg.BasePath != "" && cfg.BasePath != "/" {
		root := chi.NewRouter()
		root.Mount(cfg.BasePath, router)
		s.root = root
	} else {
		s.root = router
	}

	return s, nil
}

// Route registers routes under prefix, relative to BasePath.
func (s *Service) Route(prefix string, fn func(r chi.Router)) {
	s.routes.Route(prefix, fn)
}

// Mount attaches a plain http.Handler subtree under prefix.
func (s *Service) Mount(prefix string, h http.Handler) {
	s.routes.Mount(prefix, h)
}

// AddHealthCheck registers a named dependency check on the health
// endpoint.
func (s *Service) AddHealthCheck(name string, check HealthCheck) {
	s.health.Add(name, check)
}

// Log returns the lifecycle logger for out-of-request logging and for
// handing to outbound clients.
func (s *Service) Log() *requestlog.Logger {
	return s.log
}

// Router returns the route registrar, for cases the Route/Mount
// helpers do not cover.
func (s *Service) Router() chi.Router {
	return s.routes
}

// ServeHTTP serves one request through the full middleware stack.
func (s *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.root.ServeHTTP(w, r)
}

// Close releases the logger and the owned GC watcher. Run calls it on
// the way out; call it directly when the service never ran.
func (s *Service) Close() {
	s.close()
}

func (s *Service) close() {
	if s.log != nil {
		s.log.Close()
	}
	if s.gc != nil {
		s.gc.Stop()
	}
}

// HandlerFunc produces a response value, or an error to be translated
// into an HTTP error shape. Returning (nil, nil) renders the generic
// not-found outcome.
type HandlerFunc func(r *http.Request) (any, error)

// Handler adapts fn into an http.Handler: the returned value and error
// run through translation and the outcome is written and recorded.
// A *reply.Outcome returned as the value (redirects, pre-built
// responses) is written as-is.
func Handler(fn HandlerFunc) http.Handler {
	return CachedHandler(fn, "")
}

// CachedHandler is Handler with a Cache-Control directive applied to
// success responses.
func CachedHandler(fn HandlerFunc, cacheControl string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := fn(r)

		if o, ok := data.(*reply.Outcome); ok && err == nil {
			reply.Write(w, r, o)
			return
		}

		o, terr := reply.Translate(err, data, cacheControl)
		if terr != nil {
			// Serialization failure is fatal for the request; report
			// it instead of the unserializable payload.
			if rc := requestlog.FromRequest(r); rc != nil && rc.Log != nil {
				rc.Log.Error().Err(terr).Msg("response serialization failed")
			}
			o, _ = reply.Translate(reply.Wrap(terr, http.StatusInternalServerError), nil, "")
		}
		reply.Write(w, r, o)
	})
}
