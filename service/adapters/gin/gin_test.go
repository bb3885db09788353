package gin_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	ginlib "github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kroma-labs/beacon-go/requestlog"
	"github.com/kroma-labs/beacon-go/service"
	ginbeacon "github.com/kroma-labs/beacon-go/service/adapters/gin"
)

func init() {
	ginlib.SetMode(ginlib.TestMode)
}

func newTestLogger(t *testing.T) *requestlog.Logger {
	t.Helper()

	cfg := requestlog.DefaultConfig()
	cfg.Writer = io.Discard
	l := requestlog.New(cfg)
	t.Cleanup(l.Close)
	return l
}

func TestWrapMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("given middleware, when wrapped, then works with Gin", func(t *testing.T) {
		r := ginlib.New()

		middleware := func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				w.Header().Set("X-Custom", "test-value")
				next.ServeHTTP(w, req)
			})
		}

		r.Use(ginbeacon.WrapMiddleware(middleware))
		r.GET("/test", func(c *ginlib.Context) {
			c.String(http.StatusOK, "hello")
		})

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "test-value", rec.Header().Get("X-Custom"))
		assert.Equal(t, "hello", rec.Body.String())
	})

	t.Run("given request mutated by middleware, then handler sees it", func(t *testing.T) {
		r := ginlib.New()

		middleware := func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				req.Header.Set("X-Injected", "from-middleware")
				next.ServeHTTP(w, req)
			})
		}

		r.Use(ginbeacon.WrapMiddleware(middleware))
		r.GET("/test", func(c *ginlib.Context) {
			c.String(http.StatusOK, c.GetHeader("X-Injected"))
		})

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, "from-middleware", rec.Body.String())
	})
}

func TestLifecycle(t *testing.T) {
	t.Parallel()

	t.Run("given no request id, when applied, then stamps a generated id", func(t *testing.T) {
		r := ginlib.New()
		r.Use(ginbeacon.Lifecycle(newTestLogger(t)))
		r.GET("/test", func(c *ginlib.Context) {
			c.String(http.StatusOK, "ok")
		})

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	})

	t.Run("given an inbound request id, when applied, then threads it", func(t *testing.T) {
		r := ginlib.New()
		r.Use(ginbeacon.Lifecycle(newTestLogger(t)))
		r.GET("/test", func(c *ginlib.Context) {
			c.String(http.StatusOK, requestlog.IDFromContext(c.Request.Context()))
		})

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("X-Request-ID", "existing-id-123")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, "existing-id-123", rec.Header().Get("X-Request-ID"))
		assert.Equal(t, "existing-id-123", rec.Body.String())
	})
}

func TestRecovery(t *testing.T) {
	t.Parallel()

	t.Run("given handler panics, when applied, then returns 503", func(t *testing.T) {
		r := ginlib.New()
		r.Use(ginbeacon.Recovery(newTestLogger(t)))
		r.GET("/panic", func(_ *ginlib.Context) {
			panic("test panic")
		})

		req := httptest.NewRequest(http.MethodGet, "/panic", nil)
		rec := httptest.NewRecorder()

		assert.NotPanics(t, func() {
			r.ServeHTTP(rec, req)
		})
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestCORS(t *testing.T) {
	t.Parallel()

	t.Run("given preflight request, when applied, then returns CORS headers", func(t *testing.T) {
		r := ginlib.New()
		r.Use(ginbeacon.CORS(service.DefaultCORSConfig()))
		r.GET("/test", func(c *ginlib.Context) {
			c.String(http.StatusOK, "ok")
		})

		req := httptest.NewRequest(http.MethodOptions, "/test", nil)
		req.Header.Set("Origin", "https://example.com")
		req.Header.Set("Access-Control-Request-Method", "GET")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, "https://example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestTimeout(t *testing.T) {
	t.Parallel()

	t.Run("given a fast handler, when applied, then passes through", func(t *testing.T) {
		r := ginlib.New()
		r.Use(ginbeacon.Timeout(5 * time.Second))
		r.GET("/test", func(c *ginlib.Context) {
			c.String(http.StatusOK, "ok")
		})

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	t.Run("given rate limit exceeded, when applied, then returns 429", func(t *testing.T) {
		r := ginlib.New()
		r.Use(ginbeacon.RateLimit(service.RateLimitConfig{
			Limit: 1,
			Burst: 1,
		}))
		r.GET("/test", func(c *ginlib.Context) {
			c.String(http.StatusOK, "ok")
		})

		req1 := httptest.NewRequest(http.MethodGet, "/test", nil)
		rec1 := httptest.NewRecorder()
		r.ServeHTTP(rec1, req1)
		assert.Equal(t, http.StatusOK, rec1.Code)

		req2 := httptest.NewRequest(http.MethodGet, "/test", nil)
		rec2 := httptest.NewRecorder()
		r.ServeHTTP(rec2, req2)
		assert.Equal(t, http.StatusTooManyRequests, rec2.Code)
	})
}

func TestWrapHandler(t *testing.T) {
	t.Parallel()

	t.Run("given an http.Handler, when wrapped, then Gin serves it", func(t *testing.T) {
		r := ginlib.New()
		r.GET("/plain", ginbeacon.WrapHandler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusAccepted)
			_, _ = w.Write([]byte("plain"))
		})))

		req := httptest.NewRequest(http.MethodGet, "/plain", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusAccepted, rec.Code)
		assert.Equal(t, "plain", rec.Body.String())
	})
}

func TestRegisterHealth(t *testing.T) {
	t.Parallel()

	t.Run("given a health endpoint, when registered, then it serves", func(t *testing.T) {
		r := ginlib.New()
		ginbeacon.RegisterHealth(r, "/health", service.NewHealth("1.0.0"))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"statusCode":200,"healthy":true,"version":"1.0.0"}`, rec.Body.String())
	})
}

func TestRegisterPprof(t *testing.T) {
	t.Parallel()

	t.Run("given pprof registered, then the index serves", func(t *testing.T) {
		r := ginlib.New()
		ginbeacon.RegisterPprof(r, service.PprofConfig{})

		req := httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
