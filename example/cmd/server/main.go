package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/kroma-labs/beacon-go/httpclient"
	"github.com/kroma-labs/beacon-go/reply"
	"github.com/kroma-labs/beacon-go/service"

	"github.com/kroma-labs/beacon-go/example/internal/config"
	"github.com/kroma-labs/beacon-go/example/internal/store"
)

type createOrderRequest struct {
	SKU string `json:"sku"`
	Qty int    `json:"qty"`
}

type priceQuote struct {
	Unit     float64 `json:"unit"`
	Currency string  `json:"currency"`
}

type orderQuote struct {
	Order    store.Order `json:"order"`
	Unit     float64     `json:"unit"`
	Currency string      `json:"currency"`
	Total    float64     `json:"total"`
}

func main() {
	ctx := context.Background()

	cfg := service.DefaultConfig()
	cfg.Addr = config.Addr
	cfg.Version = config.Version
	cfg.Level = zerolog.TraceLevel // statement logs are trace level
	cfg.MetricsPath = "/metrics"
	cfg.RequestTimeout = 10 * time.Second
	cfg.Pprof = &service.PprofConfig{}

	svc, err := service.New(cfg, service.WithName(config.ServiceName))
	if err != nil {
		log.Fatalf("build service: %v", err)
	}
	defer svc.Close()

	st, err := store.Open(ctx, config.DSN, svc.Log().Base())
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer st.Close()

	if err := st.EnsureSchema(ctx); err != nil {
		svc.Log().Error("ensure schema", err)
	}
	svc.AddHealthCheck("postgres", st.Ping)

	pricing := httpclient.New(
		httpclient.WithBaseURL(config.PricingBaseURL),
		httpclient.WithServiceName("pricing"),
		httpclient.WithConfig(httpclient.LowLatencyConfig()),
		httpclient.WithRetry(httpclient.DefaultRetryConfig()),
		httpclient.WithBreaker(httpclient.DefaultBreakerConfig()),
		httpclient.WithCoalescing(),
	)

	svc.Route("/orders", func(r chi.Router) {
		r.Method(http.MethodGet, "/", service.Handler(func(r *http.Request) (any, error) {
			return st.List(r.Context(), 50)
		}))

		r.Method(http.MethodPost, "/", service.Handler(func(r *http.Request) (any, error) {
			var req createOrderRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				return nil, reply.BadRequest("malformed body")
			}
			if req.SKU == "" || req.Qty <= 0 {
				return nil, reply.BadRequest("sku and a positive qty are required")
			}
			return st.Create(r.Context(), req.SKU, req.Qty)
		}))

		r.Method(http.MethodGet, "/{id}", service.Handler(func(r *http.Request) (any, error) {
			id, err := orderID(r)
			if err != nil {
				return nil, err
			}
			order, err := st.Get(r.Context(), id)
			if errors.Is(err, sql.ErrNoRows) {
				return nil, reply.NotFound("no such order")
			}
			return order, err
		}))

		r.Method(http.MethodPost, "/{id}/fulfil", service.Handler(func(r *http.Request) (any, error) {
			id, err := orderID(r)
			if err != nil {
				return nil, err
			}
			if err := st.Fulfil(r.Context(), id); errors.Is(err, sql.ErrNoRows) {
				return nil, reply.Conflict("order missing or already fulfilled")
			} else if err != nil {
				return nil, err
			}
			return st.Get(r.Context(), id)
		}))

		r.Method(http.MethodGet, "/{id}/quote", service.Handler(func(r *http.Request) (any, error) {
			id, err := orderID(r)
			if err != nil {
				return nil, err
			}
			order, err := st.Get(r.Context(), id)
			if errors.Is(err, sql.ErrNoRows) {
				return nil, reply.NotFound("no such order")
			}
			if err != nil {
				return nil, err
			}

			resp, err := pricing.Get(r.Context(), "/price/"+order.SKU)
			if err != nil {
				return nil, reply.ServiceUnavailable("pricing unreachable")
			}
			if !resp.IsSuccess() {
				return nil, reply.ServiceUnavailable("pricing degraded")
			}
			var q priceQuote
			if err := resp.JSON(&q); err != nil {
				return nil, err
			}

			return orderQuote{
				Order:    *order,
				Unit:     q.Unit,
				Currency: q.Currency,
				Total:    q.Unit * float64(order.Qty),
			}, nil
		}))
	})

	if err := svc.Run(ctx); err != nil {
		log.Fatalf("server: %v", err)
	}
}

func orderID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, reply.BadRequest("invalid order id")
	}
	return id, nil
}
