package service

import (
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/kroma-labs/beacon-go/reply"
)

// RateLimitConfig configures the rate limiting middleware.
type RateLimitConfig struct {
	// Limit is the sustained rate in requests per second.
	Limit rate.Limit

	// Burst is the token bucket capacity.
	Burst int

	// KeyFunc splits requests into buckets. Nil applies one global
	// bucket.
	KeyFunc KeyFunc

	// Redis enables distributed limiting across instances. Nil keeps
	// the limiter in-memory, which is single-instance only.
	Redis redis.UniversalClient

	// RedisKeyPrefix prefixes bucket keys in Redis.
	// Default: "ratelimit:".
	RedisKeyPrefix string
}

// DefaultRateLimitConfig returns a moderate default limit.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Limit:          100,
		Burst:          200,
		RedisKeyPrefix: "ratelimit:",
	}
}

// RateLimit returns token bucket rate limiting middleware. Rejected
// requests get a translated 429 outcome.
func RateLimit(cfg RateLimitConfig) Middleware {
	if cfg.RedisKeyPrefix == "" {
		cfg.RedisKeyPrefix = "ratelimit:"
	}

	if cfg.Redis != nil {
		return redisRateLimiter(cfg)
	}
	return memoryRateLimiter(cfg)
}

// RateLimitByIP is RateLimit with per-client-IP buckets.
func RateLimitByIP(limit rate.Limit, burst int) Middleware {
	return RateLimit(RateLimitConfig{
		Limit:   limit,
		Burst:   burst,
		KeyFunc: KeyByIP(),
	})
}

// RateLimitByIPRedis is RateLimitByIP backed by Redis for
// multi-instance deployments.
func RateLimitByIPRedis(rdb redis.UniversalClient, limit rate.Limit, burst int) Middleware {
	return RateLimit(RateLimitConfig{
		Limit:   limit,
		Burst:   burst,
		Redis:   rdb,
		KeyFunc: KeyByIP(),
	})
}

func rejectRateLimited(w http.ResponseWriter, r *http.Request) {
	o, _ := reply.Translate(reply.TooManyRequests("rate limit exceeded"), nil, "")
	reply.Write(w, r, o)
}

func memoryRateLimiter(cfg RateLimitConfig) Middleware {
	if cfg.KeyFunc == nil {
		limiter := rate.NewLimiter(cfg.Limit, cfg.Burst)
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if !limiter.Allow() {
					rejectRateLimited(w, r)
					return
				}
				next.ServeHTTP(w, r)
			})
		}
	}

	var mu sync.RWMutex
	limiters := make(map[string]*rate.Limiter)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := cfg.KeyFunc(r)

			mu.RLock()
			limiter, exists := limiters[key]
			mu.RUnlock()

			if !exists {
				mu.Lock()
				limiter, exists = limiters[key]
				if !exists {
					limiter = rate.NewLimiter(cfg.Limit, cfg.Burst)
					limiters[key] = limiter
				}
				mu.Unlock()
			}

			if !limiter.Allow() {
				rejectRateLimited(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// bucketScript implements an atomic token bucket in Redis: it refills
// from the elapsed time since last_update, caps at burst, and consumes
// one token when available.
var bucketScript = redis.NewScript(`
local key = KEYS[1]
local rate = tonumber(ARGV[1])       -- tokens per second
local burst = tonumber(ARGV[2])      -- max tokens (capacity)
local now = tonumber(ARGV[3])        -- current time in milliseconds
local ttl = tonumber(ARGV[4])        -- key TTL in seconds

local data = redis.call('HMGET', key, 'tokens', 'last_update')
local tokens = tonumber(data[1])
local last_update = tonumber(data[2])

if tokens == nil then
    tokens = burst
    last_update = now
end

local elapsed_ms = now - last_update
local tokens_to_add = (elapsed_ms / 1000.0) * rate
tokens = math.min(burst, tokens + tokens_to_add)

if tokens >= 1 then
    tokens = tokens - 1
    redis.call('HMSET', key, 'tokens', tokens, 'last_update', now)
    redis.call('EXPIRE', key, ttl)
    return 1
else
    redis.call('HMSET', key, 'tokens', tokens, 'last_update', now)
    redis.call('EXPIRE', key, ttl)
    return 0
end
`)

func redisRateLimiter(cfg RateLimitConfig) Middleware {
	rps := float64(cfg.Limit)
	ttl := 60 // seconds; reclaims buckets for idle keys

	keyFor := func(r *http.Request) string {
		if cfg.KeyFunc == nil {
			return cfg.RedisKeyPrefix + "global"
		}
		return cfg.RedisKeyPrefix + cfg.KeyFunc(r)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			now := time.Now().UnixMilli()

			allowed, err := bucketScript.Run(ctx, cfg.Redis, []string{keyFor(r)}, rps, cfg.Burst, now, ttl).
				Int()
			if err != nil {
				// Redis trouble must not take the service down with
				// it; fail open.
				next.ServeHTTP(w, r)
				return
			}

			if allowed == 0 {
				rejectRateLimited(w, r)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
