package middleware

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
)

type RateLimitConfig struct {
	Enabled  bool
	Requests int
	Window   time.Duration
	Prefix   string
}

// fixedWindowScript counts a hit and returns {count, ttl_ms}. The window
// starts with the first hit for a key.
var fixedWindowScript = redis.NewScript(`
	local count = redis.call('INCR', KEYS[1])
	if count == 1 then
		redis.call('PEXPIRE', KEYS[1], ARGV[1])
	end
	local ttl = redis.call('PTTL', KEYS[1])
	return { count, ttl }
`)

// windowCounter records one hit on key and reports the hits so far in the
// current window together with the time left in it.
type windowCounter interface {
	Hit(ctx context.Context, key string, window time.Duration) (count int64, ttl time.Duration, err error)
}

type redisCounter struct {
	rdb *redis.Client
}

func (c redisCounter) Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	vals, err := fixedWindowScript.Run(ctx, c.rdb, []string{key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return 0, 0, err
	}
	if len(vals) != 2 {
		return 0, 0, fmt.Errorf("unexpected script reply %v", vals)
	}
	return vals[0], time.Duration(vals[1]) * time.Millisecond, nil
}

// RateLimit allows cfg.Requests per client IP and route within cfg.Window.
// A nil client or a disabled config yields a passthrough; Redis errors let
// the request through.
func RateLimit(cfg RateLimitConfig, rdb *redis.Client) func(http.Handler) http.Handler {
	if rdb == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return rateLimit(cfg, redisCounter{rdb: rdb})
}

func rateLimit(cfg RateLimitConfig, counter windowCounter) func(http.Handler) http.Handler {
	if !cfg.Enabled || cfg.Requests <= 0 || cfg.Window <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "ratelimit"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := rateKey(cfg.Prefix, r)

			count, ttl, err := counter.Hit(r.Context(), key, cfg.Window)
			if err != nil {
				log.Printf("ratelimit: redis error for key=%s: %v", key, err)
				next.ServeHTTP(w, r)
				return
			}

			remaining := int64(cfg.Requests) - count
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Requests))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if count > int64(cfg.Requests) {
				secs := int64((ttl + time.Second - 1) / time.Second)
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", strconv.FormatInt(secs, 10))
				writeJSONError(w, http.StatusTooManyRequests, "too_many_requests", "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func rateKey(prefix string, r *http.Request) string {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	if ip == "" {
		ip = "unknown"
	}

	route := r.URL.Path
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			route = pattern
		}
	}
	return strings.Join([]string{prefix, "ip", ip, "route", fmt.Sprintf("%s %s", r.Method, route)}, ":")
}
