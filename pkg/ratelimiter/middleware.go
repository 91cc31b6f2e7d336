package ratelimiter

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/dmitrymomot/billingkit/pkg/logger"
)

// KeyFunc extracts the bucket key from a request. An empty key skips
// limiting.
type KeyFunc func(r *http.Request) string

// MiddlewareOption configures Middleware.
type MiddlewareOption func(*middlewareConfig)

type middlewareConfig struct {
	log    *slog.Logger
	prefix string
}

func WithLogger(log *slog.Logger) MiddlewareOption {
	return func(c *middlewareConfig) {
		if log != nil {
			c.log = log
		}
	}
}

// WithKeyPrefix namespaces keys, so one store can back several limiters.
func WithKeyPrefix(prefix string) MiddlewareOption {
	return func(c *middlewareConfig) {
		c.prefix = prefix
	}
}

// Middleware denies requests over the limit with 429.
func Middleware(l Limiter, keyFn KeyFunc, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	if l == nil || keyFn == nil {
		panic("ratelimiter: limiter and key func are required")
	}
	cfg := &middlewareConfig{log: logger.Noop()}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFn(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			res, err := l.Allow(r.Context(), cfg.prefix+key)
			if err != nil {
				cfg.log.ErrorContext(r.Context(), "rate limiter unavailable", logger.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(max(res.Remaining, 0)))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

			if !res.Allowed() {
				h.Set("Retry-After", strconv.Itoa(max(int(math.Ceil(res.RetryAfter.Seconds())), 1)))
				h.Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"error": map[string]string{"code": "rate_limited", "message": "too many requests"},
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
