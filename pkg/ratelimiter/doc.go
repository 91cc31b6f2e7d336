// Package ratelimiter implements token bucket rate limiting with in-memory
// and Redis storage plus an HTTP middleware.
//
// A bucket holds at most Capacity tokens and regains RefillRate tokens every
// RefillInterval. Each allowed request takes one token; a request that finds
// the bucket empty is denied and consumes nothing.
//
//	limiter, err := ratelimiter.NewBucket(ratelimiter.NewRedisStore(client, "rl:"), cfg)
//	if err != nil {
//		return err
//	}
//	r.With(ratelimiter.Middleware(limiter, accountKey)).Post("/subscription/tier", h)
//
// Denied requests answer 429 with Retry-After and X-RateLimit-* headers.
// Store failures are logged and the request is let through.
package ratelimiter
