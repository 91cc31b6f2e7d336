package ratelimiter

import (
	"context"
	"time"
)

// Config defines the token bucket shape.
type Config struct {
	Capacity       int           `env:"RATE_LIMIT_CAPACITY" envDefault:"10"`         // burst size
	RefillRate     int           `env:"RATE_LIMIT_REFILL_RATE" envDefault:"1"`       // tokens added per interval
	RefillInterval time.Duration `env:"RATE_LIMIT_REFILL_INTERVAL" envDefault:"6s"` // how often tokens are added
}

func (c Config) validate() error {
	switch {
	case c.Capacity <= 0:
		return ErrInvalidConfig
	case c.RefillRate <= 0:
		return ErrInvalidConfig
	case c.RefillInterval <= 0:
		return ErrInvalidConfig
	}
	return nil
}

// idleTTL is how long an untouched bucket needs to refill completely.
func (c Config) idleTTL() time.Duration {
	intervals := (c.Capacity + c.RefillRate - 1) / c.RefillRate
	return time.Duration(intervals+1) * c.RefillInterval
}

// Result describes one limiter decision.
type Result struct {
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Allowed reports whether the request may proceed.
func (r *Result) Allowed() bool {
	return r.Remaining >= 0
}

// Store persists bucket state. Take removes n tokens when at least n are
// available and reports the balance that would remain, negative when the
// request was denied, together with the time of the last refill.
type Store interface {
	Take(ctx context.Context, key string, n int, cfg Config, now time.Time) (remaining int, refilledAt time.Time, err error)
	Reset(ctx context.Context, key string) error
}

// Limiter decides whether the caller identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (*Result, error)
}
