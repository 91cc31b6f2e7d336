package ratelimiter

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// BucketOption configures a Bucket.
type BucketOption func(*Bucket)

// WithClock overrides the time source.
func WithClock(now func() time.Time) BucketOption {
	return func(b *Bucket) {
		if now != nil {
			b.now = now
		}
	}
}

// Bucket is a token bucket limiter over a Store.
type Bucket struct {
	store Store
	cfg   Config
	now   func() time.Time
}

// NewBucket validates cfg and creates a limiter.
func NewBucket(store Store, cfg Config, opts ...BucketOption) (*Bucket, error) {
	if store == nil {
		panic("ratelimiter: store is required")
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%w: %+v", err, cfg)
	}
	b := &Bucket{store: store, cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

func (b *Bucket) Allow(ctx context.Context, key string) (*Result, error) {
	return b.AllowN(ctx, key, 1)
}

// AllowN takes n tokens at once.
func (b *Bucket) AllowN(ctx context.Context, key string, n int) (*Result, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTokenCount, n)
	}

	now := b.now()
	remaining, refilledAt, err := b.store.Take(ctx, key, n, b.cfg, now)
	if err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}

	res := &Result{
		Limit:     b.cfg.Capacity,
		Remaining: remaining,
		ResetAt:   refilledAt.Add(b.cfg.RefillInterval),
	}
	if !res.Allowed() {
		res.RetryAfter = max(res.ResetAt.Sub(now), 0)
	}
	return res, nil
}

// Reset forgets the bucket of key.
func (b *Bucket) Reset(ctx context.Context, key string) error {
	return b.store.Reset(ctx, key)
}

// refill returns the balance and refill time after applying the intervals
// elapsed since refilledAt.
func refill(tokens int, refilledAt, now time.Time, cfg Config) (int, time.Time) {
	elapsed := now.Sub(refilledAt)
	if elapsed < cfg.RefillInterval {
		return tokens, refilledAt
	}
	// Capped so a long idle period cannot overflow.
	intervals := min(int64(elapsed/cfg.RefillInterval), int64(cfg.Capacity/cfg.RefillRate+1))
	return min(tokens+int(intervals)*cfg.RefillRate, cfg.Capacity), now
}
