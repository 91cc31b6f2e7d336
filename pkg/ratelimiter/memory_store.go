package ratelimiter

import (
	"context"
	"sync"
	"time"
)

type bucketState struct {
	tokens     int
	refilledAt time.Time
	touchedAt  time.Time
}

// MemoryStore keeps buckets in process. Idle buckets are swept periodically.
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[string]*bucketState

	sweepInterval time.Duration
	stop          chan struct{}
	stopOnce      sync.Once
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithSweepInterval sets how often idle buckets are removed. Zero disables
// the sweeper.
func WithSweepInterval(d time.Duration) MemoryStoreOption {
	return func(ms *MemoryStore) {
		ms.sweepInterval = d
	}
}

func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	ms := &MemoryStore{
		buckets:       make(map[string]*bucketState),
		sweepInterval: 5 * time.Minute,
		stop:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(ms)
	}
	if ms.sweepInterval > 0 {
		go ms.sweep()
	}
	return ms
}

func (ms *MemoryStore) Take(_ context.Context, key string, n int, cfg Config, now time.Time) (int, time.Time, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	b, ok := ms.buckets[key]
	if !ok {
		b = &bucketState{tokens: cfg.Capacity, refilledAt: now}
		ms.buckets[key] = b
	}
	b.tokens, b.refilledAt = refill(b.tokens, b.refilledAt, now, cfg)
	b.touchedAt = now

	remaining := b.tokens - n
	if remaining >= 0 {
		b.tokens = remaining
	}
	return remaining, b.refilledAt, nil
}

func (ms *MemoryStore) Reset(_ context.Context, key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	delete(ms.buckets, key)
	return nil
}

// Len returns the number of tracked buckets.
func (ms *MemoryStore) Len() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return len(ms.buckets)
}

// Close stops the sweeper. Safe to call more than once.
func (ms *MemoryStore) Close() {
	ms.stopOnce.Do(func() { close(ms.stop) })
}

func (ms *MemoryStore) sweep() {
	ticker := time.NewTicker(ms.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			ms.removeIdle(now, time.Hour)
		case <-ms.stop:
			return
		}
	}
}

func (ms *MemoryStore) removeIdle(now time.Time, idle time.Duration) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	for key, b := range ms.buckets {
		if now.Sub(b.touchedAt) > idle {
			delete(ms.buckets, key)
		}
	}
}
