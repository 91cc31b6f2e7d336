package calendar

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/billingkit/pkg/cache"
)

// Cache stores raw holiday responses keyed by year and country.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisCache shares holiday responses between instances.
type RedisCache struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisCache(client redis.UniversalClient, prefix string) *RedisCache {
	if client == nil {
		panic("calendar: redis client cannot be nil")
	}
	return &RedisCache{client: client, prefix: prefix}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, c.prefix+key, value, ttl).Err()
}

// MemoryCache keeps responses in a bounded in-process LRU.
type MemoryCache struct {
	lru *cache.LRU[string, []byte]
}

func NewMemoryCache(capacity int) *MemoryCache {
	return &MemoryCache{lru: cache.NewLRU[string, []byte](capacity, 0)}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	b, ok := c.lru.Get(key)
	return b, ok, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.lru.SetWithTTL(key, value, ttl)
	return nil
}

// NoopCache never stores anything.
type NoopCache struct{}

func (NoopCache) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (NoopCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
