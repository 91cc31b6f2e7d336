package ratelimiter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// takeScript applies refill and take atomically. Bucket state lives in a
// hash with the token balance and the last refill time in milliseconds.
var takeScript = redis.NewScript(`
local capacity = tonumber(ARGV[1])
local rate = tonumber(ARGV[2])
local interval = tonumber(ARGV[3])
local now = tonumber(ARGV[4])
local cost = tonumber(ARGV[5])
local ttl = tonumber(ARGV[6])

local state = redis.call("HMGET", KEYS[1], "tokens", "refilled")
local tokens = tonumber(state[1])
local refilled = tonumber(state[2])
if tokens == nil or refilled == nil then
	tokens = capacity
	refilled = now
end

local intervals = math.floor((now - refilled) / interval)
if intervals > 0 then
	intervals = math.min(intervals, math.floor(capacity / rate) + 1)
	tokens = math.min(tokens + intervals * rate, capacity)
	refilled = now
end

local remaining = tokens - cost
if remaining >= 0 then
	tokens = remaining
end
redis.call("HSET", KEYS[1], "tokens", tokens, "refilled", refilled)
redis.call("PEXPIRE", KEYS[1], ttl)
return {remaining, refilled}
`)

// RedisStore shares buckets between replicas.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if client == nil {
		panic("ratelimiter: redis client is required")
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Take(ctx context.Context, key string, n int, cfg Config, now time.Time) (int, time.Time, error) {
	res, err := takeScript.Run(ctx, s.client, []string{s.prefix + key},
		cfg.Capacity,
		cfg.RefillRate,
		cfg.RefillInterval.Milliseconds(),
		now.UnixMilli(),
		n,
		cfg.idleTTL().Milliseconds(),
	).Int64Slice()
	if err != nil {
		return 0, time.Time{}, err
	}
	if len(res) != 2 {
		return 0, time.Time{}, fmt.Errorf("unexpected script reply %v", res)
	}
	return int(res[0]), time.UnixMilli(res[1]), nil
}

func (s *RedisStore) Reset(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}
