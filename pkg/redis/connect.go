package redis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/billingkit/pkg/logger"
)

// Connect dials Redis and pings it until it answers, up to RetryAttempts
// times within ConnectTimeout.
func Connect(ctx context.Context, cfg Config, log *slog.Logger) (redis.UniversalClient, error) {
	if cfg.ConnectionURL == "" {
		return nil, ErrEmptyConnectionURL
	}
	if log == nil {
		log = logger.Noop()
	}

	opts, err := redis.ParseURL(cfg.ConnectionURL)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseRedisConnString, err)
	}

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	attempts := max(cfg.RetryAttempts, 1)
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		client := redis.NewClient(opts)
		if lastErr = client.Ping(ctx).Err(); lastErr == nil {
			log.InfoContext(ctx, "redis connected", logger.Component("redis"), slog.String("addr", opts.Addr))
			return client, nil
		}
		_ = client.Close()

		log.WarnContext(ctx, "redis not ready",
			logger.Component("redis"),
			slog.Int("attempt", attempt),
			logger.Error(lastErr),
		)

		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrRedisNotReady, ctx.Err())
		case <-time.After(cfg.RetryInterval):
		}
	}

	return nil, errors.Join(ErrRedisNotReady, lastErr)
}
