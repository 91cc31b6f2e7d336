// Package redis connects to the Redis instance that backs the shared holiday
// calendar cache.
//
// Connect retries the initial ping according to Config and returns a
// redis.UniversalClient ready to be handed to calendar.NewRedisCache.
// Healthcheck plugs the connection into the readiness probe.
//
//	client, err := redis.Connect(ctx, cfg, log)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
package redis
