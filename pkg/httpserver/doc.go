// Package httpserver runs the billing HTTP API with graceful shutdown and
// exposes liveness and readiness probes.
//
//	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
//	return srv.Run(ctx, router)
//
// Run returns once ctx is cancelled and in-flight requests have drained, or
// the shutdown timeout has elapsed.
package httpserver
