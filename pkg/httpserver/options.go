package httpserver

import (
	"log/slog"
	"time"
)

// Option configures the HTTP server.
type Option func(*config)

func WithAddr(addr string) Option {
	if addr == "" {
		panic("httpserver: addr cannot be empty")
	}
	return func(c *config) { c.addr = addr }
}

func WithReadHeaderTimeout(d time.Duration) Option {
	return func(c *config) { c.readHeaderTimeout = d }
}

func WithReadTimeout(d time.Duration) Option {
	return func(c *config) { c.readTimeout = d }
}

func WithWriteTimeout(d time.Duration) Option {
	return func(c *config) { c.writeTimeout = d }
}

func WithIdleTimeout(d time.Duration) Option {
	return func(c *config) { c.idleTimeout = d }
}

// WithShutdownTimeout bounds graceful shutdown after the run context ends.
func WithShutdownTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("httpserver: shutdown timeout must be > 0")
	}
	return func(c *config) { c.shutdownTimeout = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}
