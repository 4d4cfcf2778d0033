package httpserver

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/dmitrymomot/notifystream/pkg/logger"
)

// Option configures the HTTP server.
type Option func(*config)

// WithAddr sets the address the server listens on. It is ignored when a
// listener is provided.
func WithAddr(addr string) Option {
	if addr == "" {
		panic("WithAddr: addr cannot be empty")
	}
	return func(c *config) { c.addr = addr }
}

// WithListener serves on an already bound listener instead of Addr.
func WithListener(l net.Listener) Option {
	if l == nil {
		panic("WithListener: nil listener")
	}
	return func(c *config) { c.listener = l }
}

// WithReadTimeout sets the maximum duration for reading the entire request.
func WithReadTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("WithReadTimeout: duration must be > 0")
	}
	return func(c *config) { c.readTimeout = d }
}

// WithWriteTimeout sets the maximum duration before timing out writes of the
// response. Streaming handlers extend it per write.
func WithWriteTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("WithWriteTimeout: duration must be > 0")
	}
	return func(c *config) { c.writeTimeout = d }
}

// WithIdleTimeout sets how long a keep-alive connection may wait for the next request.
func WithIdleTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("WithIdleTimeout: duration must be > 0")
	}
	return func(c *config) { c.idleTimeout = d }
}

// WithShutdownTimeout bounds how long Shutdown waits for in-flight requests.
func WithShutdownTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("WithShutdownTimeout: duration must be > 0")
	}
	return func(c *config) { c.shutdownTimeout = d }
}

// WithLogger sets the server logger. Nil discards logs.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = logger.OrDiscard(l) }
}

// WithStartHook registers a callback that runs once the listener is bound.
func WithStartHook(h func(addr string)) Option {
	if h == nil {
		panic("WithStartHook: nil hook")
	}
	return func(c *config) { c.startHooks = append(c.startHooks, h) }
}

// WithDrainHook registers a callback that runs when shutdown begins, after
// request contexts were cancelled and before waiting for handlers to return.
// Long-lived responses such as event streams are closed here.
func WithDrainHook(h func(ctx context.Context)) Option {
	if h == nil {
		panic("WithDrainHook: nil hook")
	}
	return func(c *config) { c.drainHooks = append(c.drainHooks, h) }
}
