package session

import (
	"log/slog"
	"time"

	"github.com/juju/clock"

	"github.com/dmitrymomot/notifystream/pkg/logger"
)

// Option configures a Server.
type Option func(*Server)

// WithConfig applies heartbeat interval and write timeout from cfg.
// Non-positive values keep the defaults.
func WithConfig(cfg Config) Option {
	return func(s *Server) {
		WithHeartbeatInterval(cfg.HeartbeatInterval)(s)
		WithWriteTimeout(cfg.WriteTimeout)(s)
	}
}

// WithHeartbeatInterval sets how often an idle stream gets a heartbeat frame.
// Non-positive values keep the default of 30s.
func WithHeartbeatInterval(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.heartbeat = d
		}
	}
}

// WithWriteTimeout bounds every frame write. Non-positive values keep the default.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.writeTimeout = d
		}
	}
}

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c clock.Clock) Option {
	return func(s *Server) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets the session logger. Nil discards logs.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = logger.OrDiscard(l) }
}

// WithMetrics records session lifetimes in m.
func WithMetrics(m Metrics) Option {
	return func(s *Server) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithStateObserver adds fn to the observers of every lifecycle transition.
func WithStateObserver(fn StateObserver) Option {
	return func(s *Server) {
		if fn != nil {
			s.observers = append(s.observers, fn)
		}
	}
}

// WithErrorHandler sets how rejected stream requests are answered.
func WithErrorHandler(h ErrorHandler) Option {
	return func(s *Server) {
		if h != nil {
			s.onError = h
		}
	}
}
