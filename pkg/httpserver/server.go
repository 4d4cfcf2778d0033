package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrymomot/notifystream/pkg/logger"
)

type config struct {
	addr            string
	listener        net.Listener
	readTimeout     time.Duration
	writeTimeout    time.Duration
	idleTimeout     time.Duration
	shutdownTimeout time.Duration
	logger          *slog.Logger
	startHooks      []func(addr string)
	drainHooks      []func(ctx context.Context)
}

// Server runs an http.Server until its context is cancelled. Every request
// context derives from a base context that is cancelled as soon as shutdown
// starts, so streaming handlers notice it without waiting for the deadline.
type Server struct {
	cfg *config

	mu         sync.Mutex
	srv        *http.Server
	cancelBase context.CancelFunc
	once       sync.Once
	shutErr    error
}

// New creates a server listening on :8080 with a 10s shutdown timeout unless
// options say otherwise.
func New(opts ...Option) *Server {
	cfg := &config{
		addr:            ":8080",
		shutdownTimeout: 10 * time.Second,
		logger:          logger.Discard(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Server{cfg: cfg}
}

// Run serves handler and blocks until ctx is done or the listener fails.
// Cancelling ctx triggers a graceful Shutdown.
func (s *Server) Run(ctx context.Context, handler http.Handler) error {
	if handler == nil {
		handler = http.NotFoundHandler()
	}

	// A listener passed through WithListener belongs to the caller and may be
	// serving an earlier Run; only one opened here is closed on rejection.
	ln, owned := s.cfg.listener, false
	if ln == nil {
		var err error
		if ln, err = net.Listen("tcp", s.cfg.addr); err != nil {
			return errors.Join(ErrStart, err)
		}
		owned = true
	}

	base, cancelBase := context.WithCancel(context.WithoutCancel(ctx))
	srv := &http.Server{
		Handler:      handler,
		ReadTimeout:  s.cfg.readTimeout,
		WriteTimeout: s.cfg.writeTimeout,
		IdleTimeout:  s.cfg.idleTimeout,
		BaseContext:  func(net.Listener) context.Context { return base },
		ErrorLog:     slog.NewLogLogger(s.cfg.logger.Handler(), slog.LevelWarn),
	}

	s.mu.Lock()
	if s.srv != nil {
		s.mu.Unlock()
		cancelBase()
		if owned {
			_ = ln.Close()
		}
		return errors.Join(ErrStart, ErrAlreadyRunning)
	}
	s.srv, s.cancelBase = srv, cancelBase
	s.mu.Unlock()

	addr := ln.Addr().String()
	s.cfg.logger.LogAttrs(ctx, slog.LevelInfo, "HTTP server started", slog.String("addr", addr))
	for _, h := range s.cfg.startHooks {
		h(addr)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	var runErr error
	select {
	case <-ctx.Done():
		_ = s.Shutdown(context.WithoutCancel(ctx))
		runErr = <-errCh
	case runErr = <-errCh:
		cancelBase()
	}

	if runErr != nil && !errors.Is(runErr, http.ErrServerClosed) {
		return errors.Join(ErrStart, runErr)
	}
	return s.shutdownErr()
}

// Shutdown cancels request contexts, runs drain hooks and waits up to the
// shutdown timeout for handlers to return. It is safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv, cancelBase := s.srv, s.cancelBase
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	s.once.Do(func() {
		start := time.Now()
		s.cfg.logger.LogAttrs(ctx, slog.LevelInfo, "HTTP server shutting down")

		cancelBase()
		for _, h := range s.cfg.drainHooks {
			h(ctx)
		}

		ctx, cancel := context.WithTimeout(ctx, s.cfg.shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = srv.Close()
			s.setShutdownErr(errors.Join(ErrShutdown, err))
		}

		s.cfg.logger.LogAttrs(ctx, slog.LevelInfo, "HTTP server stopped", logger.Duration(time.Since(start)))
	})
	return s.shutdownErr()
}

func (s *Server) setShutdownErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shutErr = err
}

func (s *Server) shutdownErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shutErr
}
