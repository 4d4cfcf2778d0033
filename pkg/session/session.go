package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/juju/clock"

	"github.com/dmitrymomot/notifystream/pkg/eventbus"
	"github.com/dmitrymomot/notifystream/pkg/logger"
	"github.com/dmitrymomot/notifystream/pkg/registry"
	"github.com/dmitrymomot/notifystream/pkg/sse"
)

// Reasons a session left the open state.
const (
	ReasonContextDone = "context_done"
	ReasonWriteFailed = "write_failed"
	ReasonConnClosed  = "connection_closed"
)

// Authenticator resolves the caller of a stream request to a user id.
type Authenticator interface {
	Authenticate(r *http.Request) (string, error)
}

// AuthenticatorFunc adapts a function to Authenticator.
type AuthenticatorFunc func(r *http.Request) (string, error)

// Authenticate calls f(r).
func (f AuthenticatorFunc) Authenticate(r *http.Request) (string, error) { return f(r) }

// Registry is the part of registry.Registry a session needs.
type Registry interface {
	Register(userID string, conn registry.Connection) error
	Unregister(userID string, conn registry.Connection) bool
}

// Bus is the part of eventbus.Bus a session needs.
type Bus interface {
	Subscribe(kind eventbus.Kind, fn eventbus.Listener) (eventbus.Handle, error)
	Unsubscribe(h eventbus.Handle) bool
}

// Metrics records how long sessions stayed open. See pkg/metrics.
type Metrics interface {
	SessionEnded(reason string, d time.Duration)
}

// StateObserver is notified of every lifecycle transition of every session.
type StateObserver func(ctx context.Context, connID string, from, to State)

// Server runs streaming sessions. It is an http.Handler for the stream
// endpoint; Serve can also drive a session over any Conn.
type Server struct {
	registry     Registry
	bus          Bus
	auth         Authenticator
	clock        clock.Clock
	heartbeat    time.Duration
	writeTimeout time.Duration
	logger       *slog.Logger
	metrics      Metrics
	observers    []StateObserver
	onError      ErrorHandler
}

// NewServer creates a session server with DefaultConfig.
func NewServer(reg Registry, bus Bus, auth Authenticator, opts ...Option) *Server {
	cfg := DefaultConfig()
	s := &Server{
		registry:     reg,
		bus:          bus,
		auth:         auth,
		clock:        clock.WallClock,
		heartbeat:    cfg.HeartbeatInterval,
		writeTimeout: cfg.WriteTimeout,
		logger:       logger.Discard(),
		metrics:      noopMetrics{},
		onError:      DefaultErrorHandler,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Serve runs one session over conn until the context is done or the
// connection is closed. An error is returned only when the session never
// opened: ErrUnauthenticated when the caller could not be resolved, or the
// registry error when the connection could not be registered. Nothing has
// been written to conn in either case.
func (s *Server) Serve(ctx context.Context, r *http.Request, conn Conn) error {
	sess := &session{
		srv:  s,
		conn: conn,
		fsm:  newLifecycle(s.logger, conn.ID(), s.observers),
	}

	userID, err := s.auth.Authenticate(r)
	if err == nil && userID == "" {
		err = errors.New("empty user id")
	}
	if err != nil {
		sess.fire(ctx, triggerRejected)
		return errors.Join(ErrUnauthenticated, err)
	}
	sess.userID = userID

	if err := s.registry.Register(userID, conn); err != nil {
		sess.fire(ctx, triggerRejected)
		return err
	}
	sess.fire(ctx, triggerOpened)

	sess.run(ctx)
	return nil
}

type session struct {
	srv     *Server
	conn    Conn
	userID  string
	fsm     *lifecycle
	timer   clock.Timer
	handles []eventbus.Handle
}

func (s *session) run(ctx context.Context) {
	opened := s.srv.clock.Now()

	frame, err := sse.ConnectedFrame(opened)
	if err == nil {
		err = s.conn.Send(ctx, frame)
	}
	if err != nil {
		s.teardown(ctx, opened, ReasonWriteFailed, err)
		return
	}

	s.timer = s.srv.clock.NewTimer(s.srv.heartbeat)

	for _, kind := range eventbus.Kinds() {
		h, err := s.srv.bus.Subscribe(kind, s.forward(ctx))
		if err != nil {
			s.teardown(ctx, opened, ReasonConnClosed, err)
			return
		}
		s.handles = append(s.handles, h)
	}

	s.srv.logger.LogAttrs(ctx, slog.LevelInfo, "Stream session opened",
		logger.UserID(s.userID),
		logger.ConnectionID(s.conn.ID()),
	)

	for {
		select {
		case <-ctx.Done():
			s.teardown(ctx, opened, ReasonContextDone, nil)
			return
		case <-s.conn.Done():
			if err := s.conn.Err(); err != nil {
				s.teardown(ctx, opened, ReasonWriteFailed, err)
				return
			}
			s.teardown(ctx, opened, ReasonConnClosed, nil)
			return
		case <-s.timer.Chan():
			frame, err := sse.HeartbeatFrame(s.srv.clock.Now())
			if err == nil {
				err = s.conn.Send(ctx, frame)
			}
			if err != nil {
				s.teardown(ctx, opened, ReasonWriteFailed, err)
				return
			}
			s.timer.Reset(s.srv.heartbeat)
		}
	}
}

// forward returns the bus listener of this session. Frames are written with
// the session context; a failed write closes the connection, which ends the
// run loop, and is reported to the bus as a listener failure.
func (s *session) forward(ctx context.Context) eventbus.Listener {
	return func(_ context.Context, evt eventbus.Event) error {
		if evt.UserID != s.userID {
			return nil
		}
		frame, err := notificationFrame(evt)
		if err != nil {
			return err
		}
		return s.conn.Send(ctx, frame)
	}
}

// teardown is the single exit path of an opened session. run calls it
// exactly once.
func (s *session) teardown(ctx context.Context, opened time.Time, reason string, cause error) {
	s.fire(ctx, triggerTerminate)

	if s.timer != nil {
		s.timer.Stop()
	}
	for _, h := range s.handles {
		s.srv.bus.Unsubscribe(h)
	}
	s.handles = nil
	s.srv.registry.Unregister(s.userID, s.conn)
	_ = s.conn.Close()

	s.fire(ctx, triggerReleased)

	lifetime := s.srv.clock.Now().Sub(opened)
	s.srv.metrics.SessionEnded(reason, lifetime)
	s.srv.logger.LogAttrs(ctx, slog.LevelInfo, "Stream session closed",
		logger.UserID(s.userID),
		logger.ConnectionID(s.conn.ID()),
		slog.String("reason", reason),
		logger.Duration(lifetime),
		logger.Error(cause),
	)
}

func (s *session) fire(ctx context.Context, t trigger) {
	from, err := s.fsm.Fire(ctx, t)
	if err != nil {
		s.srv.logger.LogAttrs(ctx, slog.LevelWarn, "Invalid stream session transition",
			logger.ConnectionID(s.conn.ID()),
			logger.State(string(from)),
			logger.Error(err),
		)
	}
}

func notificationFrame(evt eventbus.Event) (sse.Frame, error) {
	data := sse.NotificationData{Action: sse.Action(evt.Kind)}
	switch evt.Kind {
	case eventbus.KindCreated:
		data.Notification = evt.Notification
	case eventbus.KindRead, eventbus.KindDeleted:
		id := evt.NotificationID
		data.NotificationID = &id
	}
	return sse.NotificationFrame(data)
}

type noopMetrics struct{}

func (noopMetrics) SessionEnded(string, time.Duration) {}
