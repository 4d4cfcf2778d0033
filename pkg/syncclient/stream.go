package syncclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/juju/clock"

	"github.com/dmitrymomot/notifystream/pkg/logger"
	"github.com/dmitrymomot/notifystream/pkg/sse"
	"github.com/dmitrymomot/notifystream/pkg/statemachine"
)

// StreamPath is the server endpoint the stream connects to.
const StreamPath = "/api/notifications/stream"

// Status is the connection state of a Stream.
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusClosed       Status = "closed"
)

type streamEvent string

const (
	eventDial        streamEvent = "dial"
	eventEstablished streamEvent = "established"
	eventLost        streamEvent = "lost"
	eventShutdown    streamEvent = "shutdown"
)

// Stream consumes the server push stream and merges it into a Cache. It
// reconnects with exponential backoff until closed.
type Stream struct {
	url       string
	token     TokenSource
	client    *http.Client
	cache     *Cache
	resync    func(ctx context.Context) error
	clock     clock.Clock
	baseDelay time.Duration
	maxDelay  time.Duration
	logger    *slog.Logger
	handlers  []func(Status)
	status    *statemachine.Machine[Status, streamEvent]

	mu            sync.Mutex
	lastHeartbeat time.Time
	cancel        context.CancelFunc
	done          chan struct{}
}

// StreamOption configures a Stream.
type StreamOption func(*Stream)

// WithStreamToken sets the bearer token source of the stream request.
func WithStreamToken(token TokenSource) StreamOption {
	return func(s *Stream) { s.token = token }
}

// WithHTTPClient replaces http.DefaultClient. The client must not set a
// total timeout, since the stream stays open.
func WithHTTPClient(c *http.Client) StreamOption {
	return func(s *Stream) {
		if c != nil {
			s.client = c
		}
	}
}

// WithResync runs fn every time the server confirms a connection, to pick
// up whatever was missed while disconnected.
func WithResync(fn func(ctx context.Context) error) StreamOption {
	return func(s *Stream) { s.resync = fn }
}

// WithStreamClock replaces the wall clock used for reconnect delays.
func WithStreamClock(c clock.Clock) StreamOption {
	return func(s *Stream) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithReconnectDelay sets the first reconnect delay and its upper bound.
// Delays double after every failed attempt.
func WithReconnectDelay(base, maxDelay time.Duration) StreamOption {
	return func(s *Stream) {
		if base > 0 {
			s.baseDelay = base
		}
		if maxDelay >= s.baseDelay {
			s.maxDelay = maxDelay
		}
	}
}

// WithStatusHandler is called on every status change, outside any lock.
func WithStatusHandler(fn func(Status)) StreamOption {
	return func(s *Stream) {
		if fn != nil {
			s.handlers = append(s.handlers, fn)
		}
	}
}

// WithStreamLogger sets the stream logger. Nil discards logs.
func WithStreamLogger(l *slog.Logger) StreamOption {
	return func(s *Stream) { s.logger = logger.OrDiscard(l) }
}

// NewStream creates a stream against the server at baseURL feeding cache.
func NewStream(baseURL string, cache *Cache, opts ...StreamOption) *Stream {
	s := &Stream{
		url:       strings.TrimRight(baseURL, "/") + StreamPath,
		client:    http.DefaultClient,
		cache:     cache,
		clock:     clock.WallClock,
		baseDelay: time.Second,
		maxDelay:  30 * time.Second,
		logger:    logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}

	from := []Status{StatusDisconnected, StatusConnecting, StatusConnected}
	s.status = statemachine.New(StatusDisconnected,
		statemachine.WithTransition[Status, streamEvent](StatusDisconnected, StatusConnecting, eventDial),
		statemachine.WithTransition[Status, streamEvent](StatusConnecting, StatusConnected, eventEstablished),
		statemachine.WithTransitionFrom[Status, streamEvent](from[1:], StatusDisconnected, eventLost),
		statemachine.WithTransitionFrom[Status, streamEvent](from, StatusClosed, eventShutdown),
		statemachine.WithObserver(func(_ context.Context, _, to Status, _ streamEvent) {
			for _, fn := range s.handlers {
				fn(to)
			}
		}),
	)
	return s
}

// Status returns the current connection status.
func (s *Stream) Status() Status { return s.status.Current() }

// LastHeartbeat returns the server time of the last heartbeat received.
func (s *Stream) LastHeartbeat() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastHeartbeat
}

// Run connects and keeps reconnecting until ctx is done, Close is called or
// the server rejects the credentials. It returns nil on a regular stop.
func (s *Stream) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		cancel()
		return ErrAlreadyRunning
	}
	s.cancel, s.done = cancel, done
	s.mu.Unlock()

	defer func() {
		cancel()
		close(done)
	}()

	bo := s.newBackOff()
	for {
		if s.cache.Closed() {
			s.transition(ctx, eventShutdown)
			return nil
		}

		s.transition(ctx, eventDial)
		err := s.consume(ctx, bo)
		s.transition(ctx, eventLost)

		switch {
		case ctx.Err() != nil || errors.Is(err, ErrClosed):
			s.transition(ctx, eventShutdown)
			return nil
		case errors.Is(err, ErrUnauthorized):
			s.transition(ctx, eventShutdown)
			return err
		}

		delay := bo.NextBackOff()
		s.logger.LogAttrs(ctx, slog.LevelInfo, "Notification stream disconnected, reconnecting",
			logger.Duration(delay),
			logger.Error(err),
		)

		select {
		case <-ctx.Done():
			s.transition(ctx, eventShutdown)
			return nil
		case <-s.clock.After(delay):
		}
	}
}

// Close stops the cache first, so no frame is applied after Close returns,
// then stops Run and waits for it.
func (s *Stream) Close() {
	s.cache.Close()

	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

func (s *Stream) consume(ctx context.Context, bo backoff.BackOff) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if err := authorize(ctx, req, s.token); err != nil {
		return err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%w: status %d", ErrStreamStatus, resp.StatusCode)
	}

	reader := sse.NewReader(resp.Body)
	for {
		frame, err := reader.Next()
		if err != nil {
			return err
		}

		switch frame.Event {
		case sse.EventConnected:
			s.transition(ctx, eventEstablished)
			bo.Reset()
			if s.resync != nil {
				if err := s.resync(ctx); err != nil {
					s.logger.LogAttrs(ctx, slog.LevelWarn, "Notification resync failed", logger.Error(err))
				}
			}
		case sse.EventHeartbeat:
			var hb sse.HeartbeatData
			if err := frame.Decode(&hb); err == nil {
				s.mu.Lock()
				s.lastHeartbeat = time.UnixMilli(hb.Timestamp)
				s.mu.Unlock()
			}
		case sse.EventNotification:
			var data sse.NotificationData
			if err := frame.Decode(&data); err != nil {
				s.logger.LogAttrs(ctx, slog.LevelWarn, "Dropping malformed notification frame", logger.Error(err))
				continue
			}
			if !s.cache.Apply(data) && s.cache.Closed() {
				return ErrClosed
			}
		}
	}
}

func (s *Stream) newBackOff() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.baseDelay
	bo.MaxInterval = s.maxDelay
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxElapsedTime = 0
	bo.Reset()
	return bo
}

func (s *Stream) transition(ctx context.Context, ev streamEvent) {
	if _, err := s.status.Fire(ctx, ev); err != nil {
		s.logger.LogAttrs(ctx, slog.LevelDebug, "Ignored stream status change",
			slog.String("event", string(ev)),
			logger.Error(err),
		)
	}
}
