package eventbus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dmitrymomot/notifystream/pkg/logger"
)

// DefaultMaxListeners is the per-kind listener count above which the bus warns.
const DefaultMaxListeners = 100

// Listener handles one event. A returned error or a panic is logged and
// does not stop delivery to the remaining listeners.
type Listener func(ctx context.Context, evt Event) error

// Handle identifies one subscription. The zero Handle matches nothing.
type Handle struct {
	id   uint64
	kind Kind
}

// Kind returns the event kind the subscription listens to.
func (h Handle) Kind() Kind { return h.kind }

// Publisher publishes events. Bus and RedisRelay implement it.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// Metrics receives bus counters. See pkg/metrics for the Prometheus implementation.
type Metrics interface {
	EventPublished(kind string)
	ListenerFailed(kind string)
}

type subscription struct {
	id uint64
	fn Listener
}

// Bus is an in-process, synchronous publish/subscribe hub. Listeners of a
// kind are called in registration order on the publishing goroutine.
type Bus struct {
	mu           sync.RWMutex
	listeners    map[Kind][]subscription
	warned       map[Kind]bool
	nextID       uint64
	maxListeners int
	logger       *slog.Logger
	metrics      Metrics
}

// Option configures a Bus.
type Option func(*Bus)

// WithLogger sets the logger used for listener failures and limit warnings.
// Nil discards logs.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bus) { b.logger = logger.OrDiscard(l) }
}

// WithMaxListeners sets the soft per-kind listener limit. Non-positive values keep the default.
func WithMaxListeners(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.maxListeners = n
		}
	}
}

// WithMetrics reports published events and failed listeners to m.
func WithMetrics(m Metrics) Option {
	return func(b *Bus) {
		if m != nil {
			b.metrics = m
		}
	}
}

// New creates an empty bus.
func New(opts ...Option) *Bus {
	b := &Bus{
		listeners:    make(map[Kind][]subscription),
		warned:       make(map[Kind]bool),
		maxListeners: DefaultMaxListeners,
		logger:       logger.Discard(),
		metrics:      noopMetrics{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// NewFromConfig creates a bus using the limits from cfg.
func NewFromConfig(cfg Config, opts ...Option) *Bus {
	return New(append([]Option{WithMaxListeners(cfg.MaxListeners)}, opts...)...)
}

// Subscribe registers fn for events of the given kind.
func (b *Bus) Subscribe(kind Kind, fn Listener) (Handle, error) {
	if !kind.Valid() {
		return Handle{}, ErrUnknownKind
	}
	if fn == nil {
		return Handle{}, ErrNilListener
	}

	b.mu.Lock()
	b.nextID++
	h := Handle{id: b.nextID, kind: kind}
	b.listeners[kind] = append(b.listeners[kind], subscription{id: h.id, fn: fn})
	count := len(b.listeners[kind])
	overLimit := count > b.maxListeners && !b.warned[kind]
	if overLimit {
		b.warned[kind] = true
	}
	b.mu.Unlock()

	if overLimit {
		b.logger.LogAttrs(context.Background(), slog.LevelWarn, "Event bus listener count exceeds soft limit",
			logger.Kind(kind.String()),
			logger.Count(count),
			slog.Int("max_listeners", b.maxListeners),
		)
	}
	return h, nil
}

// Unsubscribe removes exactly the subscription behind h. It reports whether
// anything was removed; repeated calls are no-ops.
func (b *Bus) Unsubscribe(h Handle) bool {
	if h.id == 0 {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.listeners[h.kind]
	for i, s := range subs {
		if s.id != h.id {
			continue
		}
		// Copy so a concurrent Publish iterating the old slice is unaffected.
		next := make([]subscription, 0, len(subs)-1)
		next = append(next, subs[:i]...)
		next = append(next, subs[i+1:]...)
		if len(next) == 0 {
			delete(b.listeners, h.kind)
		} else {
			b.listeners[h.kind] = next
		}
		if len(next) <= b.maxListeners {
			b.warned[h.kind] = false
		}
		return true
	}
	return false
}

// Publish delivers evt to every listener of its kind that is subscribed at
// the time of the call. It returns an error only for malformed events.
func (b *Bus) Publish(ctx context.Context, evt Event) error {
	if err := evt.validate(); err != nil {
		return err
	}

	b.mu.RLock()
	subs := b.listeners[evt.Kind]
	b.mu.RUnlock()

	b.metrics.EventPublished(evt.Kind.String())

	for _, s := range subs {
		if err := b.call(ctx, s, evt); err != nil {
			b.metrics.ListenerFailed(evt.Kind.String())
			b.logger.LogAttrs(ctx, slog.LevelError, "Event listener failed",
				logger.Kind(evt.Kind.String()),
				logger.UserID(evt.UserID),
				slog.Uint64("listener_id", s.id),
				logger.Error(err),
			)
		}
	}
	return nil
}

// ListenerCount returns the number of listeners subscribed to kind.
func (b *Bus) ListenerCount(kind Kind) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners[kind])
}

func (b *Bus) call(ctx context.Context, s subscription, evt Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrListenerPanic, r)
		}
	}()
	return s.fn(ctx, evt)
}

type noopMetrics struct{}

func (noopMetrics) EventPublished(string) {}
func (noopMetrics) ListenerFailed(string) {}
