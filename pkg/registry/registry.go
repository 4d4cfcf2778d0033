package registry

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dmitrymomot/notifystream/pkg/logger"
	"github.com/dmitrymomot/notifystream/pkg/sse"
)

// Connection is one open outbound channel to a client.
type Connection interface {
	// ID must be unique for the lifetime of the registry.
	ID() string
	// Send writes a frame. It must fail fast on a dead transport.
	Send(ctx context.Context, f sse.Frame) error
	// Close releases the transport. Closing twice is not an error.
	Close() error
}

// Metrics receives registry gauges and counters. See pkg/metrics.
type Metrics interface {
	ConnectionsChanged(connections, users int)
	WriteFailed()
	ConnectionRejected(reason string)
}

// Stats is a point-in-time view of the registry.
type Stats struct {
	TotalConnections int            `json:"totalConnections"`
	ActiveUsers      int            `json:"activeUsers"`
	Users            map[string]int `json:"users"`
}

// Registry maps user ids to their open connections. A user with no
// connections has no entry. All methods are safe for concurrent use; sends
// copy the target set under the read lock and write outside of it.
type Registry struct {
	mu         sync.RWMutex
	users      map[string]map[string]Connection
	total      int
	closed     bool
	maxPerUser int
	maxTotal   int
	logger     *slog.Logger
	metrics    Metrics
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger for reaped connections and rejections. Nil
// discards logs.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.logger = logger.OrDiscard(l) }
}

// WithMetrics reports connection counts, rejections and write failures to m.
func WithMetrics(m Metrics) Option {
	return func(r *Registry) {
		if m != nil {
			r.metrics = m
		}
	}
}

// WithMaxConnectionsPerUser caps connections per user. Zero means unlimited.
func WithMaxConnectionsPerUser(n int) Option {
	return func(r *Registry) { r.maxPerUser = max(n, 0) }
}

// WithMaxConnections caps connections across all users. Zero means unlimited.
func WithMaxConnections(n int) Option {
	return func(r *Registry) { r.maxTotal = max(n, 0) }
}

// New creates an empty registry without connection limits.
func New(opts ...Option) *Registry {
	r := &Registry{
		users:   make(map[string]map[string]Connection),
		logger:  logger.Discard(),
		metrics: noopMetrics{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewFromConfig creates a registry with the limits from cfg.
func NewFromConfig(cfg Config, opts ...Option) *Registry {
	base := []Option{
		WithMaxConnectionsPerUser(cfg.MaxConnectionsPerUser),
		WithMaxConnections(cfg.MaxConnections),
	}
	return New(append(base, opts...)...)
}

// Register adds conn to the user's set. Registering the same connection
// twice is a no-op. Limits are checked before anything changes.
func (r *Registry) Register(userID string, conn Connection) error {
	if userID == "" {
		return ErrInvalidUserID
	}
	if conn == nil {
		return ErrNilConnection
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	set := r.users[userID]
	if _, ok := set[conn.ID()]; ok {
		r.mu.Unlock()
		return nil
	}
	if r.maxPerUser > 0 && len(set) >= r.maxPerUser {
		r.mu.Unlock()
		r.metrics.ConnectionRejected("user_limit")
		return ErrUserLimitReached
	}
	if r.maxTotal > 0 && r.total >= r.maxTotal {
		r.mu.Unlock()
		r.metrics.ConnectionRejected("global_limit")
		return ErrGlobalLimitReached
	}
	if set == nil {
		set = make(map[string]Connection)
		r.users[userID] = set
	}
	set[conn.ID()] = conn
	r.total++
	total, users := r.total, len(r.users)
	r.mu.Unlock()

	r.metrics.ConnectionsChanged(total, users)
	return nil
}

// Unregister removes conn and drops the user entry when it was the last one.
// It reports whether the connection was registered.
func (r *Registry) Unregister(userID string, conn Connection) bool {
	if conn == nil {
		return false
	}

	r.mu.Lock()
	set, ok := r.users[userID]
	if !ok {
		r.mu.Unlock()
		return false
	}
	if _, ok := set[conn.ID()]; !ok {
		r.mu.Unlock()
		return false
	}
	delete(set, conn.ID())
	if len(set) == 0 {
		delete(r.users, userID)
	}
	r.total--
	total, users := r.total, len(r.users)
	r.mu.Unlock()

	r.metrics.ConnectionsChanged(total, users)
	return true
}

// SendToUser writes f to every connection of the user. Failed connections
// are collected, and after all writes they are unregistered and closed. It
// returns the number of successful writes.
func (r *Registry) SendToUser(ctx context.Context, userID string, f sse.Frame) int {
	r.mu.RLock()
	conns := snapshot(r.users[userID])
	r.mu.RUnlock()

	return r.deliver(ctx, map[string][]Connection{userID: conns}, f)
}

// SendToAll writes f to every registered connection with the same
// write-then-reap semantics as SendToUser.
func (r *Registry) SendToAll(ctx context.Context, f sse.Frame) int {
	r.mu.RLock()
	targets := make(map[string][]Connection, len(r.users))
	for userID, set := range r.users {
		targets[userID] = snapshot(set)
	}
	r.mu.RUnlock()

	return r.deliver(ctx, targets, f)
}

func (r *Registry) deliver(ctx context.Context, targets map[string][]Connection, f sse.Frame) int {
	type deadConn struct {
		userID string
		conn   Connection
	}

	var (
		sent int
		dead []deadConn
	)
	for userID, conns := range targets {
		for _, conn := range conns {
			if err := conn.Send(ctx, f); err != nil {
				r.metrics.WriteFailed()
				r.logger.LogAttrs(ctx, slog.LevelDebug, "Dropping connection after write failure",
					logger.UserID(userID),
					logger.ConnectionID(conn.ID()),
					logger.Event(f.Event),
					logger.Error(err),
				)
				dead = append(dead, deadConn{userID: userID, conn: conn})
				continue
			}
			sent++
		}
	}

	for _, d := range dead {
		r.Unregister(d.userID, d.conn)
		_ = d.conn.Close()
	}
	return sent
}

// ConnectionCount returns the number of open connections of the user.
func (r *Registry) ConnectionCount(userID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users[userID])
}

// TotalConnectionCount returns the number of open connections of all users.
func (r *Registry) TotalConnectionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.total
}

// ActiveUserCount returns the number of users with at least one connection.
func (r *Registry) ActiveUserCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

// Stats returns a point-in-time view of the registry.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make(map[string]int, len(r.users))
	for userID, set := range r.users {
		users[userID] = len(set)
	}
	return Stats{
		TotalConnections: r.total,
		ActiveUsers:      len(r.users),
		Users:            users,
	}
}

// CloseAll closes every connection and rejects further registrations.
// It returns the number of connections that were open.
func (r *Registry) CloseAll() int {
	r.mu.Lock()
	r.closed = true
	var conns []Connection
	for _, set := range r.users {
		conns = append(conns, snapshot(set)...)
	}
	clear(r.users)
	r.total = 0
	r.mu.Unlock()

	r.metrics.ConnectionsChanged(0, 0)
	for _, conn := range conns {
		_ = conn.Close()
	}
	return len(conns)
}

func snapshot(set map[string]Connection) []Connection {
	if len(set) == 0 {
		return nil
	}
	out := make([]Connection, 0, len(set))
	for _, c := range set {
		out = append(out, c)
	}
	return out
}

type noopMetrics struct{}

func (noopMetrics) ConnectionsChanged(int, int) {}
func (noopMetrics) WriteFailed()                {}
func (noopMetrics) ConnectionRejected(string)   {}
