package registry_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifystream/pkg/registry"
	"github.com/dmitrymomot/notifystream/pkg/sse"
)

type fakeConn struct {
	id string

	mu     sync.Mutex
	frames []sse.Frame
	fail   bool
	closed int
}

func newConn(id string) *fakeConn { return &fakeConn{id: id} }

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Send(_ context.Context, f sse.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail || c.closed > 0 {
		return errors.New("broken pipe")
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed++
	return nil
}

func (c *fakeConn) breakPipe() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fail = true
}

func (c *fakeConn) received() []sse.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]sse.Frame(nil), c.frames...)
}

func (c *fakeConn) closeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

type recordingMetrics struct {
	mu          sync.Mutex
	connections int
	users       int
	writeFails  int
	rejections  map[string]int
}

func (m *recordingMetrics) ConnectionsChanged(connections, users int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connections, m.users = connections, users
}

func (m *recordingMetrics) WriteFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeFails++
}

func (m *recordingMetrics) ConnectionRejected(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rejections == nil {
		m.rejections = map[string]int{}
	}
	m.rejections[reason]++
}

func heartbeat(t *testing.T) sse.Frame {
	t.Helper()
	f, err := sse.HeartbeatFrame(time.UnixMilli(1700000000000))
	require.NoError(t, err)
	return f
}

func TestRegistry_RegisterAndCount(t *testing.T) {
	t.Parallel()

	r := registry.New()
	a1, a2, b1 := newConn("a1"), newConn("a2"), newConn("b1")

	require.NoError(t, r.Register("alice", a1))
	require.NoError(t, r.Register("alice", a2))
	require.NoError(t, r.Register("bob", b1))

	assert.Equal(t, 2, r.ConnectionCount("alice"))
	assert.Equal(t, 1, r.ConnectionCount("bob"))
	assert.Equal(t, 0, r.ConnectionCount("carol"))
	assert.Equal(t, 3, r.TotalConnectionCount())
	assert.Equal(t, 2, r.ActiveUserCount())

	stats := r.Stats()
	assert.Equal(t, 3, stats.TotalConnections)
	assert.Equal(t, 2, stats.ActiveUsers)
	assert.Equal(t, map[string]int{"alice": 2, "bob": 1}, stats.Users)
}

func TestRegistry_RegisterValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		userID string
		conn   registry.Connection
		err    error
	}{
		{name: "empty user id", userID: "", conn: newConn("c"), err: registry.ErrInvalidUserID},
		{name: "nil connection", userID: "alice", conn: nil, err: registry.ErrNilConnection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := registry.New()
			assert.ErrorIs(t, r.Register(tt.userID, tt.conn), tt.err)
			assert.Equal(t, 0, r.TotalConnectionCount())
		})
	}
}

func TestRegistry_RegisterTwiceIsNoop(t *testing.T) {
	t.Parallel()

	r := registry.New()
	c := newConn("c1")
	require.NoError(t, r.Register("alice", c))
	require.NoError(t, r.Register("alice", c))

	assert.Equal(t, 1, r.ConnectionCount("alice"))
	assert.Equal(t, 1, r.TotalConnectionCount())
}

func TestRegistry_Unregister(t *testing.T) {
	t.Parallel()

	r := registry.New()
	a1, a2 := newConn("a1"), newConn("a2")
	require.NoError(t, r.Register("alice", a1))
	require.NoError(t, r.Register("alice", a2))

	assert.True(t, r.Unregister("alice", a1))
	assert.Equal(t, 1, r.ConnectionCount("alice"))
	assert.Equal(t, 1, r.ActiveUserCount())

	assert.False(t, r.Unregister("alice", a1), "second unregister is a no-op")
	assert.False(t, r.Unregister("bob", a2), "wrong user")
	assert.False(t, r.Unregister("alice", nil))

	assert.True(t, r.Unregister("alice", a2))
	assert.Equal(t, 0, r.ConnectionCount("alice"))
	assert.Equal(t, 0, r.ActiveUserCount(), "user entry removed with last connection")
	assert.Empty(t, r.Stats().Users)
}

func TestRegistry_Limits(t *testing.T) {
	t.Parallel()

	t.Run("per user", func(t *testing.T) {
		t.Parallel()
		m := &recordingMetrics{}
		r := registry.New(registry.WithMaxConnectionsPerUser(2), registry.WithMetrics(m))

		require.NoError(t, r.Register("alice", newConn("a1")))
		require.NoError(t, r.Register("alice", newConn("a2")))

		err := r.Register("alice", newConn("a3"))
		assert.ErrorIs(t, err, registry.ErrUserLimitReached)
		assert.ErrorIs(t, err, registry.ErrTooManyConnections)
		assert.Equal(t, 2, r.ConnectionCount("alice"))

		require.NoError(t, r.Register("bob", newConn("b1")), "other users are unaffected")
		assert.Equal(t, 1, m.rejections["user_limit"])
	})

	t.Run("global", func(t *testing.T) {
		t.Parallel()
		m := &recordingMetrics{}
		r := registry.NewFromConfig(registry.Config{MaxConnections: 2}, registry.WithMetrics(m))

		require.NoError(t, r.Register("alice", newConn("a1")))
		require.NoError(t, r.Register("bob", newConn("b1")))

		err := r.Register("carol", newConn("c1"))
		assert.ErrorIs(t, err, registry.ErrGlobalLimitReached)
		assert.ErrorIs(t, err, registry.ErrTooManyConnections)
		assert.Equal(t, 0, r.ConnectionCount("carol"))
		assert.Equal(t, 2, r.ActiveUserCount())
		assert.Equal(t, 1, m.rejections["global_limit"])
	})

	t.Run("freed slot can be reused", func(t *testing.T) {
		t.Parallel()
		r := registry.New(registry.WithMaxConnectionsPerUser(1))
		c1 := newConn("a1")
		require.NoError(t, r.Register("alice", c1))
		require.Error(t, r.Register("alice", newConn("a2")))

		r.Unregister("alice", c1)
		require.NoError(t, r.Register("alice", newConn("a2")))
	})
}

func TestRegistry_SendToUser(t *testing.T) {
	t.Parallel()

	r := registry.New()
	a1, a2, b1 := newConn("a1"), newConn("a2"), newConn("b1")
	require.NoError(t, r.Register("alice", a1))
	require.NoError(t, r.Register("alice", a2))
	require.NoError(t, r.Register("bob", b1))

	f := heartbeat(t)
	assert.Equal(t, 2, r.SendToUser(context.Background(), "alice", f))

	assert.Equal(t, []sse.Frame{f}, a1.received())
	assert.Equal(t, []sse.Frame{f}, a2.received())
	assert.Empty(t, b1.received(), "frames never cross users")

	assert.Equal(t, 0, r.SendToUser(context.Background(), "nobody", f))
}

func TestRegistry_SendToUserReapsFailedConnections(t *testing.T) {
	t.Parallel()

	m := &recordingMetrics{}
	r := registry.New(registry.WithMetrics(m))
	healthy, broken := newConn("healthy"), newConn("broken")
	require.NoError(t, r.Register("alice", healthy))
	require.NoError(t, r.Register("alice", broken))
	broken.breakPipe()

	f := heartbeat(t)
	assert.Equal(t, 1, r.SendToUser(context.Background(), "alice", f))

	assert.Equal(t, []sse.Frame{f}, healthy.received(), "healthy sibling still receives the frame")
	assert.Equal(t, 1, r.ConnectionCount("alice"))
	assert.Equal(t, 1, broken.closeCount())
	assert.Zero(t, healthy.closeCount())
	assert.Equal(t, 1, m.writeFails)
	assert.Equal(t, 1, m.connections)
	assert.Equal(t, 1, m.users)

	healthy.breakPipe()
	assert.Equal(t, 0, r.SendToUser(context.Background(), "alice", f))
	assert.Equal(t, 0, r.ActiveUserCount(), "user removed once all connections failed")
}

func TestRegistry_SendToAll(t *testing.T) {
	t.Parallel()

	r := registry.New()
	conns := map[string]*fakeConn{}
	for i := range 3 {
		for j := range 2 {
			id := fmt.Sprintf("u%d-c%d", i, j)
			conns[id] = newConn(id)
			require.NoError(t, r.Register(fmt.Sprintf("u%d", i), conns[id]))
		}
	}
	conns["u1-c0"].breakPipe()

	f := heartbeat(t)
	assert.Equal(t, 5, r.SendToAll(context.Background(), f))
	assert.Equal(t, 5, r.TotalConnectionCount())
	for id, c := range conns {
		if id == "u1-c0" {
			assert.Empty(t, c.received())
			continue
		}
		assert.Equal(t, []sse.Frame{f}, c.received(), id)
	}
}

func TestRegistry_CloseAll(t *testing.T) {
	t.Parallel()

	r := registry.New()
	a, b := newConn("a"), newConn("b")
	require.NoError(t, r.Register("alice", a))
	require.NoError(t, r.Register("bob", b))

	assert.Equal(t, 2, r.CloseAll())
	assert.Equal(t, 1, a.closeCount())
	assert.Equal(t, 1, b.closeCount())
	assert.Equal(t, 0, r.TotalConnectionCount())
	assert.Equal(t, 0, r.ActiveUserCount())

	assert.ErrorIs(t, r.Register("alice", newConn("late")), registry.ErrClosed)
	assert.False(t, r.Unregister("alice", a))
}

func TestRegistry_ConcurrentRegisterUnregister(t *testing.T) {
	t.Parallel()

	r := registry.New()
	f := heartbeat(t)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			userID := fmt.Sprintf("user-%d", i%4)
			c := newConn(fmt.Sprintf("conn-%d", i))
			for range 50 {
				_ = r.Register(userID, c)
				r.SendToUser(context.Background(), userID, f)
				r.Unregister(userID, c)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, r.TotalConnectionCount())
	assert.Equal(t, 0, r.ActiveUserCount())
}
