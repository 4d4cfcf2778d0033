package syncclient_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifystream/pkg/notifications"
	"github.com/dmitrymomot/notifystream/pkg/syncclient"
)

var errNetwork = errors.New("dial tcp: connection refused")

type mockRemote struct {
	mock.Mock
}

func (m *mockRemote) List(ctx context.Context, opts notifications.ListOptions) ([]notifications.Notification, error) {
	args := m.Called(ctx, opts)
	items, _ := args.Get(0).([]notifications.Notification)
	return items, args.Error(1)
}

func (m *mockRemote) MarkRead(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockRemote) MarkAllRead(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockRemote) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockRemote) DeleteAllRead(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type failures struct {
	mu  sync.Mutex
	ops []string
}

func (f *failures) hook(op string, _ error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, op)
}

func newClient(t *testing.T, items ...notifications.Notification) (*syncclient.Client, *mockRemote, *failures) {
	t.Helper()
	remote := &mockRemote{}
	f := &failures{}
	c := syncclient.NewClient(remote, syncclient.WithFailureHook(f.hook))
	require.True(t, c.Cache().Load(items))
	return c, remote, f
}

func TestClient_MarkRead(t *testing.T) {
	t.Parallel()

	t.Run("success keeps optimistic state", func(t *testing.T) {
		t.Parallel()
		c, remote, _ := newClient(t, note(7, false), note(8, false))
		remote.On("MarkRead", mock.Anything, int64(7)).Return(nil).Once()

		require.NoError(t, c.MarkRead(context.Background(), 7))
		assert.Equal(t, 1, c.Cache().Unread())

		// The server echoes the change over the stream.
		assert.True(t, c.Cache().Apply(read(7)))
		assert.Equal(t, 1, c.Cache().Unread())
		remote.AssertExpectations(t)
	})

	t.Run("network failure restores the entry", func(t *testing.T) {
		t.Parallel()
		c, remote, f := newClient(t, note(7, false), note(8, false), note(9, true))
		before := c.Cache().Snapshot()

		var during syncclient.Snapshot
		remote.On("MarkRead", mock.Anything, int64(7)).
			Run(func(mock.Arguments) { during = c.Cache().Snapshot() }).
			Return(errNetwork).Once()

		err := c.MarkRead(context.Background(), 7)
		require.ErrorIs(t, err, syncclient.ErrMutationFailed)
		require.ErrorIs(t, err, errNetwork)

		assert.Equal(t, 1, during.Unread, "optimistic change applied before the call")
		assert.Equal(t, before, c.Cache().Snapshot(), "exact snapshot restored")
		assert.Equal(t, 2, c.Cache().Unread())
		assert.Equal(t, []string{syncclient.OpMarkRead}, f.ops)
	})

	t.Run("already read entry", func(t *testing.T) {
		t.Parallel()
		c, remote, _ := newClient(t, note(7, true))
		remote.On("MarkRead", mock.Anything, int64(7)).Return(nil).Once()

		require.NoError(t, c.MarkRead(context.Background(), 7))
		assert.Equal(t, 0, c.Cache().Unread())
		remote.AssertExpectations(t)
	})
}

func TestClient_MarkAllRead(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		c, remote, _ := newClient(t, note(1, false), note(2, false))
		remote.On("MarkAllRead", mock.Anything).Return(nil).Once()

		require.NoError(t, c.MarkAllRead(context.Background()))
		assert.Equal(t, 0, c.Cache().Unread())
		for _, it := range c.Cache().Snapshot().Items {
			assert.True(t, it.Read)
		}
	})

	t.Run("failure restores list and count exactly", func(t *testing.T) {
		t.Parallel()
		c, remote, f := newClient(t, note(1, false), note(2, true), note(3, false))
		before := c.Cache().Snapshot()
		remote.On("MarkAllRead", mock.Anything).Return(errNetwork).Once()

		err := c.MarkAllRead(context.Background())
		require.ErrorIs(t, err, syncclient.ErrMutationFailed)

		after := c.Cache().Snapshot()
		assert.Equal(t, before.Items, after.Items)
		assert.Equal(t, before.Unread, after.Unread)
		assert.Equal(t, 2, after.Unread)
		assert.Equal(t, []string{syncclient.OpMarkAllRead}, f.ops)
	})
}

func TestClient_Delete(t *testing.T) {
	t.Parallel()

	t.Run("cache changes only after confirmation", func(t *testing.T) {
		t.Parallel()
		c, remote, _ := newClient(t, note(1, false), note(2, false))

		var during []int64
		remote.On("Delete", mock.Anything, int64(2)).
			Run(func(mock.Arguments) { during = ids(c.Cache().Snapshot()) }).
			Return(nil).Once()

		require.NoError(t, c.Delete(context.Background(), 2))
		assert.Equal(t, []int64{2, 1}, during, "entry still present while the call runs")
		assert.Equal(t, []int64{1}, ids(c.Cache().Snapshot()))
		assert.Equal(t, 1, c.Cache().Unread())

		// A late push about the same deletion is a no-op.
		assert.True(t, c.Cache().Apply(deleted(2)))
		assert.Equal(t, []int64{1}, ids(c.Cache().Snapshot()))
	})

	t.Run("failure leaves cache untouched", func(t *testing.T) {
		t.Parallel()
		c, remote, f := newClient(t, note(1, false), note(2, false))
		before := c.Cache().Snapshot()
		remote.On("Delete", mock.Anything, int64(2)).Return(errNetwork).Once()

		require.ErrorIs(t, c.Delete(context.Background(), 2), syncclient.ErrMutationFailed)
		assert.Equal(t, before, c.Cache().Snapshot())
		assert.Equal(t, []string{syncclient.OpDelete}, f.ops)
	})
}

func TestClient_DeleteAllRead(t *testing.T) {
	t.Parallel()

	c, remote, _ := newClient(t, note(1, true), note(2, false), note(3, true))
	remote.On("DeleteAllRead", mock.Anything).Return(nil).Once()

	require.NoError(t, c.DeleteAllRead(context.Background()))
	assert.Equal(t, []int64{2}, ids(c.Cache().Snapshot()))
	assert.Equal(t, 1, c.Cache().Unread())

	remote.On("DeleteAllRead", mock.Anything).Return(errNetwork).Once()
	require.ErrorIs(t, c.DeleteAllRead(context.Background()), syncclient.ErrMutationFailed)
	assert.Equal(t, []int64{2}, ids(c.Cache().Snapshot()))
}

func TestClient_Refresh(t *testing.T) {
	t.Parallel()

	c, remote, _ := newClient(t)
	remote.On("List", mock.Anything, notifications.ListOptions{Limit: notifications.DefaultListLimit}).
		Return([]notifications.Notification{note(1, false), note(2, true)}, nil).Once()

	require.NoError(t, c.Refresh(context.Background()))
	assert.Equal(t, []int64{2, 1}, ids(c.Cache().Snapshot()))
	assert.Equal(t, 1, c.Cache().Unread())

	remote.On("List", mock.Anything, mock.Anything).Return(nil, errNetwork).Once()
	require.ErrorIs(t, c.Refresh(context.Background()), syncclient.ErrMutationFailed)
	assert.Equal(t, []int64{2, 1}, ids(c.Cache().Snapshot()), "failed refresh keeps the cache")
}

func TestClient_Close(t *testing.T) {
	t.Parallel()

	c, remote, _ := newClient(t, note(1, false))
	c.Close()

	assert.ErrorIs(t, c.MarkRead(context.Background(), 1), syncclient.ErrClosed)
	assert.ErrorIs(t, c.MarkAllRead(context.Background()), syncclient.ErrClosed)
	assert.ErrorIs(t, c.Delete(context.Background(), 1), syncclient.ErrClosed)
	assert.ErrorIs(t, c.DeleteAllRead(context.Background()), syncclient.ErrClosed)
	assert.Equal(t, 1, c.Cache().Unread())
	remote.AssertNotCalled(t, "MarkRead", mock.Anything, mock.Anything)
	remote.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestClient_ConcurrentPushAndMutation(t *testing.T) {
	t.Parallel()

	c, remote, _ := newClient(t, note(1, false), note(2, false))
	remote.On("MarkRead", mock.Anything, mock.Anything).Return(nil)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = c.MarkRead(context.Background(), int64(1+i%2))
		}()
		go func() {
			defer wg.Done()
			c.Cache().Apply(created(note(int64(100+i), false)))
			c.Cache().Apply(read(int64(100 + i)))
		}()
	}
	wg.Wait()

	snap := c.Cache().Snapshot()
	assert.Len(t, snap.Items, 52)
	assert.Equal(t, 0, snap.Unread)
}
