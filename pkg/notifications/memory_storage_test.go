package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedStorage(t *testing.T, s *MemoryStorage, userID string, count int) []Notification {
	t.Helper()
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	out := make([]Notification, 0, count)
	for i := range count {
		n := Notification{
			UserID:    userID,
			Type:      TypeIntroductionRequest,
			Title:     "Introduction request",
			Message:   "Someone wants an introduction",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, s.Create(context.Background(), &n))
		out = append(out, n)
	}
	return out
}

func TestMemoryStorage_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("assigns sequential ids", func(t *testing.T) {
		s := NewMemoryStorage()
		first := Notification{UserID: "u1", Type: TypeIntroductionRequest}
		second := Notification{UserID: "u1", Type: TypeIntroductionApproved}
		require.NoError(t, s.Create(ctx, &first))
		require.NoError(t, s.Create(ctx, &second))

		assert.Equal(t, int64(1), first.ID)
		assert.Equal(t, int64(2), second.ID)
		assert.False(t, first.CreatedAt.IsZero())
	})

	t.Run("keeps explicit id", func(t *testing.T) {
		s := NewMemoryStorage()
		n := Notification{ID: 42, UserID: "u1"}
		require.NoError(t, s.Create(ctx, &n))

		next := Notification{UserID: "u1"}
		require.NoError(t, s.Create(ctx, &next))
		assert.Equal(t, int64(43), next.ID)
	})

	t.Run("requires user id", func(t *testing.T) {
		s := NewMemoryStorage()
		assert.ErrorIs(t, s.Create(ctx, &Notification{}), ErrUserIDRequired)
	})
}

func TestMemoryStorage_List(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()
	seeded := seedStorage(t, s, "u1", 5)
	seedStorage(t, s, "u2", 2)

	_, err := s.MarkRead(ctx, seeded[4].ID)
	require.NoError(t, err)

	tests := []struct {
		name    string
		opts    ListOptions
		wantIDs []int64
	}{
		{"newest first", ListOptions{}, []int64{5, 4, 3, 2, 1}},
		{"limit", ListOptions{Limit: 2}, []int64{5, 4}},
		{"offset", ListOptions{Limit: 2, Offset: 2}, []int64{3, 2}},
		{"offset past end", ListOptions{Offset: 10}, []int64{}},
		{"unread only", ListOptions{UnreadOnly: true}, []int64{4, 3, 2, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := s.List(ctx, "u1", tt.opts)
			require.NoError(t, err)

			ids := make([]int64, 0, len(list))
			for _, n := range list {
				ids = append(ids, n.ID)
				assert.Equal(t, "u1", n.UserID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}

	t.Run("unknown user", func(t *testing.T) {
		list, err := s.List(ctx, "nobody", ListOptions{})
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}

func TestMemoryStorage_ReadState(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()
	seeded := seedStorage(t, s, "u1", 3)
	seedStorage(t, s, "u2", 1)

	count, err := s.CountUnread(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	n, err := s.MarkRead(ctx, seeded[0].ID)
	require.NoError(t, err)
	assert.True(t, n.Read)

	_, err = s.MarkRead(ctx, 999)
	assert.ErrorIs(t, err, ErrNotificationNotFound)

	changed, err := s.MarkAllRead(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), changed)

	count, err = s.CountUnread(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, count)

	other, err := s.CountUnread(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, 1, other)
}

func TestMemoryStorage_Delete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()
	seeded := seedStorage(t, s, "u1", 3)

	require.NoError(t, s.Delete(ctx, seeded[0].ID))
	assert.ErrorIs(t, s.Delete(ctx, seeded[0].ID), ErrNotificationNotFound)

	_, err := s.Get(ctx, seeded[0].ID)
	assert.ErrorIs(t, err, ErrNotificationNotFound)

	_, err = s.MarkRead(ctx, seeded[1].ID)
	require.NoError(t, err)

	removed, err := s.DeleteRead(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	list, err := s.List(ctx, "u1", ListOptions{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, seeded[2].ID, list[0].ID)
}
