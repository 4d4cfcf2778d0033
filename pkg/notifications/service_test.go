package notifications

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishCreated(ctx context.Context, userID string, n Notification) error {
	return m.Called(ctx, userID, n).Error(0)
}

func (m *MockPublisher) PublishRead(ctx context.Context, userID string, id int64) error {
	return m.Called(ctx, userID, id).Error(0)
}

func (m *MockPublisher) PublishDeleted(ctx context.Context, userID string, id int64) error {
	return m.Called(ctx, userID, id).Error(0)
}

func (m *MockPublisher) PublishAllRead(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func validInput(userID string) CreateInput {
	return CreateInput{
		UserID:  userID,
		Type:    TypeIntroductionApproved,
		Title:   "Introduction approved",
		Message: "Your introduction request was approved",
		Metadata: &Metadata{
			RequesterName: "Ada",
			ContactName:   "Grace",
			RequestID:     9,
		},
	}
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("stores then publishes", func(t *testing.T) {
		pub := &MockPublisher{}
		svc := NewService(NewMemoryStorage(), WithPublisher(pub))
		pub.On("PublishCreated", mock.Anything, "u1", mock.MatchedBy(func(n Notification) bool {
			return n.ID == 1 && n.Metadata != nil && n.Metadata.RequestID == 9
		})).Return(nil).Once()

		n, err := svc.Create(ctx, validInput("u1"))
		require.NoError(t, err)
		assert.Equal(t, int64(1), n.ID)
		assert.False(t, n.Read)
		pub.AssertExpectations(t)
	})

	t.Run("publish failure keeps stored notification", func(t *testing.T) {
		pub := &MockPublisher{}
		storage := NewMemoryStorage()
		svc := NewService(storage, WithPublisher(pub))
		pub.On("PublishCreated", mock.Anything, "u1", mock.Anything).Return(errors.New("bus down"))

		n, err := svc.Create(ctx, validInput("u1"))
		require.NoError(t, err)

		stored, err := storage.Get(ctx, n.ID)
		require.NoError(t, err)
		assert.Equal(t, n.Title, stored.Title)
	})

	t.Run("validation", func(t *testing.T) {
		tests := []struct {
			name   string
			modify func(*CreateInput)
			want   error
		}{
			{"missing user", func(in *CreateInput) { in.UserID = "" }, ErrUserIDRequired},
			{"unknown type", func(in *CreateInput) { in.Type = "promo" }, ErrInvalidType},
			{"missing title", func(in *CreateInput) { in.Title = "" }, ErrTitleRequired},
			{"title too long", func(in *CreateInput) { in.Title = strings.Repeat("é", MaxTitleLength+1) }, ErrTitleTooLong},
			{"missing message", func(in *CreateInput) { in.Message = "" }, ErrMessageRequired},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				pub := &MockPublisher{}
				svc := NewService(NewMemoryStorage(), WithPublisher(pub))
				in := validInput("u1")
				tt.modify(&in)

				_, err := svc.Create(ctx, in)
				assert.ErrorIs(t, err, tt.want)
				pub.AssertNotCalled(t, "PublishCreated", mock.Anything, mock.Anything, mock.Anything)
			})
		}
	})
}

func TestService_MarkRead(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		userID  string
		id      int64
		wantErr error
	}{
		{"owner marks read", "u1", 1, nil},
		{"other user is forbidden", "u2", 1, ErrForbidden},
		{"unknown id", "u1", 404, ErrNotificationNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &MockPublisher{}
			pub.On("PublishCreated", mock.Anything, mock.Anything, mock.Anything).Return(nil)
			svc := NewService(NewMemoryStorage(), WithPublisher(pub))
			_, err := svc.Create(ctx, validInput("u1"))
			require.NoError(t, err)

			if tt.wantErr == nil {
				pub.On("PublishRead", mock.Anything, tt.userID, tt.id).Return(nil).Once()
			}

			n, err := svc.MarkRead(ctx, tt.userID, tt.id)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				pub.AssertNotCalled(t, "PublishRead", mock.Anything, mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.True(t, n.Read)
			pub.AssertExpectations(t)
		})
	}
}

func TestService_MarkAllRead(t *testing.T) {
	ctx := context.Background()
	pub := &MockPublisher{}
	pub.On("PublishCreated", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	pub.On("PublishAllRead", mock.Anything, "u1").Return(nil).Once()

	svc := NewService(NewMemoryStorage(), WithPublisher(pub))
	for range 3 {
		_, err := svc.Create(ctx, validInput("u1"))
		require.NoError(t, err)
	}

	count, err := svc.UnreadCount(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, UnreadCount{Count: 3, HasUnread: true}, count)

	require.NoError(t, svc.MarkAllRead(ctx, "u1"))

	count, err = svc.UnreadCount(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, UnreadCount{}, count)
	pub.AssertExpectations(t)
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	pub := &MockPublisher{}
	pub.On("PublishCreated", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	pub.On("PublishRead", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	svc := NewService(NewMemoryStorage(), WithPublisher(pub))
	first, err := svc.Create(ctx, validInput("u1"))
	require.NoError(t, err)
	second, err := svc.Create(ctx, validInput("u1"))
	require.NoError(t, err)

	t.Run("forbidden for other user", func(t *testing.T) {
		assert.ErrorIs(t, svc.Delete(ctx, "u2", first.ID), ErrForbidden)
	})

	t.Run("owner deletes", func(t *testing.T) {
		pub.On("PublishDeleted", mock.Anything, "u1", first.ID).Return(nil).Once()
		require.NoError(t, svc.Delete(ctx, "u1", first.ID))
		assert.ErrorIs(t, svc.Delete(ctx, "u1", first.ID), ErrNotificationNotFound)
	})

	t.Run("delete all read publishes nothing", func(t *testing.T) {
		_, err := svc.MarkRead(ctx, "u1", second.ID)
		require.NoError(t, err)

		removed, err := svc.DeleteAllRead(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, int64(1), removed)

		list, err := svc.List(ctx, "u1", ListOptions{})
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	pub.AssertExpectations(t)
}

func TestService_List(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStorage())
	for range 60 {
		_, err := svc.Create(ctx, validInput("u1"))
		require.NoError(t, err)
	}

	tests := []struct {
		name    string
		opts    ListOptions
		wantLen int
		wantErr error
	}{
		{"default limit", ListOptions{}, DefaultListLimit, nil},
		{"explicit limit", ListOptions{Limit: 10}, 10, nil},
		{"limit too large", ListOptions{Limit: 101}, 0, ErrInvalidLimit},
		{"negative limit", ListOptions{Limit: -1}, 0, ErrInvalidLimit},
		{"negative offset", ListOptions{Offset: -1}, 0, ErrInvalidOffset},
		{"offset tail", ListOptions{Limit: 100, Offset: 55}, 5, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := svc.List(ctx, "u1", tt.opts)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, list, tt.wantLen)
		})
	}
}

func TestNewService_DefaultLoggerDiscards(t *testing.T) {
	svc := NewService(NewMemoryStorage())
	assert.False(t, svc.logger.Enabled(context.Background(), slog.LevelError))

	svc = NewService(NewMemoryStorage(), WithServiceLogger(nil))
	assert.False(t, svc.logger.Enabled(context.Background(), slog.LevelError))
}
