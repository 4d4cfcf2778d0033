package notifications

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/notifystream/pkg/logger"
)

// Publisher receives lifecycle events after the storage change succeeded.
// The event bus producer implements it.
type Publisher interface {
	PublishCreated(ctx context.Context, userID string, n Notification) error
	PublishRead(ctx context.Context, userID string, id int64) error
	PublishDeleted(ctx context.Context, userID string, id int64) error
	PublishAllRead(ctx context.Context, userID string) error
}

// Service is the producer side of the pipeline: it applies user actions to
// storage and then announces them. Publishing is best effort; a failure is
// logged and never undoes the stored change.
type Service struct {
	storage   Storage
	publisher Publisher
	logger    *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithServiceLogger sets the logger for the Service.
func WithServiceLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger.OrDiscard(l)
	}
}

// WithPublisher sets where lifecycle events go. Without it events are dropped.
func WithPublisher(p Publisher) ServiceOption {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

// NewService creates a notification service over storage.
func NewService(storage Storage, opts ...ServiceOption) *Service {
	s := &Service{
		storage:   storage,
		publisher: noopPublisher{},
		logger:    logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns the user's notifications, newest first. A zero limit means 50.
func (s *Service) List(ctx context.Context, userID string, opts ListOptions) ([]Notification, error) {
	opts, err := opts.normalize()
	if err != nil {
		return nil, err
	}
	return s.storage.List(ctx, userID, opts)
}

// UnreadCount returns the unread summary of userID.
func (s *Service) UnreadCount(ctx context.Context, userID string) (UnreadCount, error) {
	count, err := s.storage.CountUnread(ctx, userID)
	if err != nil {
		return UnreadCount{}, err
	}
	return UnreadCount{Count: count, HasUnread: count > 0}, nil
}

// Get returns a notification owned by userID.
func (s *Service) Get(ctx context.Context, userID string, id int64) (Notification, error) {
	n, err := s.storage.Get(ctx, id)
	if err != nil {
		return Notification{}, err
	}
	if n.UserID != userID {
		return Notification{}, ErrForbidden
	}
	return n, nil
}

// Create stores a notification and announces it to the owner's connections.
func (s *Service) Create(ctx context.Context, in CreateInput) (Notification, error) {
	if err := in.Validate(); err != nil {
		return Notification{}, err
	}

	n := Notification{
		UserID:           in.UserID,
		Type:             in.Type,
		Title:            in.Title,
		Message:          in.Message,
		RelatedRequestID: in.RelatedRequestID,
		Metadata:         in.Metadata,
	}
	if err := s.storage.Create(ctx, &n); err != nil {
		return Notification{}, fmt.Errorf("failed to store notification: %w", err)
	}

	s.announce(ctx, "created", n.UserID, n.ID, s.publisher.PublishCreated(ctx, n.UserID, n))
	return n, nil
}

// MarkRead marks one of the user's notifications read.
func (s *Service) MarkRead(ctx context.Context, userID string, id int64) (Notification, error) {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return Notification{}, err
	}

	n, err := s.storage.MarkRead(ctx, id)
	if err != nil {
		return Notification{}, err
	}

	s.announce(ctx, "read", userID, id, s.publisher.PublishRead(ctx, userID, id))
	return n, nil
}

// MarkAllRead marks every unread notification of the user read.
func (s *Service) MarkAllRead(ctx context.Context, userID string) error {
	if _, err := s.storage.MarkAllRead(ctx, userID); err != nil {
		return err
	}

	s.announce(ctx, "all-read", userID, 0, s.publisher.PublishAllRead(ctx, userID))
	return nil
}

// Delete removes one of the user's notifications.
func (s *Service) Delete(ctx context.Context, userID string, id int64) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	if err := s.storage.Delete(ctx, id); err != nil {
		return err
	}

	s.announce(ctx, "deleted", userID, id, s.publisher.PublishDeleted(ctx, userID, id))
	return nil
}

// DeleteAllRead removes the user's read notifications. No event is published:
// connected clients drop read entries on their own delete-all-read call.
func (s *Service) DeleteAllRead(ctx context.Context, userID string) (int64, error) {
	return s.storage.DeleteRead(ctx, userID)
}

func (s *Service) announce(ctx context.Context, kind, userID string, id int64, err error) {
	if err == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelWarn, "Failed to publish notification event, change was stored",
		logger.Kind(kind),
		logger.UserID(userID),
		logger.NotificationID(id),
		logger.Error(err),
	)
}

type noopPublisher struct{}

func (noopPublisher) PublishCreated(context.Context, string, Notification) error { return nil }
func (noopPublisher) PublishRead(context.Context, string, int64) error           { return nil }
func (noopPublisher) PublishDeleted(context.Context, string, int64) error        { return nil }
func (noopPublisher) PublishAllRead(context.Context, string) error               { return nil }
