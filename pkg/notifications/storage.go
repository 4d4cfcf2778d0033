package notifications

import (
	"context"
)

// Storage persists notifications. Lookups by id are not scoped to a user;
// ownership is enforced by Service.
type Storage interface {
	// Create stores n and assigns its ID and CreatedAt when they are zero.
	Create(ctx context.Context, n *Notification) error

	// Get returns ErrNotificationNotFound when the id is unknown.
	Get(ctx context.Context, id int64) (Notification, error)

	// List returns the user's notifications, newest first.
	List(ctx context.Context, userID string, opts ListOptions) ([]Notification, error)

	CountUnread(ctx context.Context, userID string) (int, error)

	// MarkRead returns ErrNotificationNotFound when the id is unknown.
	MarkRead(ctx context.Context, id int64) (Notification, error)

	// MarkAllRead returns the number of notifications that changed.
	MarkAllRead(ctx context.Context, userID string) (int64, error)

	// Delete returns ErrNotificationNotFound when the id is unknown.
	Delete(ctx context.Context, id int64) error

	// DeleteRead removes every read notification of the user and returns how many were removed.
	DeleteRead(ctx context.Context, userID string) (int64, error)
}

const (
	DefaultListLimit = 50
	MaxListLimit     = 100
)

// ListOptions provides filtering and pagination for List.
type ListOptions struct {
	Limit      int
	Offset     int
	UnreadOnly bool
}

// normalize applies the default limit and validates the bounds.
func (o ListOptions) normalize() (ListOptions, error) {
	if o.Limit == 0 {
		o.Limit = DefaultListLimit
	}
	if o.Limit < 1 || o.Limit > MaxListLimit {
		return o, ErrInvalidLimit
	}
	if o.Offset < 0 {
		return o, ErrInvalidOffset
	}
	return o, nil
}
