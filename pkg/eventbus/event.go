package eventbus

import (
	"github.com/dmitrymomot/notifystream/pkg/notifications"
)

// Kind identifies a notification lifecycle event.
type Kind string

const (
	KindCreated Kind = "created"
	KindRead    Kind = "read"
	KindDeleted Kind = "deleted"
	KindAllRead Kind = "all-read"
)

// Kinds lists every lifecycle kind in a stable order.
func Kinds() []Kind {
	return []Kind{KindCreated, KindRead, KindDeleted, KindAllRead}
}

// Valid reports whether k is one of Kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindCreated, KindRead, KindDeleted, KindAllRead:
		return true
	}
	return false
}

func (k Kind) String() string { return string(k) }

// Event is a transient lifecycle message scoped to one user.
// Notification is set for created, NotificationID for read and deleted.
type Event struct {
	Kind           Kind                        `json:"kind"`
	UserID         string                      `json:"userId"`
	Notification   *notifications.Notification `json:"notification,omitempty"`
	NotificationID int64                       `json:"notificationId,omitempty"`
}

func (e Event) validate() error {
	if !e.Kind.Valid() {
		return ErrUnknownKind
	}
	if e.UserID == "" {
		return ErrMissingUserID
	}
	if e.Kind == KindCreated && e.Notification == nil {
		return ErrMissingPayload
	}
	if (e.Kind == KindRead || e.Kind == KindDeleted) && e.NotificationID == 0 {
		return ErrMissingPayload
	}
	return nil
}
