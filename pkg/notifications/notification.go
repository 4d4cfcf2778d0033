package notifications

import (
	"time"
	"unicode/utf8"
)

// Type tags the business event a notification was created for.
type Type string

const (
	TypeIntroductionRequest  Type = "introduction_request"
	TypeIntroductionApproved Type = "introduction_approved"
	TypeIntroductionDeclined Type = "introduction_declined"
)

// Valid reports whether t belongs to the known vocabulary.
func (t Type) Valid() bool {
	switch t {
	case TypeIntroductionRequest, TypeIntroductionApproved, TypeIntroductionDeclined:
		return true
	}
	return false
}

// Metadata carries the introduction details rendered next to a notification.
type Metadata struct {
	RequesterName  string `json:"requesterName,omitempty"`
	RequesterEmail string `json:"requesterEmail,omitempty"`
	ContactName    string `json:"contactName,omitempty"`
	ContactEmail   string `json:"contactEmail,omitempty"`
	RequestID      int64  `json:"requestId,omitempty"`
}

// Notification is owned by exactly one user. Read only ever moves from false to true.
type Notification struct {
	ID               int64     `json:"id"`
	UserID           string    `json:"userId"`
	Type             Type      `json:"type"`
	Title            string    `json:"title"`
	Message          string    `json:"message"`
	Read             bool      `json:"read"`
	RelatedRequestID *int64    `json:"relatedRequestId,omitempty"`
	Metadata         *Metadata `json:"metadata,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

// CreateInput describes a notification to be created by a producer.
type CreateInput struct {
	UserID           string    `json:"userId"`
	Type             Type      `json:"type"`
	Title            string    `json:"title"`
	Message          string    `json:"message"`
	RelatedRequestID *int64    `json:"relatedRequestId,omitempty"`
	Metadata         *Metadata `json:"metadata,omitempty"`
}

// MaxTitleLength is the longest accepted title, in characters.
const MaxTitleLength = 255

// Validate checks the input against the creation rules.
func (in CreateInput) Validate() error {
	switch {
	case in.UserID == "":
		return ErrUserIDRequired
	case !in.Type.Valid():
		return ErrInvalidType
	case in.Title == "":
		return ErrTitleRequired
	case utf8.RuneCountInString(in.Title) > MaxTitleLength:
		return ErrTitleTooLong
	case in.Message == "":
		return ErrMessageRequired
	}
	return nil
}

// UnreadCount is the unread summary returned to clients.
type UnreadCount struct {
	Count     int  `json:"count"`
	HasUnread bool `json:"hasUnread"`
}
