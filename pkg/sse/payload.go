package sse

import (
	"time"

	"github.com/dmitrymomot/notifystream/pkg/notifications"
)

// Action names the change described by a notification frame.
type Action string

const (
	ActionCreated Action = "created"
	ActionRead    Action = "read"
	ActionDeleted Action = "deleted"
	ActionAllRead Action = "all-read"
)

// ConnectedMessage is sent once when a stream opens.
const ConnectedMessage = "Connected to notification stream"

// NotificationData is the payload of a notification frame. Notification is set
// for created, NotificationID for read and deleted, neither for all-read.
type NotificationData struct {
	Action         Action                      `json:"action"`
	Notification   *notifications.Notification `json:"notification,omitempty"`
	NotificationID *int64                      `json:"notificationId,omitempty"`
}

// HeartbeatData is the payload of a heartbeat frame. Timestamp is in Unix milliseconds.
type HeartbeatData struct {
	Timestamp int64 `json:"timestamp"`
}

// ConnectedData is the payload of the connected frame.
type ConnectedData struct {
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// NotificationFrame builds a notification frame.
func NotificationFrame(data NotificationData) (Frame, error) {
	return NewFrame(EventNotification, data)
}

// HeartbeatFrame builds a heartbeat frame stamped with t.
func HeartbeatFrame(t time.Time) (Frame, error) {
	return NewFrame(EventHeartbeat, HeartbeatData{Timestamp: t.UnixMilli()})
}

// ConnectedFrame builds the connected frame stamped with t.
func ConnectedFrame(t time.Time) (Frame, error) {
	return NewFrame(EventConnected, ConnectedData{Message: ConnectedMessage, Timestamp: t.UnixMilli()})
}
