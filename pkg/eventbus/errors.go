package eventbus

import "errors"

var (
	ErrUnknownKind    = errors.New("eventbus: unknown event kind")
	ErrMissingUserID  = errors.New("eventbus: event has no target user")
	ErrMissingPayload = errors.New("eventbus: event payload does not match its kind")
	ErrNilListener    = errors.New("eventbus: listener is nil")
	ErrListenerPanic  = errors.New("eventbus: listener panicked")
	ErrRelayPublish   = errors.New("eventbus: failed to relay event")
)
