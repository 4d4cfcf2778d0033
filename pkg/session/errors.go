package session

import "errors"

var (
	ErrUnauthenticated      = errors.New("session: unauthenticated")
	ErrConnectionClosed     = errors.New("session: connection closed")
	ErrStreamingUnsupported = errors.New("session: response writer does not support streaming")
)
