package registry

import (
	"errors"
	"fmt"
)

var (
	// ErrTooManyConnections is the parent of both limit errors.
	ErrTooManyConnections = errors.New("registry: too many connections")
	ErrUserLimitReached   = fmt.Errorf("%w: per-user limit reached", ErrTooManyConnections)
	ErrGlobalLimitReached = fmt.Errorf("%w: global limit reached", ErrTooManyConnections)

	ErrInvalidUserID = errors.New("registry: user id is required")
	ErrNilConnection = errors.New("registry: connection is nil")
	ErrClosed        = errors.New("registry: closed")
)
