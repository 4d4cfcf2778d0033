package syncclient

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrClosed         = errors.New("syncclient: closed")
	ErrMutationFailed = errors.New("syncclient: mutation failed")
	ErrUnauthorized   = errors.New("syncclient: unauthorized")
	ErrStreamStatus   = errors.New("syncclient: unexpected stream response")
	ErrAlreadyRunning = errors.New("syncclient: stream is already running")
)

// StatusError is returned by HTTPRemote for non-2xx responses.
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("syncclient: server responded %d: %s", e.StatusCode, e.Code)
	}
	return fmt.Sprintf("syncclient: server responded %d", e.StatusCode)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}
