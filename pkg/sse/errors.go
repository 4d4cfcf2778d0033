package sse

import "errors"

var ErrInvalidEventName = errors.New("sse: event name must be non-empty and single-line")
