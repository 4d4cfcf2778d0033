package statemachine

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is matched by both NoTransitionError and RejectedError.
var ErrInvalidTransition = errors.New("statemachine: invalid transition")

// NoTransitionError means no transition is defined for the state/event pair.
type NoTransitionError[S, E comparable] struct {
	State S
	Event E
}

func (e *NoTransitionError[S, E]) Error() string {
	return fmt.Sprintf("statemachine: no transition from state '%v' for event '%v'", e.State, e.Event)
}

func (e *NoTransitionError[S, E]) Is(target error) bool {
	return target == ErrInvalidTransition
}

// RejectedError means transitions exist but every one was vetoed by a guard.
type RejectedError[S, E comparable] struct {
	State S
	Event E
}

func (e *RejectedError[S, E]) Error() string {
	return fmt.Sprintf("statemachine: transition from state '%v' for event '%v' was rejected by guards", e.State, e.Event)
}

func (e *RejectedError[S, E]) Is(target error) bool {
	return target == ErrInvalidTransition
}
