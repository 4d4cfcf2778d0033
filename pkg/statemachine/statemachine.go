package statemachine

import (
	"context"
	"sync"
)

// Guard vetoes a transition when it returns false.
type Guard[S, E comparable] func(ctx context.Context, from S, event E) bool

// Observer is called after a transition has been applied. Observers run
// outside the machine lock, in registration order.
type Observer[S, E comparable] func(ctx context.Context, from, to S, event E)

type transition[S, E comparable] struct {
	to     S
	guards []Guard[S, E]
}

// Machine is a concurrency-safe finite state machine over comparable state
// and event types. Multiple transitions may share a state/event pair; the
// first one whose guards pass wins.
type Machine[S, E comparable] struct {
	mu          sync.Mutex
	initial     S
	current     S
	transitions map[S]map[E][]transition[S, E]
	observers   []Observer[S, E]
}

// New creates a machine in the initial state.
func New[S, E comparable](initial S, opts ...Option[S, E]) *Machine[S, E] {
	m := &Machine[S, E]{
		initial:     initial,
		current:     initial,
		transitions: make(map[S]map[E][]transition[S, E]),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Current returns the current state.
func (m *Machine[S, E]) Current() S {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Is reports whether the current state is one of states.
func (m *Machine[S, E]) Is(states ...S) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range states {
		if s == m.current {
			return true
		}
	}
	return false
}

// Fire applies the transition defined for the current state and event and
// returns the state that was left.
func (m *Machine[S, E]) Fire(ctx context.Context, event E) (S, error) {
	m.mu.Lock()
	from := m.current
	to, err := m.lookup(ctx, event)
	if err != nil {
		m.mu.Unlock()
		return from, err
	}
	m.current = to
	observers := m.observers
	m.mu.Unlock()

	for _, fn := range observers {
		fn(ctx, from, to, event)
	}
	return from, nil
}

// CanFire reports whether Fire would succeed right now.
func (m *Machine[S, E]) CanFire(ctx context.Context, event E) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, err := m.lookup(ctx, event)
	return err == nil
}

// Reset returns the machine to its initial state without notifying observers.
func (m *Machine[S, E]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = m.initial
}

// lookup must be called with m.mu held.
func (m *Machine[S, E]) lookup(ctx context.Context, event E) (S, error) {
	candidates := m.transitions[m.current][event]
	if len(candidates) == 0 {
		return m.current, &NoTransitionError[S, E]{State: m.current, Event: event}
	}
	for _, t := range candidates {
		if passes(ctx, t.guards, m.current, event) {
			return t.to, nil
		}
	}
	return m.current, &RejectedError[S, E]{State: m.current, Event: event}
}

func passes[S, E comparable](ctx context.Context, guards []Guard[S, E], from S, event E) bool {
	for _, g := range guards {
		if !g(ctx, from, event) {
			return false
		}
	}
	return true
}
