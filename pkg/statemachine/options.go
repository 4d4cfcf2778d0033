package statemachine

// Option configures a Machine during construction.
type Option[S, E comparable] func(*Machine[S, E])

// WithTransition allows event to move the machine from one state to another.
// Nil guards are ignored.
func WithTransition[S, E comparable](from, to S, event E, guards ...Guard[S, E]) Option[S, E] {
	return func(m *Machine[S, E]) {
		t := transition[S, E]{to: to}
		for _, g := range guards {
			if g != nil {
				t.guards = append(t.guards, g)
			}
		}
		if m.transitions[from] == nil {
			m.transitions[from] = make(map[E][]transition[S, E])
		}
		m.transitions[from][event] = append(m.transitions[from][event], t)
	}
}

// WithTransitionFrom registers the same transition for several source states.
func WithTransitionFrom[S, E comparable](from []S, to S, event E, guards ...Guard[S, E]) Option[S, E] {
	return func(m *Machine[S, E]) {
		for _, f := range from {
			WithTransition(f, to, event, guards...)(m)
		}
	}
}

// WithObserver registers fn to be called after every applied transition.
func WithObserver[S, E comparable](fn Observer[S, E]) Option[S, E] {
	return func(m *Machine[S, E]) {
		if fn != nil {
			m.observers = append(m.observers, fn)
		}
	}
}
