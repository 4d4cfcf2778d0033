// Package statemachine provides a small, generic finite state machine.
//
// States and events are any comparable types, typically string-based
// constants:
//
//	type State string
//	type Event string
//
//	m := statemachine.New[State, Event]("idle",
//		statemachine.WithTransition[State, Event]("idle", "running", "start"),
//		statemachine.WithTransition[State, Event]("running", "idle", "stop"),
//		statemachine.WithObserver(func(ctx context.Context, from, to State, ev Event) {
//			slog.InfoContext(ctx, "state changed", "from", from, "to", to)
//		}),
//	)
//
//	if _, err := m.Fire(ctx, "start"); errors.Is(err, statemachine.ErrInvalidTransition) {
//		// not allowed from the current state
//	}
//
// Guards may veto a transition. When several transitions share a state/event
// pair the first one whose guards pass is taken, which allows priority
// ordering. Observers are called after the state changed and outside the
// machine lock, so they may safely query the machine.
package statemachine
