package session

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/notifystream/pkg/logger"
	"github.com/dmitrymomot/notifystream/pkg/statemachine"
)

// State is a step in the lifecycle of one streaming connection.
type State string

const (
	StateConnecting State = "connecting"
	StateOpen       State = "open"
	StateClosing    State = "closing"
	StateClosed     State = "closed"
)

type trigger string

const (
	triggerOpened    trigger = "opened"
	triggerRejected  trigger = "rejected"
	triggerTerminate trigger = "terminate"
	triggerReleased  trigger = "released"
)

type lifecycle = statemachine.Machine[State, trigger]

func newLifecycle(log *slog.Logger, connID string, observers []StateObserver) *lifecycle {
	opts := []statemachine.Option[State, trigger]{
		statemachine.WithTransition[State, trigger](StateConnecting, StateOpen, triggerOpened),
		statemachine.WithTransition[State, trigger](StateConnecting, StateClosed, triggerRejected),
		statemachine.WithTransition[State, trigger](StateOpen, StateClosing, triggerTerminate),
		statemachine.WithTransition[State, trigger](StateClosing, StateClosed, triggerReleased),
		statemachine.WithObserver(func(ctx context.Context, from, to State, _ trigger) {
			log.LogAttrs(ctx, slog.LevelDebug, "Stream session state changed",
				logger.ConnectionID(connID),
				slog.String("from", string(from)),
				logger.State(string(to)),
			)
		}),
	}
	for _, fn := range observers {
		opts = append(opts, statemachine.WithObserver(func(ctx context.Context, from, to State, _ trigger) {
			fn(ctx, connID, from, to)
		}))
	}
	return statemachine.New(StateConnecting, opts...)
}
