package statemachine_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifystream/pkg/statemachine"
)

type state string

type event string

const (
	idle    state = "idle"
	running state = "running"
	stopped state = "stopped"

	start event = "start"
	stop  event = "stop"
	kill  event = "kill"
)

func newMachine(opts ...statemachine.Option[state, event]) *statemachine.Machine[state, event] {
	base := []statemachine.Option[state, event]{
		statemachine.WithTransition[state, event](idle, running, start),
		statemachine.WithTransition[state, event](running, idle, stop),
		statemachine.WithTransitionFrom[state, event]([]state{idle, running}, stopped, kill),
	}
	return statemachine.New(idle, append(base, opts...)...)
}

func TestMachine_Fire(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		events  []event
		want    state
		wantErr bool
	}{
		{name: "single transition", events: []event{start}, want: running},
		{name: "round trip", events: []event{start, stop}, want: idle},
		{name: "shared target from idle", events: []event{kill}, want: stopped},
		{name: "shared target from running", events: []event{start, kill}, want: stopped},
		{name: "undefined event", events: []event{stop}, want: idle, wantErr: true},
		{name: "terminal state", events: []event{kill, start}, want: stopped, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := newMachine()

			var err error
			for _, ev := range tt.events {
				if _, err = m.Fire(context.Background(), ev); err != nil {
					break
				}
			}

			if tt.wantErr {
				require.ErrorIs(t, err, statemachine.ErrInvalidTransition)
				var nte *statemachine.NoTransitionError[state, event]
				assert.ErrorAs(t, err, &nte)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, m.Current())
		})
	}
}

func TestMachine_FireReturnsPreviousState(t *testing.T) {
	t.Parallel()

	m := newMachine()
	from, err := m.Fire(context.Background(), start)
	require.NoError(t, err)
	assert.Equal(t, idle, from)
	assert.True(t, m.Is(running, stopped))
	assert.False(t, m.Is(idle))
}

func TestMachine_Guards(t *testing.T) {
	t.Parallel()

	var allow atomic.Bool
	guard := func(context.Context, state, event) bool { return allow.Load() }

	m := statemachine.New(idle,
		statemachine.WithTransition(idle, running, start, guard),
		statemachine.WithTransition[state, event](running, idle, stop, nil),
	)

	assert.False(t, m.CanFire(context.Background(), start))
	_, err := m.Fire(context.Background(), start)
	var rejected *statemachine.RejectedError[state, event]
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, idle, rejected.State)
	assert.Equal(t, start, rejected.Event)
	assert.ErrorIs(t, err, statemachine.ErrInvalidTransition)

	allow.Store(true)
	assert.True(t, m.CanFire(context.Background(), start))
	_, err = m.Fire(context.Background(), start)
	require.NoError(t, err)

	_, err = m.Fire(context.Background(), stop)
	require.NoError(t, err, "nil guard is ignored")
}

func TestMachine_GuardPriority(t *testing.T) {
	t.Parallel()

	deny := func(context.Context, state, event) bool { return false }
	m := statemachine.New(idle,
		statemachine.WithTransition(idle, stopped, start, deny),
		statemachine.WithTransition[state, event](idle, running, start),
	)

	_, err := m.Fire(context.Background(), start)
	require.NoError(t, err)
	assert.Equal(t, running, m.Current())
}

func TestMachine_Observers(t *testing.T) {
	t.Parallel()

	type change struct {
		from, to state
		ev       event
	}
	var (
		mu      sync.Mutex
		changes []change
	)

	var m *statemachine.Machine[state, event]
	m = newMachine(statemachine.WithObserver(func(_ context.Context, from, to state, ev event) {
		assert.Equal(t, to, m.Current(), "observer may query the machine")
		mu.Lock()
		defer mu.Unlock()
		changes = append(changes, change{from: from, to: to, ev: ev})
	}))

	_, _ = m.Fire(context.Background(), start)
	_, _ = m.Fire(context.Background(), start)
	_, _ = m.Fire(context.Background(), kill)

	assert.Equal(t, []change{
		{from: idle, to: running, ev: start},
		{from: running, to: stopped, ev: kill},
	}, changes, "rejected fires are not observed")
}

func TestMachine_Reset(t *testing.T) {
	t.Parallel()

	m := newMachine()
	_, err := m.Fire(context.Background(), kill)
	require.NoError(t, err)

	m.Reset()
	assert.Equal(t, idle, m.Current())
}

func TestMachine_ConcurrentFire(t *testing.T) {
	t.Parallel()

	m := newMachine()
	var (
		wg   sync.WaitGroup
		wins atomic.Int32
	)
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.Fire(context.Background(), kill); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load(), "exactly one goroutine performs the terminal transition")
	assert.Equal(t, stopped, m.Current())
}
