package script

import (
	"time"

	"github.com/bft-labs/scriptd/pkg/lifecycle"
)

// State is the dwell state of a script.
type State = lifecycle.State

// Dwell states.
const (
	StateStopped   = lifecycle.StateStopped
	StateRunning   = lifecycle.StateRunning
	StateSuspended = lifecycle.StateSuspended
	StateStopping  = lifecycle.StateStopping
)

// StateChangeEvent is emitted when the dwell state changes.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// TransitionEvent is emitted after a signal's callbacks ran.
type TransitionEvent struct {
	Signal lifecycle.Signal
	// Err is nil when every callback succeeded.
	Err error
}

// TaskEvent is emitted after the scheduler executed a task.
type TaskEvent struct {
	Name     string
	Duration time.Duration
	Err      error
}

// EventHandler receives script events. Calls are synchronous; handlers must
// return quickly.
type EventHandler interface {
	OnStateChange(StateChangeEvent)
	OnTransition(TransitionEvent)
	OnTaskExecuted(TaskEvent)
}

// BaseEventHandler implements EventHandler with no-ops, for embedding.
type BaseEventHandler struct{}

func (BaseEventHandler) OnStateChange(StateChangeEvent) {}
func (BaseEventHandler) OnTransition(TransitionEvent)   {}
func (BaseEventHandler) OnTaskExecuted(TaskEvent)       {}

// eventEmitterWrapper adapts EventHandler to the internal emitter interfaces.
type eventEmitterWrapper struct {
	handler EventHandler
}

func (e *eventEmitterWrapper) OnStateChange(previous, current lifecycle.State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{Previous: previous, Current: current, Reason: reason})
}

func (e *eventEmitterWrapper) OnTaskExecuted(name string, duration time.Duration, err error) {
	if e.handler == nil {
		return
	}
	e.handler.OnTaskExecuted(TaskEvent{Name: name, Duration: duration, Err: err})
}

func (e *eventEmitterWrapper) onTransition(sig lifecycle.Signal, err error) {
	if e.handler == nil {
		return
	}
	e.handler.OnTransition(TransitionEvent{Signal: sig, Err: err})
}
