package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bft-labs/scriptd/pkg/log"
)

// Common lifecycle errors.
var (
	ErrInvalidTransition = errors.New("lifecycle: invalid transition")
	ErrShutdownTimeout   = errors.New("lifecycle: shutdown timeout")
)

// ShutdownTimeout is the default maximum time to wait for workers on stop.
const ShutdownTimeout = 30 * time.Second

// validTransitions lists the allowed targets of each state.
var validTransitions = map[State][]State{
	StateStopped:   {StateRunning},
	StateRunning:   {StateSuspended, StateStopping},
	StateSuspended: {StateRunning, StateStopping},
	StateStopping:  {StateStopped},
}

// Machine tracks the dwell state and the worker goroutines of a script.
type Machine struct {
	mu           sync.RWMutex
	state        State
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	logger       log.Logger
	eventEmitter EventEmitter
}

// NewMachine creates a machine in StateStopped.
func NewMachine(logger log.Logger, emitter EventEmitter) *Machine {
	return &Machine{
		state:        StateStopped,
		logger:       log.OrNoop(logger),
		eventEmitter: emitter,
	}
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// CanTransition reports whether moving to target is currently allowed.
func (m *Machine) CanTransition(target State) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return allowed(m.state, target)
}

// TransitionTo moves to newState, or returns ErrInvalidTransition.
func (m *Machine) TransitionTo(newState State, reason string) error {
	m.mu.Lock()
	oldState := m.state
	if !allowed(oldState, newState) {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, oldState, newState)
	}
	m.state = newState
	m.mu.Unlock()

	// Emit outside of lock
	if m.eventEmitter != nil {
		m.eventEmitter.OnStateChange(oldState, newState, reason)
	}

	m.logger.Info("state transition",
		log.String("from", oldState.String()),
		log.String("to", newState.String()),
		log.String("reason", reason),
	)
	return nil
}

func allowed(from, to State) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// SetCancel stores the cancel function of the worker context.
func (m *Machine) SetCancel(cancel context.CancelFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancel = cancel
}

// Cancel cancels the worker context, if any.
func (m *Machine) Cancel() {
	m.mu.Lock()
	cancel := m.cancel
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// AddWorker increments the worker count.
func (m *Machine) AddWorker() {
	m.wg.Add(1)
}

// WorkerDone decrements the worker count.
func (m *Machine) WorkerDone() {
	m.wg.Done()
}

// WaitWithTimeout waits for all workers to finish.
// Returns ErrShutdownTimeout if the timeout expires first.
func (m *Machine) WaitWithTimeout(timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		m.logger.Warn("shutdown timeout, abandoning workers",
			log.Duration("timeout", timeout),
		)
		return ErrShutdownTimeout
	}
}
