package lifecycle

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/bft-labs/scriptd/pkg/log"
)

// ErrCallbackFailed is matched (errors.Is) by every error returned from Fire.
var ErrCallbackFailed = errors.New("lifecycle: callback failed")

// Callback runs when its signal fires. A nil return means success.
type Callback func() error

// CallbackError describes one failed callback.
type CallbackError struct {
	Signal Signal
	Name   string
	Err    error
}

func (e *CallbackError) Error() string {
	return fmt.Sprintf("%s callback %s: %v", e.Signal, e.Name, e.Err)
}

func (e *CallbackError) Unwrap() error { return e.Err }

// FireError aggregates every callback failure of one firing.
type FireError struct {
	Signal   Signal
	Failures []*CallbackError
}

func (e *FireError) Error() string {
	msgs := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		msgs[i] = f.Error()
	}
	return fmt.Sprintf("lifecycle: %d %s callback(s) failed: %s",
		len(e.Failures), e.Signal, strings.Join(msgs, "; "))
}

// Unwrap exposes ErrCallbackFailed and each individual failure.
func (e *FireError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures)+1)
	errs = append(errs, ErrCallbackFailed)
	for _, f := range e.Failures {
		errs = append(errs, f)
	}
	return errs
}

type registered struct {
	name string
	fn   Callback
}

// Registry holds the ordered callbacks of every signal.
type Registry struct {
	mu        sync.RWMutex
	callbacks map[Signal][]registered
	logger    log.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger log.Logger) *Registry {
	return &Registry{
		callbacks: make(map[Signal][]registered, len(Signals)),
		logger:    log.OrNoop(logger),
	}
}

// Register appends cb to the callbacks of sig.
func (r *Registry) Register(sig Signal, cb Callback) {
	r.RegisterNamed(sig, "", cb)
}

// RegisterNamed appends cb under a name used in logs and errors.
// Nil callbacks are ignored.
func (r *Registry) RegisterNamed(sig Signal, name string, cb Callback) {
	if cb == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if name == "" {
		name = fmt.Sprintf("#%d", len(r.callbacks[sig]))
	}
	r.callbacks[sig] = append(r.callbacks[sig], registered{name: name, fn: cb})
}

// Len returns the number of callbacks registered for sig.
func (r *Registry) Len(sig Signal) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.callbacks[sig])
}

// Fire runs every callback of sig in registration order. A callback that
// returns an error or panics is recorded and the remaining callbacks still
// run. Fire returns nil only when every callback succeeded, otherwise a
// *FireError.
func (r *Registry) Fire(sig Signal) error {
	r.mu.RLock()
	batch := make([]registered, len(r.callbacks[sig]))
	copy(batch, r.callbacks[sig])
	r.mu.RUnlock()

	var failures []*CallbackError
	for _, cb := range batch {
		if err := invoke(cb.fn); err != nil {
			r.logger.Warn("transition callback failed",
				log.String("signal", sig.String()),
				log.String("callback", cb.name),
				log.Err(err))
			failures = append(failures, &CallbackError{Signal: sig, Name: cb.name, Err: err})
		}
	}

	if len(failures) > 0 {
		return &FireError{Signal: sig, Failures: failures}
	}
	return nil
}

func invoke(fn Callback) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
