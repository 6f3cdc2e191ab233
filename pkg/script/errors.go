package script

import (
	"errors"

	"github.com/bft-labs/scriptd/pkg/lifecycle"
)

// Errors returned by the control operations. Check with errors.Is.
var (
	// ErrAlreadyRunning is returned when Start is called on a started script.
	ErrAlreadyRunning = errors.New("script: already running")

	// ErrNotRunning is returned when Suspend or Stop is called on a script
	// that is not running.
	ErrNotRunning = errors.New("script: not running")

	// ErrNotSuspended is returned when Resume is called on a script that is
	// not suspended.
	ErrNotSuspended = errors.New("script: not suspended")

	// ErrShutdownTimeout is returned when the worker outlives the shutdown timeout.
	ErrShutdownTimeout = lifecycle.ErrShutdownTimeout

	// ErrInvalidConfig is returned by New for unusable arguments.
	ErrInvalidConfig = errors.New("script: invalid configuration")
)
