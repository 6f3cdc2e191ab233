// Package scriptd runs long-lived automated scripts built from polled tasks.
//
// Example usage:
//
//	s, err := scriptd.New(scriptd.Manifest{Name: "Fisher"}, scriptd.IdentityFor(Fisher{}),
//	    scriptd.WithTasks(bank, fish),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := scriptd.Run(ctx, s); err != nil {
//	    log.Fatal(err)
//	}
//
// The building blocks live in pkg/: lifecycle (signals and callbacks), clock
// (runtime accounting), settings (persistent key-value store), task (the
// scheduler) and script (the shell tying them together).
package scriptd

import (
	"context"
	"errors"

	"github.com/bft-labs/scriptd/pkg/lifecycle"
	"github.com/bft-labs/scriptd/pkg/script"
	"github.com/bft-labs/scriptd/pkg/settings"
	"github.com/bft-labs/scriptd/pkg/task"
)

// Re-exported types for callers that only need the shell.
type (
	Script   = script.Script
	Manifest = script.Manifest
	Option   = script.Option
	Identity = settings.Identity
	Task     = task.Task
	TaskFunc = task.Func
)

// Re-exported options. The rest are in pkg/script.
var (
	WithTasks       = script.WithTasks
	WithLogger      = script.WithLogger
	WithStorageRoot = script.WithStorageRoot
	WithTracker     = script.WithTracker
	WithPlugin      = script.WithPlugin
)

// New creates a script. See script.New.
func New(manifest Manifest, identity Identity, opts ...Option) (*Script, error) {
	return script.New(manifest, identity, opts...)
}

// IdentityFor derives an identity from the Go type of v.
func IdentityFor(v interface{}) Identity {
	return settings.IdentityFor(v)
}

// Run starts s, blocks until ctx is done, then stops it. A failing start
// callback does not prevent the run; its error is returned with the stop
// result.
func Run(ctx context.Context, s *Script) error {
	startErr := s.Start(ctx)
	if startErr != nil && !errors.Is(startErr, lifecycle.ErrCallbackFailed) {
		return startErr
	}

	<-ctx.Done()
	return errors.Join(startErr, s.Stop())
}
