// Package task defines the unit of work a script polls and the scheduler that
// picks which unit runs next.
//
// Each scheduling cycle walks the task list in priority (registration) order
// and executes the first task whose precondition holds. Higher priority tasks
// that stay valid starve the ones behind them; that is the intended policy.
package task

import (
	"context"
	"fmt"
)

// Task is a precondition-gated unit of work.
//
// Valid is called on every cycle and should be cheap. A task may cache what it
// found during Valid for use in the Execute that immediately follows, but
// Execute must re-check anything volatile: time passes between the two calls.
type Task interface {
	Valid(ctx context.Context) bool
	Execute(ctx context.Context) error
}

// Named is implemented by tasks that report a name for logs and metrics.
type Named interface {
	Name() string
}

// NameOf returns t's name, or its type when it has none.
func NameOf(t Task) string {
	if n, ok := t.(Named); ok {
		if name := n.Name(); name != "" {
			return name
		}
	}
	return fmt.Sprintf("%T", t)
}

// Func adapts a pair of functions to Task.
type Func struct {
	Label     string
	ValidFn   func(ctx context.Context) bool
	ExecuteFn func(ctx context.Context) error
}

// Valid calls ValidFn. A nil ValidFn is always valid.
func (f Func) Valid(ctx context.Context) bool {
	if f.ValidFn == nil {
		return true
	}
	return f.ValidFn(ctx)
}

// Execute calls ExecuteFn.
func (f Func) Execute(ctx context.Context) error {
	if f.ExecuteFn == nil {
		return nil
	}
	return f.ExecuteFn(ctx)
}

// Name returns Label.
func (f Func) Name() string { return f.Label }
