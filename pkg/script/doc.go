// Package script provides the lifecycle shell that drives a long-running
// automated script.
//
// A [Script] ties together a transition registry, a runtime accountant, a
// settings store and a task scheduler. An external controller calls
// [Script.Start], [Script.Suspend], [Script.Resume] and [Script.Stop]; while
// running, a single worker goroutine repeatedly executes the first task whose
// precondition holds.
//
// # Basic Usage
//
//	s, err := script.New(script.Manifest{Name: "Fisher", Version: 1.2}, "com.acme.Fisher",
//	    script.WithLogger(logger),
//	    script.WithTasks(bankTask, fishTask),
//	)
//	if err != nil {
//	    return err
//	}
//	if err := s.Start(ctx); err != nil {
//	    return err
//	}
//	...
//	if err := s.Stop(); err != nil {
//	    log.Printf("stop: %v", err)
//	}
//
// # Suspension
//
// Suspension is cooperative. Suspend records the time and closes a gate; the
// worker checks the gate before every cycle, and the waits offered by
// [Script.Sleep], [Script.SleepBetween] and [Script.SleepUntil] hold while the
// gate is closed. A task that never waits keeps running until its Execute
// returns.
//
// # Transition Callbacks
//
// Every script registers these callbacks at construction, ahead of any user
// callback:
//
//   - start: record the start time (first start only)
//   - suspend: open a suspended interval
//   - resume: close the oldest suspended interval
//   - stop: flush settings (write when non-empty, delete when empty)
//
// Additional callbacks can be added through [Script.Registry]. All callbacks of
// a signal run even if some fail; the control operation then returns an error
// matching lifecycle.ErrCallbackFailed while the transition itself stands.
//
// # Events
//
// Implement [EventHandler] (embedding [BaseEventHandler] for no-op defaults)
// and pass it via [WithEventHandler] to observe state changes, signal firings
// and task executions.
package script
