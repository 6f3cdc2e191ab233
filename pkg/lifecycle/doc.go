// Package lifecycle provides the transition signals, dwell states and
// callback registry behind a script's control operations.
//
// A [Signal] (start, suspend, resume, stop) is fired once per transition. The
// [Registry] maps each signal to an ordered list of callbacks; firing runs all
// of them in registration order even when some fail, and reports failure if
// any did.
//
// The [Machine] tracks the dwell state the signals move between and rejects
// transitions that make no sense, such as resuming a script that was never
// suspended.
//
// # State Machine
//
// Valid state transitions:
//   - Stopped -> Running (start)
//   - Running -> Suspended (suspend)
//   - Suspended -> Running (resume)
//   - Running, Suspended -> Stopping (stop)
//   - Stopping -> Stopped
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
//
// See version.go for version constants that can be used programmatically.
package lifecycle
