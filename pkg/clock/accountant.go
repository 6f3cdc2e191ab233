// Package clock tracks how long a script has been alive and how much of that
// time it actually spent running.
//
// Total time runs from the first start. Active time is total time minus every
// suspended interval. Suspensions are queued, so nested suspend calls are each
// matched by a later resume in FIFO order.
package clock

import (
	"sync"
	"sync/atomic"
	"time"
)

// Accountant accumulates runtime and suspended time.
//
// All methods are safe for concurrent use. Transition callbacks mutate the
// accountant from the controlling goroutine while the worker reads it.
type Accountant struct {
	now    func() time.Time
	origin time.Time // carries the monotonic reading when now is time.Now

	// Timestamps below are nanosecond offsets from origin.
	startedAt atomic.Int64
	started   atomic.Bool
	suspended atomic.Int64 // accumulated nanos
	anomalies atomic.Int64

	mu      sync.Mutex
	pending []int64
}

// New creates an accountant. A nil now defaults to time.Now.
// The start time is provisionally the construction time until Start is called.
func New(now func() time.Time) *Accountant {
	if now == nil {
		now = time.Now
	}
	return &Accountant{now: now, origin: now()}
}

// offset returns the time since origin. Sub uses the monotonic clock when
// both readings carry one, so wall clock steps do not leak in.
func (a *Accountant) offset() int64 {
	return int64(a.now().Sub(a.origin))
}

// Start records the start time. Only the first call has an effect; later
// starts and resumes never move the origin.
func (a *Accountant) Start() {
	if a.started.CompareAndSwap(false, true) {
		a.startedAt.Store(a.offset())
	}
}

// Suspend records the beginning of a suspended interval.
func (a *Accountant) Suspend() {
	ts := a.offset()
	a.mu.Lock()
	a.pending = append(a.pending, ts)
	a.mu.Unlock()
}

// Resume closes the oldest pending suspended interval and adds its length to
// the suspended total. It reports false, and records an anomaly, when there
// is no pending suspension.
func (a *Accountant) Resume() bool {
	a.mu.Lock()
	if len(a.pending) == 0 {
		a.mu.Unlock()
		a.anomalies.Add(1)
		return false
	}
	ts := a.pending[0]
	a.pending = a.pending[1:]
	a.mu.Unlock()

	if delta := a.offset() - ts; delta > 0 {
		a.suspended.Add(delta)
	}
	return true
}

// ResumeAll closes every pending suspended interval at the current time and
// returns how many were closed. It does not count anomalies.
func (a *Accountant) ResumeAll() int {
	a.mu.Lock()
	pending := a.pending
	a.pending = nil
	a.mu.Unlock()

	now := a.offset()
	for _, ts := range pending {
		if delta := now - ts; delta > 0 {
			a.suspended.Add(delta)
		}
	}
	return len(pending)
}

// TotalElapsed returns the time since start, suspended intervals included.
func (a *Accountant) TotalElapsed() time.Duration {
	return time.Duration(a.offset() - a.startedAt.Load())
}

// ActiveElapsed returns the time since start minus all closed suspended intervals.
func (a *Accountant) ActiveElapsed() time.Duration {
	return time.Duration(a.offset() - a.startedAt.Load() - a.suspended.Load())
}

// TotalSeconds returns TotalElapsed truncated to whole seconds.
func (a *Accountant) TotalSeconds() int64 {
	return int64(a.TotalElapsed() / time.Second)
}

// ActiveSeconds returns ActiveElapsed truncated to whole seconds.
func (a *Accountant) ActiveSeconds() int64 {
	return int64(a.ActiveElapsed() / time.Second)
}

// Suspended returns the accumulated suspended time of closed intervals.
func (a *Accountant) Suspended() time.Duration {
	return time.Duration(a.suspended.Load())
}

// Pending returns the number of suspensions awaiting a resume.
func (a *Accountant) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pending)
}

// Anomalies returns how many resumes arrived without a pending suspension.
func (a *Accountant) Anomalies() int64 {
	return a.anomalies.Load()
}
