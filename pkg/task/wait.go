package task

import (
	"context"
	"math/rand"
	"time"
)

// Poll increments used by Until.
const (
	PollMin = 100 * time.Millisecond
	PollMax = 250 * time.Millisecond
)

// Gate blocks callers while progress is not allowed, such as while a script
// is suspended. Wait returns early with the context's error.
type Gate interface {
	Wait(ctx context.Context) error
}

// Waiter provides sleeps that wake early on cancellation and hold while a
// gate is closed. A zero Waiter has no gate.
type Waiter struct {
	gate Gate
}

// NewWaiter creates a waiter honoring gate. A nil gate never blocks.
func NewWaiter(gate Gate) *Waiter {
	return &Waiter{gate: gate}
}

// Sleep waits for d, then for the gate to open. It returns false when ctx
// ended first; an early wake is not an error.
func (w *Waiter) Sleep(ctx context.Context, d time.Duration) bool {
	if d > 0 {
		t := time.NewTimer(d)
		select {
		case <-ctx.Done():
			t.Stop()
			return false
		case <-t.C:
		}
	}
	if w != nil && w.gate != nil {
		if err := w.gate.Wait(ctx); err != nil {
			return false
		}
	}
	return ctx.Err() == nil
}

// SleepBetween sleeps for a random duration in [min, max).
func (w *Waiter) SleepBetween(ctx context.Context, min, max time.Duration) bool {
	return w.Sleep(ctx, Between(min, max))
}

// Until polls cond in small randomized increments until it holds or timeout
// elapses. It reports whether cond held.
func (w *Waiter) Until(ctx context.Context, timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for {
		if cond() {
			return true
		}
		if !time.Now().Before(deadline) {
			return false
		}
		if !w.SleepBetween(ctx, PollMin, PollMax) {
			return false
		}
	}
}

// Between returns a random duration in [min, max). It returns min when the
// range is empty.
func Between(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}
