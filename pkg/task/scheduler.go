package task

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bft-labs/scriptd/pkg/log"
)

// Observer is notified after every execution the scheduler performs.
type Observer interface {
	OnTaskExecuted(name string, duration time.Duration, err error)
}

// Scheduler owns an ordered task list and runs at most one task per cycle.
type Scheduler struct {
	mu       sync.RWMutex
	tasks    []Task
	logger   log.Logger
	observer Observer
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithObserver sets the execution observer.
func WithObserver(o Observer) SchedulerOption {
	return func(s *Scheduler) {
		s.observer = o
	}
}

// NewScheduler creates an empty scheduler.
func NewScheduler(logger log.Logger, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{logger: log.OrNoop(logger)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit appends tasks at the lowest priority.
func (s *Scheduler) Submit(tasks ...Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range tasks {
		if t != nil {
			s.tasks = append(s.tasks, t)
		}
	}
}

// Replace swaps the whole task list. A cycle already in progress finishes
// with the list it started with.
func (s *Scheduler) Replace(tasks []Task) {
	next := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if t != nil {
			next = append(next, t)
		}
	}
	s.mu.Lock()
	s.tasks = next
	s.mu.Unlock()
}

// Tasks returns a snapshot of the task list in priority order.
func (s *Scheduler) Tasks() []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Len returns the number of tasks.
func (s *Scheduler) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// RunCycle executes the first valid task and reports whether one ran.
//
// RunCycle blocks for as long as the chosen task's Execute does. A task that
// fails or panics is logged and stays in place; it is evaluated again, first
// in its priority slot, on the next cycle.
func (s *Scheduler) RunCycle(ctx context.Context) bool {
	for _, t := range s.Tasks() {
		if ctx.Err() != nil {
			return false
		}
		if !s.valid(ctx, t) {
			continue
		}
		s.execute(ctx, t)
		return true
	}
	return false
}

func (s *Scheduler) valid(ctx context.Context, t Task) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("task precondition panicked",
				log.String("task", NameOf(t)),
				log.Any("panic", r))
			ok = false
		}
	}()
	return t.Valid(ctx)
}

func (s *Scheduler) execute(ctx context.Context, t Task) {
	name := NameOf(t)
	start := time.Now()
	err := safeExecute(ctx, t)
	took := time.Since(start)

	if err != nil {
		s.logger.Error("task failed",
			log.String("task", name),
			log.Duration("duration", took),
			log.Err(err))
	} else {
		s.logger.Debug("task executed",
			log.String("task", name),
			log.Duration("duration", took))
	}

	if s.observer != nil {
		s.observer.OnTaskExecuted(name, took, err)
	}
}

func safeExecute(ctx context.Context, t Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panic: %v", r)
		}
	}()
	return t.Execute(ctx)
}
