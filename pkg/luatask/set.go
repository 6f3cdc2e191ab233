package luatask

import (
	"sync"

	"github.com/bft-labs/scriptd/pkg/log"
	"github.com/bft-labs/scriptd/pkg/task"
)

// Replacer receives a freshly loaded task list. *script.Script satisfies it.
type Replacer interface {
	Replace(tasks []task.Task)
}

// Set owns the tasks loaded from one directory. Reload swaps the whole set
// into a Replacer and closes the previous tasks.
type Set struct {
	dir    string
	env    Env
	target Replacer
	opts   []Option
	logger log.Logger

	mu    sync.Mutex
	tasks []*Task
}

// NewSet creates an empty set for dir. Options are passed to every Load.
func NewSet(dir string, env Env, target Replacer, opts ...Option) *Set {
	// Apply the options to a throwaway task to pick up the logger.
	probe := &Task{logger: log.NoopLogger{}}
	for _, opt := range opts {
		opt(probe)
	}
	return &Set{
		dir:    dir,
		env:    env,
		target: target,
		opts:   opts,
		logger: probe.logger,
	}
}

// Dir returns the watched directory.
func (s *Set) Dir() string { return s.dir }

// Reload loads the directory and replaces the target's tasks. On error the
// current tasks stay in place.
func (s *Set) Reload() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := LoadDir(s.dir, s.env, s.opts...)
	if err != nil {
		s.logger.Warn("task reload failed, keeping current tasks",
			log.String("dir", s.dir),
			log.Err(err))
		return len(s.tasks), err
	}

	s.target.Replace(Tasks(tasks))
	previous := s.tasks
	s.tasks = tasks
	CloseAll(previous)

	names := make([]string, len(tasks))
	for i, t := range tasks {
		names[i] = t.Name()
	}
	s.logger.Info("tasks loaded", log.String("dir", s.dir), log.Strings("tasks", names))
	return len(tasks), nil
}

// Len returns the number of loaded tasks.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Close closes every loaded task.
func (s *Set) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	CloseAll(s.tasks)
	s.tasks = nil
}
