package script

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bft-labs/scriptd/pkg/clock"
	"github.com/bft-labs/scriptd/pkg/lifecycle"
	"github.com/bft-labs/scriptd/pkg/log"
	"github.com/bft-labs/scriptd/pkg/settings"
	"github.com/bft-labs/scriptd/pkg/task"
	"github.com/bft-labs/scriptd/pkg/track"
)

// DefaultShutdownTimeout bounds how long Stop waits for the worker.
const DefaultShutdownTimeout = lifecycle.ShutdownTimeout

// flushTimeout bounds the settings write performed by the stop callback.
const flushTimeout = 10 * time.Second

// Script is a long-running automated script driven by an external controller.
// Use New() to create an instance, then Start() to begin running tasks.
type Script struct {
	manifest    Manifest
	identity    settings.Identity
	storageRoot string
	opts        options
	logger      log.Logger

	machine    *lifecycle.Machine
	registry   *lifecycle.Registry
	accountant *clock.Accountant
	settings   *settings.Store
	scheduler  *task.Scheduler
	waiter     *task.Waiter
	gate       *gate
	emitter    *eventEmitterWrapper
	plugins    []Plugin

	// ctl serializes the control operations. Callbacks must not call them.
	ctl sync.Mutex

	mu        sync.RWMutex
	ctx       context.Context
	sessionID string
}

// New creates a script in StateStopped. The identity keys the storage
// directory and the settings; use settings.IdentityFor to derive it from a
// Go type. Settings are loaded once, here.
func New(manifest Manifest, identity settings.Identity, opts ...Option) (*Script, error) {
	if err := identity.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if err := validateModuleVersions(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.storageRoot == "" {
		return nil, fmt.Errorf("%w: empty storage root", ErrInvalidConfig)
	}

	logger := o.logger.With(log.String("script", string(identity)))
	emitter := &eventEmitterWrapper{handler: o.eventHandler}

	backend := o.backend
	if backend == nil {
		if err := os.MkdirAll(o.storageRoot, 0o700); err != nil {
			logger.Warn("storage root unavailable, settings kept in memory",
				log.String("root", o.storageRoot),
				log.Err(err))
			backend = settings.NewMemoryBackend()
		} else {
			backend = settings.NewFileBackend(o.storageRoot, identity)
		}
	}

	g := newGate()
	s := &Script{
		manifest:    manifest.withDefaults(),
		identity:    identity,
		storageRoot: o.storageRoot,
		opts:        o,
		logger:      logger,
		machine:     lifecycle.NewMachine(logger, emitter),
		registry:    lifecycle.NewRegistry(logger),
		accountant:  clock.New(o.now),
		settings:    settings.Open(context.Background(), backend, logger),
		scheduler:   task.NewScheduler(logger, task.WithObserver(emitter)),
		waiter:      task.NewWaiter(g),
		gate:        g,
		emitter:     emitter,
		plugins:     o.plugins,
		ctx:         context.Background(),
	}
	s.scheduler.Submit(o.tasks...)
	s.registerDefaults()

	return s, nil
}

// registerDefaults installs the built-in callbacks ahead of any user callback.
func (s *Script) registerDefaults() {
	s.registry.RegisterNamed(lifecycle.SignalStart, "runtime.start", func() error {
		s.accountant.Start()
		return nil
	})
	s.registry.RegisterNamed(lifecycle.SignalSuspend, "runtime.suspend", func() error {
		s.accountant.Suspend()
		return nil
	})
	s.registry.RegisterNamed(lifecycle.SignalResume, "runtime.resume", func() error {
		if !s.accountant.Resume() {
			s.logger.Warn("resume without a pending suspension",
				log.Int64("anomalies", s.accountant.Anomalies()))
		}
		return nil
	})
	s.registry.RegisterNamed(lifecycle.SignalStop, "runtime.stop", func() error {
		if n := s.accountant.ResumeAll(); n > 0 {
			s.logger.Debug("closed pending suspensions on stop", log.Int("count", n))
		}
		return nil
	})
	s.registry.RegisterNamed(lifecycle.SignalStop, "settings.flush", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
		defer cancel()
		return s.settings.Flush(ctx)
	})
}

// Start fires the start callbacks and launches the worker in the background.
// The provided context bounds the run; cancelling it ends the worker but
// leaves the state to a later Stop.
//
// A callback failure is returned as an error matching
// lifecycle.ErrCallbackFailed; the script is running regardless.
func (s *Script) Start(ctx context.Context) error {
	s.ctl.Lock()
	defer s.ctl.Unlock()

	if s.machine.State() != lifecycle.StateStopped {
		return ErrAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	sessionID := uuid.NewString()
	s.mu.Lock()
	s.ctx = runCtx
	s.sessionID = sessionID
	s.mu.Unlock()
	s.machine.SetCancel(cancel)

	pluginCfg := PluginConfig{
		Script:      s,
		Identity:    s.identity,
		StorageRoot: s.storageRoot,
		SessionID:   sessionID,
		Logger:      s.logger,
	}
	for i, p := range s.plugins {
		if err := p.Initialize(runCtx, pluginCfg); err != nil {
			s.logger.Error("plugin initialization failed",
				log.String("plugin", p.Name()),
				log.Err(err))
			cancel()
			s.shutdownPlugins(s.plugins[:i])
			return fmt.Errorf("plugin %s: %w", p.Name(), err)
		}
		s.logger.Info("plugin initialized", log.String("plugin", p.Name()))
	}

	fireErr := s.fire(lifecycle.SignalStart)

	s.gate.Open()
	if err := s.machine.TransitionTo(lifecycle.StateRunning, "Start() called"); err != nil {
		cancel()
		return err
	}

	s.logger.Info("script started",
		log.String("name", s.manifest.Name),
		log.Float64("version", s.manifest.Version),
		log.String("session", sessionID),
		log.Int("tasks", s.scheduler.Len()))

	s.machine.AddWorker()
	go s.run(runCtx)

	return fireErr
}

// Suspend moves a running script to StateSuspended. The worker pauses before
// its next cycle; the suspended interval is excluded from active runtime.
func (s *Script) Suspend() error {
	s.ctl.Lock()
	defer s.ctl.Unlock()

	if err := s.machine.TransitionTo(lifecycle.StateSuspended, "Suspend() called"); err != nil {
		return ErrNotRunning
	}
	s.gate.Close()
	return s.fire(lifecycle.SignalSuspend)
}

// Resume moves a suspended script back to StateRunning.
func (s *Script) Resume() error {
	s.ctl.Lock()
	defer s.ctl.Unlock()

	if s.machine.State() != lifecycle.StateSuspended {
		return ErrNotSuspended
	}
	if err := s.machine.TransitionTo(lifecycle.StateRunning, "Resume() called"); err != nil {
		return ErrNotSuspended
	}
	err := s.fire(lifecycle.SignalResume)
	s.gate.Open()
	return err
}

// Stop cancels the worker and waits up to the shutdown timeout for it to
// return. It then shuts plugins down in reverse order and fires the stop
// callbacks, which flush settings after the last task has finished.
// Returns ErrShutdownTimeout if the worker had to be abandoned.
func (s *Script) Stop() error {
	s.ctl.Lock()
	defer s.ctl.Unlock()

	if err := s.machine.TransitionTo(lifecycle.StateStopping, "Stop() called"); err != nil {
		return ErrNotRunning
	}

	s.machine.Cancel()
	s.gate.Open()

	waitErr := s.machine.WaitWithTimeout(s.opts.shutdownTimeout)

	s.shutdownPlugins(s.plugins)

	fireErr := s.fire(lifecycle.SignalStop)

	reason := "graceful shutdown"
	if waitErr != nil {
		reason = "shutdown timeout"
	}
	_ = s.machine.TransitionTo(lifecycle.StateStopped, reason)

	s.logger.Info("script stopped",
		log.Int64("total_seconds", s.accountant.TotalSeconds()),
		log.Int64("active_seconds", s.accountant.ActiveSeconds()))

	return errors.Join(waitErr, fireErr)
}

func (s *Script) shutdownPlugins(plugins []Plugin) {
	ctx := context.Background()
	for i := len(plugins) - 1; i >= 0; i-- {
		p := plugins[i]
		if err := p.Shutdown(ctx); err != nil {
			s.logger.Error("plugin shutdown failed",
				log.String("plugin", p.Name()),
				log.Err(err))
		} else {
			s.logger.Info("plugin shutdown complete", log.String("plugin", p.Name()))
		}
	}
}

func (s *Script) fire(sig lifecycle.Signal) error {
	err := s.registry.Fire(sig)
	s.emitter.onTransition(sig, err)
	return err
}

// run is the worker loop: gate, one scheduler cycle, idle backoff.
func (s *Script) run(ctx context.Context) {
	defer s.machine.WorkerDone()

	backoff := task.NewBackoff(s.opts.idleInitial, s.opts.idleMax)
	for {
		if err := s.gate.Wait(ctx); err != nil {
			return
		}
		if ctx.Err() != nil {
			return
		}
		if s.scheduler.RunCycle(ctx) {
			backoff.Reset()
			continue
		}
		if !backoff.Sleep(ctx) {
			return
		}
	}
}

// State returns the current dwell state.
// Safe to call concurrently from any goroutine.
func (s *Script) State() State {
	return s.machine.State()
}

// Suspended reports whether the script is suspended.
func (s *Script) Suspended() bool {
	return s.machine.State() == lifecycle.StateSuspended
}

// Manifest returns the script's metadata with defaults applied.
func (s *Script) Manifest() Manifest {
	return s.manifest.withDefaults()
}

// Name returns the manifest name.
func (s *Script) Name() string {
	return s.manifest.Name
}

// Version returns the manifest version, 1.0 when absent.
func (s *Script) Version() float64 {
	return s.manifest.Version
}

// Identity returns the key of the script's storage directory and settings.
func (s *Script) Identity() settings.Identity {
	return s.identity
}

// SessionID returns the identifier of the current or last run, empty before
// the first Start.
func (s *Script) SessionID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessionID
}

// Context returns the context of the current run. It is cancelled by Stop.
func (s *Script) Context() context.Context {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ctx
}

// Registry returns the transition callback registry.
func (s *Script) Registry() *lifecycle.Registry {
	return s.registry
}

// Settings returns the persistent settings store.
func (s *Script) Settings() *settings.Store {
	return s.settings
}

// Scheduler returns the task scheduler.
func (s *Script) Scheduler() *task.Scheduler {
	return s.scheduler
}

// Tracker returns the page-view tracker.
func (s *Script) Tracker() track.Tracker {
	return s.opts.tracker
}

// Logger returns the script's logger.
func (s *Script) Logger() log.Logger {
	return s.logger
}

// Use registers plugins after construction. They take part from the next Start.
func (s *Script) Use(plugins ...Plugin) {
	s.ctl.Lock()
	defer s.ctl.Unlock()
	s.plugins = append(s.plugins, plugins...)
}

// Submit appends tasks to the scheduler.
func (s *Script) Submit(tasks ...task.Task) {
	s.scheduler.Submit(tasks...)
}

// Replace swaps the scheduler's task list between cycles.
func (s *Script) Replace(tasks []task.Task) {
	s.scheduler.Replace(tasks)
	s.logger.Info("tasks replaced", log.Int("tasks", len(tasks)))
}

// TotalRuntimeSeconds returns whole seconds since the first start. Before
// it, time is counted from construction.
func (s *Script) TotalRuntimeSeconds() int64 {
	return s.accountant.TotalSeconds()
}

// ActiveRuntimeSeconds returns whole seconds since the first start, excluding
// completed suspended intervals.
func (s *Script) ActiveRuntimeSeconds() int64 {
	return s.accountant.ActiveSeconds()
}

// Runtime exposes the runtime accountant.
func (s *Script) Runtime() *clock.Accountant {
	return s.accountant
}

// StorageDirectory returns the script's private directory, creating it and
// any missing parents first.
func (s *Script) StorageDirectory() (string, error) {
	dir := settings.Dir(s.storageRoot, s.identity)
	if fb, ok := s.settings.Backend().(*settings.FileBackend); ok {
		dir = fb.Dir()
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create storage directory: %w", err)
	}
	return dir, nil
}

// Sleep waits for d and then for the script to be resumed. It returns false
// when ctx ended or the script stopped first.
func (s *Script) Sleep(ctx context.Context, d time.Duration) bool {
	return s.waiter.Sleep(ctx, d)
}

// SleepBetween sleeps for a random duration in [min, max).
func (s *Script) SleepBetween(ctx context.Context, min, max time.Duration) bool {
	return s.waiter.SleepBetween(ctx, min, max)
}

// SleepUntil polls cond until it holds or timeout elapses.
func (s *Script) SleepUntil(ctx context.Context, timeout time.Duration, cond func() bool) bool {
	return s.waiter.Until(ctx, timeout, cond)
}
