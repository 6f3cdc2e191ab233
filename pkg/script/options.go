package script

import (
	"time"

	"github.com/bft-labs/scriptd/pkg/log"
	"github.com/bft-labs/scriptd/pkg/settings"
	"github.com/bft-labs/scriptd/pkg/task"
	"github.com/bft-labs/scriptd/pkg/track"
)

// Option configures optional behavior of a Script.
type Option func(*options)

// options holds the optional configuration for a Script instance.
type options struct {
	logger          log.Logger
	storageRoot     string
	backend         settings.Backend
	tracker         track.Tracker
	eventHandler    EventHandler
	plugins         []Plugin
	tasks           []task.Task
	idleInitial     time.Duration
	idleMax         time.Duration
	shutdownTimeout time.Duration
	now             func() time.Time
}

func defaultOptions() options {
	return options{
		logger:          log.NoopLogger{},
		storageRoot:     settings.DefaultRoot(),
		tracker:         track.Noop{},
		idleInitial:     task.DefaultBackoffInitial,
		idleMax:         task.DefaultBackoffMax,
		shutdownTimeout: DefaultShutdownTimeout,
		now:             time.Now,
	}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = log.OrNoop(logger)
	}
}

// WithStorageRoot sets the directory under which per-script storage
// directories are created. Defaults to settings.DefaultRoot().
func WithStorageRoot(root string) Option {
	return func(o *options) {
		o.storageRoot = root
	}
}

// WithSettingsBackend replaces the default XML file backend, for example
// with a settings.RedisBackend.
func WithSettingsBackend(backend settings.Backend) Option {
	return func(o *options) {
		o.backend = backend
	}
}

// WithTracker sets the page-view tracker exposed through Script.Tracker.
func WithTracker(t track.Tracker) Option {
	return func(o *options) {
		if t != nil {
			o.tracker = t
		}
	}
}

// WithEventHandler sets a handler for script events.
// Events are called synchronously from the goroutine that caused them.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithPlugin registers a plugin to be initialized on every Start.
// Plugins are initialized in registration order and shut down in reverse order.
func WithPlugin(plugin Plugin) Option {
	return func(o *options) {
		o.plugins = append(o.plugins, plugin)
	}
}

// WithTasks submits tasks to the scheduler at construction.
func WithTasks(tasks ...task.Task) Option {
	return func(o *options) {
		o.tasks = append(o.tasks, tasks...)
	}
}

// WithIdleBackoff bounds the wait between cycles in which no task was valid.
func WithIdleBackoff(initial, max time.Duration) Option {
	return func(o *options) {
		o.idleInitial = initial
		o.idleMax = max
	}
}

// WithShutdownTimeout bounds how long Stop waits for the worker.
func WithShutdownTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.shutdownTimeout = d
		}
	}
}

// WithClock replaces the wall clock used for runtime accounting.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
