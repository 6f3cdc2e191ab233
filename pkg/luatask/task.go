package luatask

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/bft-labs/scriptd/pkg/log"
	"github.com/bft-labs/scriptd/pkg/settings"
	"github.com/bft-labs/scriptd/pkg/task"
	"github.com/bft-labs/scriptd/pkg/track"
)

// Lua globals a task file must or may define.
const (
	ValidFunc   = "valid"
	ExecuteFunc = "execute"
	NameGlobal  = "name"
	HostModule  = "script"
	Extension   = ".lua"
)

// DefaultValidTimeout bounds a single valid() call.
const DefaultValidTimeout = 5 * time.Second

var (
	// ErrMissingFunction is returned by Load when valid or execute is absent.
	ErrMissingFunction = errors.New("luatask: missing function")

	// ErrClosed is returned by Execute after Close.
	ErrClosed = errors.New("luatask: task closed")
)

// Env is what a Lua task can reach of its script. *script.Script satisfies it.
type Env interface {
	Settings() *settings.Store
	Sleep(ctx context.Context, d time.Duration) bool
	SleepBetween(ctx context.Context, min, max time.Duration) bool
	TotalRuntimeSeconds() int64
	ActiveRuntimeSeconds() int64
	Suspended() bool
	Tracker() track.Tracker
}

// Option configures a Task.
type Option func(*Task)

// WithLogger sets the logger used for script.log and Lua errors.
func WithLogger(logger log.Logger) Option {
	return func(t *Task) {
		t.logger = log.OrNoop(logger)
	}
}

// WithValidTimeout bounds valid(). Zero disables the bound.
func WithValidTimeout(d time.Duration) Option {
	return func(t *Task) {
		t.validTimeout = d
	}
}

// Task is a task.Task backed by a Lua file. The interpreter is not
// goroutine-safe, so all calls are serialized.
type Task struct {
	path         string
	name         string
	env          Env
	logger       log.Logger
	validTimeout time.Duration

	mu     sync.Mutex
	L      *lua.LState
	ctx    context.Context // context of the call in progress
	closed bool
}

var _ task.Task = (*Task)(nil)

// Load compiles the Lua file at path and checks that it defines valid and
// execute.
func Load(path string, env Env, opts ...Option) (*Task, error) {
	if env == nil {
		return nil, fmt.Errorf("luatask: nil env")
	}

	t := &Task{
		path:         path,
		name:         strings.TrimSuffix(filepath.Base(path), Extension),
		env:          env,
		logger:       log.NoopLogger{},
		validTimeout: DefaultValidTimeout,
		ctx:          context.Background(),
	}
	for _, opt := range opts {
		opt(t)
	}

	L := newSandboxedState()
	L.SetGlobal(HostModule, L.SetFuncs(L.NewTable(), t.hostFuncs()))

	if err := doWithRecovery(func() error { return L.DoFile(path) }); err != nil {
		L.Close()
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	for _, fn := range []string{ValidFunc, ExecuteFunc} {
		if L.GetGlobal(fn).Type() != lua.LTFunction {
			L.Close()
			return nil, fmt.Errorf("%w: %s() in %s", ErrMissingFunction, fn, path)
		}
	}

	if v, ok := L.GetGlobal(NameGlobal).(lua.LString); ok && v != "" {
		t.name = string(v)
	}
	t.L = L
	t.logger = t.logger.With(log.String("task", t.name))
	return t, nil
}

// Name returns the name global, or the file name without extension.
func (t *Task) Name() string { return t.name }

// Path returns the source file.
func (t *Task) Path() string { return t.path }

// Valid calls valid(). Lua errors are logged and count as false.
func (t *Task) Valid(ctx context.Context) bool {
	if t.validTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.validTimeout)
		defer cancel()
	}

	ret, err := t.call(ctx, ValidFunc)
	if err != nil {
		if !errors.Is(err, ErrClosed) {
			t.logger.Warn("valid() failed", log.Err(err))
		}
		return false
	}
	return lua.LVAsBool(ret)
}

// Execute calls execute() and surfaces Lua errors.
func (t *Task) Execute(ctx context.Context) error {
	_, err := t.call(ctx, ExecuteFunc)
	return err
}

// Close releases the interpreter. A call in progress finishes first.
func (t *Task) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	t.L.Close()
	return nil
}

func (t *Task) call(ctx context.Context, fn string) (lua.LValue, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return lua.LNil, ErrClosed
	}

	t.ctx = ctx
	t.L.SetContext(ctx)
	defer func() {
		t.L.RemoveContext()
		t.ctx = context.Background()
	}()

	var ret lua.LValue = lua.LNil
	err := doWithRecovery(func() error {
		if err := t.L.CallByParam(lua.P{
			Fn:      t.L.GetGlobal(fn),
			NRet:    1,
			Protect: true,
		}); err != nil {
			return err
		}
		ret = t.L.Get(-1)
		t.L.Pop(1)
		return nil
	})
	if err != nil {
		return lua.LNil, fmt.Errorf("%s %s(): %w", t.name, fn, err)
	}
	return ret, nil
}

func doWithRecovery(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}

// LoadDir loads every *.lua file in dir in lexical order, which is also
// their priority. On error, tasks already loaded are closed.
func LoadDir(dir string, env Env, opts ...Option) ([]*Task, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read task dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != Extension {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	tasks := make([]*Task, 0, len(names))
	for _, name := range names {
		t, err := Load(filepath.Join(dir, name), env, opts...)
		if err != nil {
			CloseAll(tasks)
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// Tasks converts loaded tasks for the scheduler.
func Tasks(ts []*Task) []task.Task {
	out := make([]task.Task, len(ts))
	for i, t := range ts {
		out[i] = t
	}
	return out
}

// CloseAll closes every task.
func CloseAll(ts []*Task) {
	for _, t := range ts {
		_ = t.Close()
	}
}
