// Package scriptwatcher reloads a script's Lua tasks when their files change.
// It watches the task directory and, after a short debounce, swaps the whole
// task set through a Reloader such as *luatask.Set.
package scriptwatcher

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/scriptd/pkg/log"
	"github.com/bft-labs/scriptd/pkg/luatask"
	"github.com/bft-labs/scriptd/pkg/script"
)

// DefaultDebounceDelay coalesces the burst of events an editor save produces.
const DefaultDebounceDelay = 100 * time.Millisecond

// Reloader reloads the task set of one directory.
type Reloader interface {
	Dir() string
	Reload() (int, error)
}

// Config holds the plugin settings.
type Config struct {
	Reloader      Reloader
	DebounceDelay time.Duration
}

// DefaultConfig returns a config with the default debounce and no reloader.
func DefaultConfig() Config {
	return Config{DebounceDelay: DefaultDebounceDelay}
}

// Plugin watches a task directory for the lifetime of one run.
type Plugin struct {
	mu sync.Mutex

	reloader      Reloader
	debounceDelay time.Duration

	logger   log.Logger
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	debounce *time.Timer
	reloads  int
}

// New creates a script watcher plugin.
func New(cfg Config) *Plugin {
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = DefaultDebounceDelay
	}
	return &Plugin{
		reloader:      cfg.Reloader,
		debounceDelay: cfg.DebounceDelay,
		logger:        log.NoopLogger{},
	}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "scriptwatcher"
}

// Initialize starts watching the reloader's directory.
func (p *Plugin) Initialize(ctx context.Context, cfg script.PluginConfig) error {
	p.mu.Lock()
	p.logger = log.OrNoop(cfg.Logger).With(log.String("plugin", p.Name()))
	p.mu.Unlock()

	if p.reloader == nil || p.reloader.Dir() == "" {
		p.logger.Warn("script watcher disabled: no task directory configured")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(p.reloader.Dir()); err != nil {
		_ = watcher.Close()
		return err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.logger.Info("watching task directory", log.String("dir", p.reloader.Dir()))

	p.wg.Add(1)
	go p.watchLoop(watchCtx, watcher)

	return nil
}

// Shutdown stops the watcher and any pending reload.
func (p *Plugin) Shutdown(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.debounce != nil {
		p.debounce.Stop()
		p.debounce = nil
	}
	return nil
}

// Reloads returns how many reloads the watcher has triggered.
func (p *Plugin) Reloads() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reloads
}

func (p *Plugin) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer p.wg.Done()
	defer watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Ext(event.Name) != luatask.Extension {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			p.debounceReload(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			p.logger.Error("watcher error", log.Err(err))
		}
	}
}

func (p *Plugin) debounceReload(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.debounce != nil {
		p.debounce.Stop()
	}

	p.debounce = time.AfterFunc(p.debounceDelay, func() {
		if ctx.Err() != nil {
			return
		}
		n, err := p.reloader.Reload()
		p.mu.Lock()
		p.reloads++
		p.mu.Unlock()
		if err != nil {
			p.logger.Warn("reload failed", log.Err(err))
			return
		}
		p.logger.Info("tasks reloaded", log.Int("tasks", n))
	})
}

// Ensure Plugin implements script.Plugin.
var _ script.Plugin = (*Plugin)(nil)
