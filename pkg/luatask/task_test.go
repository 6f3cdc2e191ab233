package luatask

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/scriptd/pkg/settings"
	"github.com/bft-labs/scriptd/pkg/track"
)

type fakeEnv struct {
	store *settings.Store

	mu    sync.Mutex
	pages []string
}

func newFakeEnv() *fakeEnv {
	return &fakeEnv{store: settings.Open(context.Background(), nil, nil)}
}

func (e *fakeEnv) Settings() *settings.Store { return e.store }

func (e *fakeEnv) Sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

func (e *fakeEnv) SleepBetween(ctx context.Context, min, max time.Duration) bool {
	return e.Sleep(ctx, min)
}

func (e *fakeEnv) TotalRuntimeSeconds() int64  { return 42 }
func (e *fakeEnv) ActiveRuntimeSeconds() int64 { return 40 }
func (e *fakeEnv) Suspended() bool             { return false }
func (e *fakeEnv) Tracker() track.Tracker      { return e }

func (e *fakeEnv) TrackPage(page, referrer string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pages = append(e.pages, page)
}

func fixture(name string) string {
	return filepath.Join("testdata", name)
}

func TestLoad_TicketTask(t *testing.T) {
	env := newFakeEnv()
	tk, err := Load(fixture("ticket.lua"), env)
	require.NoError(t, err)
	defer tk.Close()

	assert.Equal(t, "ticket", tk.Name())
	assert.False(t, tk.Valid(context.Background()), "no ticket held")

	env.store.Set("ticket", "T-1")
	env.store.Set("claim", "true")
	require.True(t, tk.Valid(context.Background()))
	require.NoError(t, tk.Execute(context.Background()))

	claimed, _ := env.store.Get("claimed")
	assert.Equal(t, "T-1", claimed)
	_, held := env.store.Get("ticket")
	assert.False(t, held)
	assert.Equal(t, []string{"ticket/T-1"}, env.pages)

	env.store.Set("ticket", "T-2")
	env.store.Set("claim", "false")
	require.NoError(t, tk.Execute(context.Background()))
	destroyed, _ := env.store.Get("destroyed")
	assert.Equal(t, "T-2", destroyed)
}

func TestLoad_NameDefaultsToFileName(t *testing.T) {
	tk, err := Load(fixture("sleeper.lua"), newFakeEnv())
	require.NoError(t, err)
	defer tk.Close()

	assert.Equal(t, "sleeper", tk.Name())
}

func TestLoad_MissingFunction(t *testing.T) {
	_, err := Load(fixture("no_execute.lua"), newFakeEnv())
	assert.True(t, errors.Is(err, ErrMissingFunction), "got %v", err)
}

func TestLoad_SyntaxError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.lua")
	require.NoError(t, os.WriteFile(path, []byte("function valid( return"), 0o600))

	_, err := Load(path, newFakeEnv())
	assert.Error(t, err)
}

func TestSandbox_RemovesEscapes(t *testing.T) {
	tk, err := Load(fixture("escape.lua"), newFakeEnv())
	require.NoError(t, err)
	defer tk.Close()

	assert.False(t, tk.Valid(context.Background()))
}

func TestLuaErrors(t *testing.T) {
	tk, err := Load(fixture("failing.lua"), newFakeEnv())
	require.NoError(t, err)
	defer tk.Close()

	assert.False(t, tk.Valid(context.Background()))
	err = tk.Execute(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot act")
}

func TestHostSleepAndRuntime(t *testing.T) {
	env := newFakeEnv()
	tk, err := Load(fixture("sleeper.lua"), env)
	require.NoError(t, err)
	defer tk.Close()

	require.NoError(t, tk.Execute(context.Background()))
	assert.Equal(t, "true", env.store.GetOr("slept", ""))
	assert.Equal(t, "40", env.store.GetOr("runtime", ""))
}

func TestClose(t *testing.T) {
	tk, err := Load(fixture("sleeper.lua"), newFakeEnv())
	require.NoError(t, err)

	require.NoError(t, tk.Close())
	require.NoError(t, tk.Close())
	assert.False(t, tk.Valid(context.Background()))
	assert.ErrorIs(t, tk.Execute(context.Background()), ErrClosed)
}

func TestLoadDir_LexicalOrder(t *testing.T) {
	dir := t.TempDir()
	body := []byte("function valid() return true end\nfunction execute() end\n")
	for _, name := range []string{"20_fish.lua", "10_bank.lua", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), body, 0o600))
	}

	tasks, err := LoadDir(dir, newFakeEnv())
	require.NoError(t, err)
	defer CloseAll(tasks)

	require.Len(t, tasks, 2)
	assert.Equal(t, "10_bank", tasks[0].Name())
	assert.Equal(t, "20_fish", tasks[1].Name())
	assert.Len(t, Tasks(tasks), 2)
}

func TestLoadDir_FailsOnBadFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.lua"),
		[]byte("function valid() return true end\nfunction execute() end\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.lua"),
		[]byte("function valid() return true end\n"), 0o600))

	_, err := LoadDir(dir, newFakeEnv())
	assert.ErrorIs(t, err, ErrMissingFunction)
}
