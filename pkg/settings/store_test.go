package settings

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/scriptd/pkg/log"
)

const testIdentity Identity = "com.acme.fisher.Script"

func TestStore_FlushRoundTrip(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	store := Open(ctx, NewFileBackend(root, testIdentity), log.NewNoopLogger())
	require.True(t, store.IsEmpty())

	store.Set("fish", "lobster")
	store.Set("bank", "draynor")
	store.Set("markup", `<a & "b">`)
	require.NoError(t, store.Flush(ctx))

	_, err := os.Stat(Path(root, testIdentity))
	require.NoError(t, err, "settings file should exist after flush")

	reloaded := Open(ctx, NewFileBackend(root, testIdentity), log.NewNoopLogger())
	assert.Equal(t, store.Snapshot(), reloaded.Snapshot())
}

func TestStore_FlushEmptyRemovesFile(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	backend := NewFileBackend(root, testIdentity)

	require.NoError(t, backend.Save(ctx, map[string]string{"stale": "1"}))
	_, err := os.Stat(backend.Path())
	require.NoError(t, err)

	store := Open(ctx, backend, log.NewNoopLogger())
	store.Delete("stale")
	require.True(t, store.IsEmpty())
	require.NoError(t, store.Flush(ctx))

	_, err = os.Stat(backend.Path())
	assert.True(t, os.IsNotExist(err), "settings file should be removed, stat err = %v", err)
}

func TestStore_FlushEmptyWithoutFile(t *testing.T) {
	ctx := context.Background()
	store := Open(ctx, NewFileBackend(t.TempDir(), testIdentity), nil)
	assert.NoError(t, store.Flush(ctx))
}

func TestStore_FlushRoundTripsAwkwardText(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	store := Open(ctx, NewFileBackend(root, testIdentity), nil)
	store.Set("crlf", "x\r\ny")
	store.Set("tab", "a\tb")
	store.Set("unicode", "fisk 🐟 ÿ")
	store.Set("key with spaces\n", "  padded  ")
	require.NoError(t, store.Flush(ctx))

	reloaded := Open(ctx, NewFileBackend(root, testIdentity), nil)
	assert.Equal(t, store.Snapshot(), reloaded.Snapshot())
}

func TestFileBackend_SaveRejectsUnencodable(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]string
	}{
		{"control char value", map[string]string{"ctl": "a\x01b"}},
		{"invalid utf8 value", map[string]string{"bad": "\xff\xfe"}},
		{"invalid utf8 key", map[string]string{"\xff": "v"}},
		{"nul in key", map[string]string{"a\x00": "v"}},
		{"noncharacter value", map[string]string{"nc": "\uFFFE"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			backend := NewFileBackend(t.TempDir(), testIdentity)
			require.NoError(t, backend.Save(ctx, map[string]string{"keep": "me"}))

			err := backend.Save(ctx, tt.values)
			require.ErrorIs(t, err, ErrUnencodable)

			got, err := backend.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, map[string]string{"keep": "me"}, got, "previous document must survive")
		})
	}
}

func TestStore_CorruptFileYieldsEmptyStore(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	path := Path(root, testIdentity)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte("<properties><entry key="), 0o600))

	store := Open(ctx, NewFileBackend(root, testIdentity), log.NewNoopLogger())
	assert.True(t, store.IsEmpty())
}

func TestStore_ReadsPropertiesWithDoctype(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	path := Path(root, testIdentity)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))

	doc := `<?xml version="1.0" encoding="UTF-8" standalone="no"?>
<!DOCTYPE properties SYSTEM "http://java.sun.com/dtd/properties.dtd">
<properties>
<comment/>
<entry key="lastRun">42</entry>
<entry key="mode">power</entry>
</properties>
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	store := Open(ctx, NewFileBackend(root, testIdentity), log.NewNoopLogger())
	v, ok := store.Get("mode")
	require.True(t, ok)
	assert.Equal(t, "power", v)
	assert.Equal(t, []string{"lastRun", "mode"}, store.Keys())
}

func TestStore_GetOrAndClear(t *testing.T) {
	store := Open(context.Background(), nil, nil)
	assert.Equal(t, "def", store.GetOr("missing", "def"))

	store.Set("a", "1")
	assert.Equal(t, "1", store.GetOr("a", "def"))
	assert.Equal(t, 1, store.Len())

	store.Clear()
	assert.True(t, store.IsEmpty())
}

func TestMemoryBackend_RoundTrip(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()

	store := Open(ctx, backend, nil)
	store.Set("k", "v")
	require.NoError(t, store.Flush(ctx))

	assert.Equal(t, map[string]string{"k": "v"}, Open(ctx, backend, nil).Snapshot())

	store.Clear()
	require.NoError(t, store.Flush(ctx))
	assert.True(t, Open(ctx, backend, nil).IsEmpty())
}
