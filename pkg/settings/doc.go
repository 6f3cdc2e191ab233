// Package settings provides the flat key-value store each script persists
// between runs.
//
// A [Store] is loaded once when the script is constructed and flushed when the
// script stops. Flushing an empty store removes the backing data rather than
// writing an empty document. Loading never fails: a missing, unreadable or
// corrupt backing file yields an empty store.
//
// # Backends
//
//   - [FileBackend]: <root>/<identity>/settings.xml in the properties XML format
//   - [RedisBackend]: one hash per identity
//   - [MemoryBackend]: process-local, used when no storage directory is available
//
// # Usage
//
//	backend := settings.NewFileBackend(settings.DefaultRoot(), "acme.fisher.Script")
//	store := settings.Open(ctx, backend, logger)
//	store.Set("fish", "lobster")
//	...
//	if err := store.Flush(ctx); err != nil {
//	    return err
//	}
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package settings
