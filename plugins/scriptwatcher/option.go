package scriptwatcher

import "github.com/bft-labs/scriptd/pkg/script"

// WithScriptWatcher returns a script Option that reloads tasks on change.
//
// Usage:
//
//	set := luatask.NewSet(dir, s, s)
//	s, err := script.New(manifest, id,
//	    scriptwatcher.WithScriptWatcher(scriptwatcher.Config{Reloader: set}),
//	)
func WithScriptWatcher(cfg Config) script.Option {
	return script.WithPlugin(New(cfg))
}
