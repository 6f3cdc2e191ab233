//go:build windows

package main

import "os"

// controlSignals returns channels that never fire; Windows has no USR signals.
func controlSignals() (suspend, resume <-chan os.Signal, stop func()) {
	return nil, nil, func() {}
}
