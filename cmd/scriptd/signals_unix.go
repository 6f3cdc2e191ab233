//go:build !windows

package main

import (
	"os"
	"os/signal"
	"syscall"
)

// controlSignals maps SIGUSR1 to suspend and SIGUSR2 to resume.
func controlSignals() (suspend, resume <-chan os.Signal, stop func()) {
	s := make(chan os.Signal, 1)
	r := make(chan os.Signal, 1)
	signal.Notify(s, syscall.SIGUSR1)
	signal.Notify(r, syscall.SIGUSR2)
	return s, r, func() {
		signal.Stop(s)
		signal.Stop(r)
	}
}
