package cliconfig

import (
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/bft-labs/scriptd/pkg/log"
)

// Logger builds the process logger: console output on stderr, or one JSON
// object per line when json is set.
func Logger(level string, json bool) zerolog.Logger {
	lvl := log.ParseLevel(level)
	if json {
		return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(lvl).With().Timestamp().Logger()
}
