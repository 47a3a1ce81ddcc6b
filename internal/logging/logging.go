// Package logging builds the process-wide zerolog logger.
package logging

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New returns a logger at the given level. format "console" produces
// human-readable output for development; anything else emits JSON.
func New(level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	var out = os.Stdout
	logger := zerolog.New(out)
	if strings.EqualFold(format, "console") {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
	}

	return logger.Level(lvl).With().
		Timestamp().
		Str("service", "debugircd").
		Logger()
}
