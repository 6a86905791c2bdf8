// Package logger configures the zerolog logger shared by the service.
package logger

import (
	"os"

	"github.com/rs/zerolog"
)

// New returns the service logger. Console output when pretty is set,
// JSON lines otherwise.
func New(pretty bool) zerolog.Logger {
	if pretty {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}
