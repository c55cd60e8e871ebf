// Package logger provides the configured zerolog loggers.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
	zpkgerrors "github.com/rs/zerolog/pkgerrors"
)

// New returns a JSON logger for long-running processes (the document store).
// Call sites should use .Stack() on error events to include stacks.
func New(serviceName, level string) zerolog.Logger {
	configureErrors()
	return zerolog.New(os.Stdout).Level(ParseLevel(level)).With().
		Str("service", serviceName).
		Timestamp().
		Logger()
}

// NewConsole returns a human-readable logger for the CLI and TUI, writing to w.
func NewConsole(w io.Writer, level string) zerolog.Logger {
	configureErrors()
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	return zerolog.New(out).Level(ParseLevel(level)).With().Timestamp().Logger()
}

// ParseLevel falls back to warn; the CLI stays quiet unless asked.
func ParseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || s == "" {
		return zerolog.WarnLevel
	}
	return lvl
}

func configureErrors() {
	zerolog.ErrorStackMarshaler = func(err error) interface{} {
		type stackTracer interface{ StackTrace() pkgerrors.StackTrace }
		if _, ok := err.(stackTracer); !ok {
			err = pkgerrors.WithStack(err)
		}
		return zpkgerrors.MarshalStack(err)
	}
}

// NewFile appends JSON logs to path, for the TUI where stderr is the screen.
func NewFile(path, level string) (zerolog.Logger, io.Closer, error) {
	configureErrors()
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return zerolog.Nop(), nil, err
	}
	return zerolog.New(f).Level(ParseLevel(level)).With().Timestamp().Logger(), f, nil
}
