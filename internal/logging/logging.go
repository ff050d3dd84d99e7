// Package logging builds the zerolog logger shared by every command.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New returns a logger writing to w at level. An empty level means info.
func New(level string, w io.Writer) (zerolog.Logger, error) {
	lvl := zerolog.InfoLevel
	if level != "" {
		var err error
		lvl, err = zerolog.ParseLevel(strings.ToLower(level))
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
		}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

// Setup builds the process logger. With a file, JSON lines are appended to
// it; otherwise human-readable output goes to stderr. The returned closer
// releases the file and is never nil.
func Setup(level, file string) (zerolog.Logger, io.Closer, error) {
	if file == "" {
		console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
		logger, err := New(level, console)
		return logger, io.NopCloser(nil), err
	}

	f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return zerolog.Nop(), io.NopCloser(nil), fmt.Errorf("failed to open log file: %w", err)
	}
	logger, err := New(level, f)
	if err != nil {
		f.Close()
		return zerolog.Nop(), io.NopCloser(nil), err
	}
	return logger, f, nil
}
