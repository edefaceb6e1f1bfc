// Package logging builds the diagnostic logger shared by all components.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// New returns a text logger on stderr. Verbose enables debug output such as
// bridge traffic and page console messages.
func New(verbose bool) *slog.Logger {
	return NewWithWriter(os.Stderr, verbose)
}

// NewWithWriter is New with an explicit destination
func NewWithWriter(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
