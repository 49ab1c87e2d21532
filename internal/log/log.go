// Package log builds the slog loggers handed to pipeline components.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel maps a config level name to a slog level. Unknown names are info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New returns a text logger on stderr, tee'd to fileWriter when non-nil.
func New(level string, fileWriter io.Writer) *slog.Logger {
	var w io.Writer = os.Stderr
	if fileWriter != nil {
		w = io.MultiWriter(os.Stderr, fileWriter)
	}
	return NewWithWriter(level, w)
}

// NewWithWriter returns a text logger writing only to w.
func NewWithWriter(level string, w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return Discard()
	}
	return l
}
