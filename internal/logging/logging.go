// Package logging builds the process-wide structured logger.
package logging

import (
	"io"
	"log/slog"
	"strings"
)

// New returns a JSON logger writing to w at the given level name.  The
// env attribute is attached to every record.
func New(w io.Writer, level, env string) *slog.Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)})
	return slog.New(h).With("service", "guestlist", "env", env)
}

// ParseLevel maps debug, info, warn and error to slog levels.  Unknown
// names fall back to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Component tags a logger with the subsystem it belongs to.
func Component(l *slog.Logger, name string) *slog.Logger {
	return l.With("component", name)
}
