package observability

import (
	"io"
	"log/slog"
	"strings"
)

// NewWriterLogger creates a structured logger writing to w. The CLI uses it
// to keep log output on stderr while stdout carries CSV. Level and format
// follow the service logger: "debug", "warn", "error" or "info" (default),
// and "text" or JSON.
func NewWriterLogger(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if strings.EqualFold(format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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
