package server

import (
	"io"
	"log/slog"
	"os"
)

// maxLogValue bounds string attributes so header values and paths sent by
// clients cannot flood the log.
const maxLogValue = 100

// NewDefaultLogger writes text records at level or above to w. A nil w
// means stdout.
func NewDefaultLogger(w io.Writer, level slog.Level) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: truncateAttr,
	}))
}

// NewNullLogger discards all records (for testing)
func NewNullLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

func truncateAttr(_ []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() != slog.KindString || a.Key == "stack" {
		return a
	}
	if s := a.Value.String(); len(s) > maxLogValue {
		a.Value = slog.StringValue(s[:maxLogValue] + "...[truncated]")
	}
	return a
}
