package telemetry

import (
	"log/slog"
	"os"
)

// InitSlog replaces the default logger with a text handler writing to
// stderr so stdout stays free for command output.
func InitSlog(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}
