package telemetry

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel maps "debug", "info", "warn"/"warning" and "error"
// (case-insensitive) to a slog level. Anything else is info.
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

// NewLogger builds a logger writing to w. format "json" selects the JSON
// handler, anything else the text handler. Every record carries a service
// attribute when service is non-empty.
func NewLogger(w io.Writer, format, level, service string) *slog.Logger {
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl == slog.LevelDebug,
	}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	if service != "" {
		handler = handler.WithAttrs([]slog.Attr{slog.String("service", service)})
	}
	return slog.New(handler)
}

// SetupLogger installs a stdout logger as the slog default so package-level
// slog calls everywhere use it.
func SetupLogger(format, level, service string) {
	slog.SetDefault(NewLogger(os.Stdout, format, level, service))
	slog.Info("logger initialised", "format", format, "level", ParseLevel(level).String())
}
