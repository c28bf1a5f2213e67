package telemetry

import (
	"log/slog"
	"os"
	"strings"

	"printroom-fulfillment/internal/config"
)

// InitLogger initialises the global slog logger from config.
// JSON output is the default; LOG_FORMAT=text switches to the text handler.
func InitLogger(cfg config.Log) {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
}
