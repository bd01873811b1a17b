package logger

import (
	"log/slog"
	"os"
	"strings"
)

var defaultLogger *slog.Logger

// Init configures the process logger. Production emits JSON, anything else emits text at debug.
func Init(env string) {
	level := slog.LevelDebug
	if env == "production" {
		level = slog.LevelInfo
	}
	InitWithLevel(env, level)
}

// InitFromConfig honours the observability.logging section.
func InitFromConfig(env, level, format string) {
	lvl := ParseLevel(level)
	if format == "json" {
		env = "production"
	} else if format == "text" && env == "production" {
		env = "text"
	}
	InitWithLevel(env, lvl)
}

func InitWithLevel(env string, level slog.Level) {
	var handler slog.Handler

	if env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}

	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func LoggerWrapper() *slog.Logger {
	if defaultLogger == nil {
		// lazy init so packages used outside cmd never see a nil logger
		Init("development")
	}
	return defaultLogger
}
