package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/kelvin888/qt-fashion-backend-sub000/internal/config"
)

const serviceName = "qt-fashion-backend"

// Options controls the logger output.
type Options struct {
	Level  string
	Env    string
	Output io.Writer
}

// New creates a preconfigured slog.Logger writing JSON records.
func New(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{Level: ParseLevel(opts.Level)})
	return slog.New(handler).With(
		slog.String("service", serviceName),
		slog.String("env", opts.Env),
	)
}

// ParseLevel maps a level name onto slog levels. Unknown names mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

func fromConfig(cfg *config.Config) *slog.Logger {
	return New(Options{Level: cfg.LogLevel, Env: cfg.Env})
}
