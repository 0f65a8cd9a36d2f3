package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// LogConfig selects the slog handler. Format is "json" or "text"; anything
// else is treated as text. Output defaults to stdout.
type LogConfig struct {
	Level   string
	Format  string
	Service string
	Output  io.Writer
}

// InitLogger builds the process logger, tags it with the service name and
// installs it as slog's default.
func InitLogger(cfg LogConfig) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var h slog.Handler = slog.NewTextHandler(out, opts)
	if strings.EqualFold(cfg.Format, "json") {
		h = slog.NewJSONHandler(out, opts)
	}

	logger := slog.New(h)
	if cfg.Service != "" {
		logger = logger.With("service", cfg.Service)
	}
	slog.SetDefault(logger)
	return logger
}

// parseLevel accepts slog's level names in any case plus "warning". Unknown
// values mean info.
func parseLevel(level string) slog.Level {
	if strings.EqualFold(level, "warning") {
		return slog.LevelWarn
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}
