package logging

import (
	"io"
	"os"
	"time"

	"github.com/jrsteele09/go-inventory-console/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// New configures the global zerolog logger for the given environment and returns it.
// DEV gets a human readable console writer, everything else gets JSON lines.
func New(cfg config.EnvConfig) zerolog.Logger {
	return NewWithWriter(cfg, os.Stderr)
}

func NewWithWriter(cfg config.EnvConfig, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.GetLogLevel())
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	out := w
	if cfg.GetEnv() == "DEV" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	logger := zerolog.New(out).With().Timestamp().Str("app", cfg.GetAppName()).Logger()
	log.Logger = logger
	return logger
}
