package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"dealer-support-chat/internal/env"
)

// New builds the process logger: console output in development, JSON lines otherwise.
func New(cfg env.Config) zerolog.Logger {
	return NewWithWriter(cfg, os.Stdout)
}

func NewWithWriter(cfg env.Config, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}

	var w io.Writer = out
	if cfg.IsDevelopment() {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Logger()
}
