package log

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Logger = zerolog.Logger

// New builds the process logger. Local runs get a console writer and debug
// level; everything else stays on structured JSON at info.
func New(env, service string) Logger {
	level := zerolog.InfoLevel
	logger := log.Logger
	if env == "local" {
		level = zerolog.DebugLevel
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}
	return logger.Level(level).With().Str("service", service).Logger()
}

// Nop returns a logger that discards everything, for tests.
func Nop() Logger {
	return zerolog.Nop()
}
