package log

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger создаёт настроенный zerolog для сервисов киоска.
func NewLogger(appEnv string) zerolog.Logger {
	return newLogger(appEnv, os.Stdout)
}

// NewCLILogger пишет в stderr, чтобы stdout оставался под вывод команд.
func NewCLILogger(appEnv string, verbose bool) zerolog.Logger {
	logger := newLogger(appEnv, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	if !verbose {
		logger = logger.Level(zerolog.WarnLevel)
	}
	return logger
}

func newLogger(appEnv string, out io.Writer) zerolog.Logger {
	level := zerolog.InfoLevel
	if appEnv == "dev" {
		level = zerolog.DebugLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339
	return zerolog.New(out).With().Timestamp().Str("app", "activity-kiosk").Logger().Level(level)
}
