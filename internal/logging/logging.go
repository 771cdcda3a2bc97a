// Package logging builds the run logger: console output plus an optional
// rotating file.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/hiveledger-dev/hiveledger/internal/config"
)

// New creates a logger for one export run. Returned rather than installed as
// a process-wide singleton; callers bind run-scoped context (run_id, account)
// onto it.
func New(cfg config.LogConfig) zerolog.Logger {
	level := zerolog.InfoLevel
	if parsed, err := zerolog.ParseLevel(cfg.Level); err == nil && cfg.Level != "" {
		level = parsed
	}

	consoleWriter := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	writers := []io.Writer{consoleWriter}

	if cfg.FileEnabled {
		logPath := cfg.FilePath
		if logPath == "" {
			logPath = "logs/hiveledger.log"
		}
		if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
			bootstrap := zerolog.New(consoleWriter).With().Timestamp().Logger()
			bootstrap.Error().Err(err).Str("log_dir", filepath.Dir(logPath)).
				Msg("Failed to create log directory, logging to console only")
		} else {
			writers = append(writers, &lumberjack.Logger{
				Filename:   logPath,
				MaxSize:    20, // MB
				MaxBackups: 3,
				MaxAge:     30, // days
				Compress:   true,
			})
		}
	}

	return zerolog.New(io.MultiWriter(writers...)).Level(level).With().Timestamp().Logger()
}
