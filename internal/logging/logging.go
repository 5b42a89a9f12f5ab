// Package logging builds the run logger shared by every pipeline component.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/natefinch/lumberjack"
	"github.com/sirupsen/logrus"

	"github.com/knowledge-engine/fwe/internal/config"
)

// Logger owns the logrus entry of one run and the log file behind it.
type Logger struct {
	*logrus.Entry
	file io.WriteCloser
}

// New creates a logger writing to stderr and, when cfg.File is set, to a
// size-rotated log file.
func New(cfg config.LogConfig) (*Logger, error) {
	return newLogger(cfg, os.Stderr)
}

func newLogger(cfg config.LogConfig, console io.Writer) (*Logger, error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	base := logrus.New()
	base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	base.SetLevel(level)

	l := &Logger{}
	out := console
	if cfg.File != "" {
		l.file = &lumberjack.Logger{
			Filename: cfg.File,
			MaxSize:  cfg.MaxSizeMB,
		}
		out = io.MultiWriter(console, l.file)
	}
	base.SetOutput(out)

	l.Entry = base.WithFields(logrus.Fields{
		"service": "fwe",
		"run_id":  uuid.NewString(),
	})
	return l, nil
}

// Close releases the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// Discard returns an entry that drops everything; handy in tests and for
// callers that pass a nil logger.
func Discard() *logrus.Entry {
	base := logrus.New()
	base.SetOutput(io.Discard)
	return logrus.NewEntry(base)
}
