package core

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Logger interface for raytracer logging
type Logger interface {
	Printf(format string, args ...interface{})
}

// slogLogger forwards Printf-style messages to a structured logger at info level
type slogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger adapts a slog.Logger to the Logger interface. A nil logger uses slog.Default().
func NewSlogLogger(logger *slog.Logger) Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &slogLogger{logger: logger}
}

func (l *slogLogger) Printf(format string, args ...interface{}) {
	if !l.logger.Enabled(context.Background(), slog.LevelInfo) {
		return
	}
	l.logger.Info(strings.TrimRight(fmt.Sprintf(format, args...), "\n"))
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...interface{}) {}

// NopLogger discards everything
var NopLogger Logger = nopLogger{}
