package scene

import (
	"io"
	"log/slog"
	"sync/atomic"
)

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// SetLogger sets the logger scene discovery reports skipped files to.
// The package is silent until it is called. Pass nil to silence it again.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	loggerPtr.Store(l)
}

// Logger returns the logger set with SetLogger
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
