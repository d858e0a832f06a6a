package rpcclient

import (
	"os"

	"github.com/goliatone/go-logger/glog"
)

// Logger is the client logging contract. A glog.Logger satisfies it.
type Logger interface {
	Trace(msg string, args ...any)
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// FieldsLogger extends Logger with structured-field support.
type FieldsLogger interface {
	WithFields(map[string]any) Logger
}

// NewLogger returns the default structured logger writing JSON to stderr.
func NewLogger(level string) Logger {
	if level == "" {
		level = "info"
	}
	return glog.NewLogger(
		glog.WithWriter(os.Stderr),
		glog.WithLoggerTypeJSON(),
		glog.WithLevel(level),
	)
}

func normalizeLogger(logger Logger) Logger {
	if logger == nil {
		return NewLogger("")
	}
	return logger
}

func withLoggerFields(logger Logger, fields map[string]any) Logger {
	switch fl := logger.(type) {
	case FieldsLogger:
		return fl.WithFields(fields)
	case glog.FieldsLogger:
		return fl.WithFields(fields)
	}
	return logger
}
