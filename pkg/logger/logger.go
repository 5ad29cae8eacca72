package logger

import (
	"io"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog.Logger
type Logger struct {
	zerolog.Logger
}

// New creates a new logger instance.
// Development gets a human readable console writer, every other environment JSON.
func New(serviceName string, environment string) *Logger {
	return NewWithWriter(serviceName, environment, os.Stdout)
}

// NewWithWriter creates a logger that writes to w instead of stdout
func NewWithWriter(serviceName string, environment string, w io.Writer) *Logger {
	output := w
	level := zerolog.InfoLevel

	switch environment {
	case "development":
		output = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		}
		level = zerolog.DebugLevel
	case "test":
		level = zerolog.Disabled
	}

	logger := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Str("service", serviceName).
		Logger()

	return &Logger{Logger: logger}
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	return &Logger{Logger: zerolog.Nop()}
}

// WithRequestID returns a logger with the request ID attached
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{
		Logger: l.Logger.With().Str("request_id", requestID).Logger(),
	}
}

// WithActor returns a logger with the acting user and their company attached
func (l *Logger) WithActor(actorID, scopeID int64) *Logger {
	return &Logger{
		Logger: l.Logger.With().
			Str("actor_id", strconv.FormatInt(actorID, 10)).
			Str("scope_id", strconv.FormatInt(scopeID, 10)).
			Logger(),
	}
}

// WithComponent returns a logger with the component name attached
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		Logger: l.Logger.With().Str("component", component).Logger(),
	}
}
