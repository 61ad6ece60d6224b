package agent

import (
	"fmt"
	"log"
	"os"
	"sync"
)

// LogLevel represents different logging levels.
type LogLevel int

const (
	// LogLevelDebug represents debug level logging
	LogLevelDebug LogLevel = iota

	// LogLevelInfo represents info level logging
	LogLevelInfo

	// LogLevelWarn represents warn level logging
	LogLevelWarn

	// LogLevelError represents error level logging
	LogLevelError
)

// String returns a string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// DefaultLogger provides a simple implementation of the Logger interface.
type DefaultLogger struct {
	level  LogLevel
	logger *log.Logger
	mu     sync.Mutex
	fields []Field
}

// NewDefaultLogger creates a new default logger at info level.
func NewDefaultLogger() Logger {
	return NewDefaultLoggerWithLevel(LogLevelInfo)
}

// NewDefaultLoggerWithLevel creates a new default logger with a specific level.
func NewDefaultLoggerWithLevel(level LogLevel) Logger {
	return &DefaultLogger{
		level:  level,
		logger: log.New(os.Stdout, "", log.LstdFlags|log.Lmicroseconds),
		fields: make([]Field, 0),
	}
}

// Debug logs a debug message.
func (l *DefaultLogger) Debug(msg string, fields ...Field) {
	if l.level <= LogLevelDebug {
		l.log(LogLevelDebug, msg, fields...)
	}
}

// Info logs an info message.
func (l *DefaultLogger) Info(msg string, fields ...Field) {
	if l.level <= LogLevelInfo {
		l.log(LogLevelInfo, msg, fields...)
	}
}

// Warn logs a warning message.
func (l *DefaultLogger) Warn(msg string, fields ...Field) {
	if l.level <= LogLevelWarn {
		l.log(LogLevelWarn, msg, fields...)
	}
}

// Error logs an error message.
func (l *DefaultLogger) Error(msg string, fields ...Field) {
	if l.level <= LogLevelError {
		l.log(LogLevelError, msg, fields...)
	}
}

// With returns a new logger with additional fields.
func (l *DefaultLogger) With(fields ...Field) Logger {
	newFields := make([]Field, len(l.fields)+len(fields))
	copy(newFields, l.fields)
	copy(newFields[len(l.fields):], fields)

	return &DefaultLogger{
		level:  l.level,
		logger: l.logger,
		fields: newFields,
	}
}

// log performs the actual logging.
func (l *DefaultLogger) log(level LogLevel, msg string, fields ...Field) {
	l.mu.Lock()
	defer l.mu.Unlock()

	allFields := make([]Field, 0, len(l.fields)+len(fields))
	allFields = append(allFields, l.fields...)
	allFields = append(allFields, fields...)

	l.logger.Print(l.formatMessage(level, msg, allFields))
}

// formatMessage formats a log message with fields.
func (l *DefaultLogger) formatMessage(level LogLevel, msg string, fields []Field) string {
	result := fmt.Sprintf("[%s] %s", level.String(), msg)

	if len(fields) > 0 {
		result += " |"
		for _, field := range fields {
			result += fmt.Sprintf(" %s=%v", field.Key, field.Value)
		}
	}

	return result
}

// NoOpLogger provides a logger that does nothing (useful for testing).
type NoOpLogger struct{}

// NewNoOpLogger creates a new no-op logger.
func NewNoOpLogger() Logger {
	return &NoOpLogger{}
}

// Debug does nothing.
func (l *NoOpLogger) Debug(msg string, fields ...Field) {}

// Info does nothing.
func (l *NoOpLogger) Info(msg string, fields ...Field) {}

// Warn does nothing.
func (l *NoOpLogger) Warn(msg string, fields ...Field) {}

// Error does nothing.
func (l *NoOpLogger) Error(msg string, fields ...Field) {}

// With returns the same no-op logger.
func (l *NoOpLogger) With(fields ...Field) Logger {
	return l
}
