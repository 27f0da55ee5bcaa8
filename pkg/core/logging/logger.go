// ============================================================================
// etlap - Menu nutrition export
// ============================================================================
//
// Package:     logging
// Description: Structured logger with key-value call style
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package logging

import (
	stderrors "errors"
	"io"
	"os"
	"sync"
	"time"

	apperrors "github.com/msto63/etlap/pkg/core/errors"
)

// LoggerConfig holds configuration for creating loggers
type LoggerConfig struct {
	// Logger name, usually the command or component
	Name string

	// Log level (trace, debug, info, warn, error)
	Level string

	// Output format: "json" or "text" (default: json)
	Format string

	// Output destination (default: stderr)
	Output io.Writer
}

// DefaultLoggerConfig returns a default configuration
func DefaultLoggerConfig(name string) LoggerConfig {
	return LoggerConfig{
		Name:   name,
		Level:  "info",
		Format: "json",
	}
}

// Logger writes structured entries. Derived loggers share the output and its
// lock but carry their own fields.
type Logger struct {
	name          string
	level         Level
	formatter     Formatter
	out           *syncWriter
	fields        Fields
	correlationID string
}

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// NewLogger creates a logger from the given configuration
func NewLogger(cfg LoggerConfig) *Logger {
	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	return &Logger{
		name:      cfg.Name,
		level:     ParseLevel(cfg.Level),
		formatter: GetFormatter(ParseFormat(cfg.Format)),
		out:       &syncWriter{w: output},
		fields:    make(Fields),
	}
}

// New creates a logger with the default configuration
func New(name string) *Logger {
	return NewLogger(DefaultLoggerConfig(name))
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	cfg := DefaultLoggerConfig("")
	cfg.Output = io.Discard
	cfg.Level = "error"
	return NewLogger(cfg)
}

func (l *Logger) clone() *Logger {
	fields := make(Fields, len(l.fields))
	for k, v := range l.fields {
		fields[k] = v
	}
	c := *l
	c.fields = fields
	return &c
}

// WithLevel returns a logger with the specified minimum level
func (l *Logger) WithLevel(level Level) *Logger {
	c := l.clone()
	c.level = level
	return c
}

// WithName returns a logger with a different name
func (l *Logger) WithName(name string) *Logger {
	c := l.clone()
	c.name = name
	return c
}

// WithCorrelationID returns a logger that tags every entry with id
func (l *Logger) WithCorrelationID(id string) *Logger {
	c := l.clone()
	c.correlationID = id
	return c
}

// With returns a logger that adds the key-value pairs to every entry
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	c := l.clone()
	for k, v := range toFields(keysAndValues...) {
		c.fields[k] = v
	}
	return c
}

// Level returns the minimum level
func (l *Logger) Level() Level {
	return l.level
}

// IsLevelEnabled returns true if the given level is enabled
func (l *Logger) IsLevelEnabled(level Level) bool {
	return level >= l.level
}

// Trace logs a trace message
func (l *Logger) Trace(msg string, keysAndValues ...interface{}) {
	l.log(LevelTrace, msg, keysAndValues)
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.log(LevelDebug, msg, keysAndValues)
}

// Info logs an info message
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.log(LevelInfo, msg, keysAndValues)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.log(LevelWarn, msg, keysAndValues)
}

// Error logs an error message
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.log(LevelError, msg, keysAndValues)
}

// LogError logs err at error level, expanding the context of coded errors
func (l *Logger) LogError(msg string, err error, keysAndValues ...interface{}) {
	if err == nil {
		return
	}

	kv := append([]interface{}{"error", err.Error()}, keysAndValues...)
	var coded *apperrors.Error
	if stderrors.As(err, &coded) {
		kv = append(kv, coded.Fields()...)
	}
	l.log(LevelError, msg, kv)
}

// StartTimer creates and starts a timer for operation
func (l *Logger) StartTimer(operation string) *Timer {
	return newTimer(l, operation)
}

func (l *Logger) log(level Level, msg string, keysAndValues []interface{}) {
	if !l.IsLevelEnabled(level) {
		return
	}

	entry := &Entry{
		Timestamp:     time.Now(),
		Level:         level,
		Message:       msg,
		Logger:        l.name,
		CorrelationID: l.correlationID,
		Fields:        make(Fields, len(l.fields)+len(keysAndValues)/2),
	}
	for k, v := range l.fields {
		entry.Fields[k] = v
	}
	for k, v := range toFields(keysAndValues...) {
		entry.Fields[k] = v
	}

	if formatted, err := l.formatter.Format(entry); err == nil {
		l.out.Write(formatted)
	}
}

// toFields converts key-value pairs to Fields; non-string keys are skipped
func toFields(keysAndValues ...interface{}) Fields {
	if len(keysAndValues) == 0 {
		return nil
	}

	fields := make(Fields, len(keysAndValues)/2)
	for i := 0; i < len(keysAndValues)-1; i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields[key] = keysAndValues[i+1]
	}
	return fields
}
