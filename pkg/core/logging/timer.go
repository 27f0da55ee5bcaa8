// ============================================================================
// etlap - Menu nutrition export
// ============================================================================
//
// Package:     logging
// Description: Timer for logging operation durations
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package logging

import "time"

// Timer measures the duration of an operation
type Timer struct {
	logger    *Logger
	operation string
	start     time.Time
	level     Level
	stopped   bool
}

func newTimer(logger *Logger, operation string) *Timer {
	return &Timer{
		logger:    logger,
		operation: operation,
		start:     time.Now(),
		level:     LevelDebug,
	}
}

// WithLevel sets the level of the completion message
func (t *Timer) WithLevel(level Level) *Timer {
	t.level = level
	return t
}

// Elapsed returns the time since the timer was started
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}

// Stop logs the completion message once and returns the elapsed time.
// Subsequent calls return zero.
func (t *Timer) Stop(keysAndValues ...interface{}) time.Duration {
	if t.stopped {
		return 0
	}
	t.stopped = true

	elapsed := t.Elapsed()
	kv := append([]interface{}{
		"operation", t.operation,
		"duration_ms", float64(elapsed.Microseconds()) / 1000,
	}, keysAndValues...)
	t.logger.log(t.level, "operation completed", kv)
	return elapsed
}
