// Package common provides small shared utilities such as timing helpers.
package common

import (
	"fmt"
	"log/slog"
	"time"
)

// Timer measures elapsed wall time for a named phase.
type Timer struct {
	start    time.Time
	name     string
	duration time.Duration
}

// NewTimer creates a new unnamed timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// NewNamedTimer creates a new timer with the given name.
func NewNamedTimer(name string) *Timer {
	return &Timer{
		name:  name,
		start: time.Now(),
	}
}

// Stop stops the timer and returns the elapsed duration.
func (t *Timer) Stop() time.Duration {
	t.duration = time.Since(t.start)
	return t.duration
}

// StopAndLog stops the timer and logs the elapsed duration at debug level.
func (t *Timer) StopAndLog(logger *slog.Logger) time.Duration {
	d := t.Stop()
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("phase finished", "phase", t.name, "duration", d)
	return d
}

// Duration returns the recorded duration (only valid after Stop).
func (t *Timer) Duration() time.Duration {
	return t.duration
}

// Name returns the timer name (empty string if unnamed).
func (t *Timer) Name() string {
	return t.name
}

// String returns a formatted representation of the timer.
func (t *Timer) String() string {
	if t.name != "" {
		return fmt.Sprintf("%s: %v", t.name, t.duration)
	}
	return fmt.Sprintf("%v", t.duration)
}
