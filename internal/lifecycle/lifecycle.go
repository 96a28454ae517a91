// Package lifecycle holds the process-wide drain flag set once shutdown begins.
package lifecycle

import "sync/atomic"

var draining atomic.Bool

// BeginDrain marks the process as shutting down. /api/ready reports 503 from then on.
func BeginDrain() {
	draining.Store(true)
}

// Draining reports whether BeginDrain has been called since the last Reset.
func Draining() bool {
	return draining.Load()
}

// Reset clears the drain flag. Tests use it to restore state.
func Reset() {
	draining.Store(false)
}
