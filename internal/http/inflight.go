package http

import (
	"context"
	"sync/atomic"
	"time"
)

const defaultInFlightCheckInterval = 100 * time.Millisecond

// InFlightTracker counts requests still being served so shutdown can drain them.
type InFlightTracker struct {
	count atomic.Int64
}

// Increment records a request start.
func (t *InFlightTracker) Increment() {
	t.count.Add(1)
}

// Decrement records a request end.
func (t *InFlightTracker) Decrement() {
	t.count.Add(-1)
}

// Count returns the number of requests in flight.
func (t *InFlightTracker) Count() int64 {
	return t.count.Load()
}

// WaitForZero polls every checkInterval until no request is in flight or ctx ends.
// A non-positive checkInterval uses 100ms.
func (t *InFlightTracker) WaitForZero(ctx context.Context, checkInterval time.Duration) error {
	if t.Count() == 0 {
		return nil
	}
	if checkInterval <= 0 {
		checkInterval = defaultInFlightCheckInterval
	}
	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if t.Count() == 0 {
				return nil
			}
		}
	}
}

// globalInFlightTracker is fed by MetricsMiddleware.
var globalInFlightTracker = &InFlightTracker{}

// InFlightCount returns the number of API and page requests in flight.
func InFlightCount() int64 {
	return globalInFlightTracker.Count()
}

// WaitForInFlight blocks until in-flight requests reach zero or ctx is done.
func WaitForInFlight(ctx context.Context, checkInterval time.Duration) error {
	return globalInFlightTracker.WaitForZero(ctx, checkInterval)
}
