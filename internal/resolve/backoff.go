package resolve

import (
	"context"
	"time"
)

// Backoff tuning
const (
	BackoffBase = 500 * time.Millisecond
	BackoffMax  = 5000 * time.Millisecond

	// BackoffMaxShift caps the exponent so the multiplier never exceeds 16x
	BackoffMaxShift = 4
)

// Backoff returns the delay before the given retry attempt. The first
// attempt (0) runs immediately; later attempts wait an exponentially
// growing delay capped at BackoffMax.
func Backoff(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	shift := attempt
	if shift > BackoffMaxShift {
		shift = BackoffMaxShift
	}
	delay := BackoffBase * time.Duration(1<<shift)
	if delay > BackoffMax {
		delay = BackoffMax
	}
	return delay
}

// waitBackoff sleeps for the given delay, returning early on cancellation
func waitBackoff(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
