// Package throttle paces calls to a rate-limited dependency with a fixed delay.
package throttle

import (
	"context"
	"time"
)

// Fixed blocks for the same duration on every Wait.
type Fixed struct {
	delay time.Duration
	after func(time.Duration) <-chan time.Time
}

// NewFixed returns a throttle sleeping for delay. Negative delays are treated as zero.
func NewFixed(delay time.Duration) *Fixed {
	if delay < 0 {
		delay = 0
	}
	return &Fixed{delay: delay, after: time.After}
}

// Delay is the configured pause.
func (f *Fixed) Delay() time.Duration { return f.delay }

// Wait blocks for the configured delay or until ctx is done.
func (f *Fixed) Wait(ctx context.Context) error {
	if f.delay == 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-f.after(f.delay):
		return nil
	}
}
