package ratelimit

import (
	"context"
	"math/rand"
	"time"
)

// Limiter enforces a fixed interval between operations, with optional jitter.
// It is safe for concurrent use by multiple goroutines.
type Limiter struct {
	ticker   *time.Ticker
	jitter   float64 // 0.0 to 1.0
	interval time.Duration
	ch       <-chan time.Time
}

// NewLimiter creates a limiter that releases one operation per interval.
// Jitter must be between 0.0 and 1.0. A non-positive interval produces a
// limiter that never blocks.
func NewLimiter(interval time.Duration, jitter float64) *Limiter {
	if interval <= 0 {
		return &Limiter{jitter: jitter}
	}

	if jitter < 0 {
		jitter = 0
	} else if jitter > 1 {
		jitter = 1
	}

	ticker := time.NewTicker(interval)
	return &Limiter{
		ticker:   ticker,
		jitter:   jitter,
		interval: interval,
		ch:       ticker.C,
	}
}

// Wait blocks until it is time to perform the next operation, or until the
// context is canceled. It applies jitter to the sleep time if configured.
func (l *Limiter) Wait(ctx context.Context) error {
	if l.ch == nil {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.ch:
		if l.jitter > 0 {
			jitterFactor := (rand.Float64() * 2) - 1.0 // -1.0 to 1.0
			jitterDuration := time.Duration(float64(l.interval) * l.jitter * jitterFactor)

			// Negative jitter cannot run earlier than the ticker allows, so
			// only positive jitter adds extra sleep.
			if jitterDuration > 0 {
				select {
				case <-time.After(jitterDuration):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
	return nil
}

// Stop releases any resources associated with the limiter.
func (l *Limiter) Stop() {
	if l.ticker != nil {
		l.ticker.Stop()
	}
}

// Pause sleeps for a random duration in [min, max), or until the context is
// canceled. Used to pace page-to-page navigation so the host is not hit at a
// mechanical rhythm.
func Pause(ctx context.Context, min, max time.Duration) error {
	d := min
	if max > min {
		d = min + time.Duration(rand.Int63n(int64(max-min)))
	}
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
