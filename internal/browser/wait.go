package browser

import (
	"context"
	"errors"
	"time"
)

// ErrWaitTimeout is returned when a condition never held within its budget.
var ErrWaitTimeout = errors.New("browser: condition not met before deadline")

// Condition reports whether the page has reached the awaited state. A non-nil
// error aborts the wait immediately.
type Condition func(ctx context.Context) (bool, error)

// WaitStable polls cond every interval until it holds, the budget runs out,
// or ctx is cancelled. It stands in for the "network idle" waits a browser
// driver would otherwise provide: the caller expresses idleness as a
// condition over the page (readyState, element presence, settled height).
func WaitStable(ctx context.Context, interval, budget time.Duration, cond Condition) error {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}

	deadline := time.Now().Add(budget)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		ok, err := cond(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if time.Now().After(deadline) {
			return ErrWaitTimeout
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
