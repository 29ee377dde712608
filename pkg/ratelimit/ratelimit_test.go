package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_NoBlockWhenZeroInterval(t *testing.T) {
	limiter := NewLimiter(0, 0.5)

	start := time.Now()
	if err := limiter.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if time.Since(start) > 10*time.Millisecond {
		t.Errorf("limiter with zero interval should not block")
	}
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(100*time.Millisecond, 0)
	defer limiter.Stop()

	ctx := context.Background()

	// Throw away the first tick because time.NewTicker starts counting immediately
	_ = limiter.Wait(ctx)

	start := time.Now()
	if err := limiter.Wait(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	duration := time.Since(start)
	if duration < 50*time.Millisecond || duration > 150*time.Millisecond {
		t.Errorf("expected wait around 100ms, took %v", duration)
	}
}

func TestLimiter_ContextCancellation(t *testing.T) {
	limiter := NewLimiter(time.Second, 0)
	defer limiter.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := limiter.Wait(ctx); err == nil {
		t.Fatalf("expected context canceled error")
	}
}

func TestLimiter_Jitter(t *testing.T) {
	limiter := NewLimiter(100*time.Millisecond, 0.5) // +/- 50ms jitter
	defer limiter.Stop()

	ctx := context.Background()
	_ = limiter.Wait(ctx)

	start := time.Now()
	_ = limiter.Wait(ctx)
	duration := time.Since(start)

	// Negative jitter returns immediately after the tick, so min wait is the
	// ticker interval; positive jitter adds up to 50ms. Allow scheduling slack.
	if duration < 50*time.Millisecond || duration > 300*time.Millisecond {
		t.Errorf("expected jittered wait roughly between 100ms and 150ms, took %v", duration)
	}
}

func TestPause_Range(t *testing.T) {
	start := time.Now()
	if err := Pause(context.Background(), 30*time.Millisecond, 60*time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	duration := time.Since(start)
	if duration < 30*time.Millisecond || duration > 200*time.Millisecond {
		t.Errorf("expected pause between 30ms and 60ms, took %v", duration)
	}
}

func TestPause_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := Pause(ctx, time.Second, 2*time.Second); err == nil {
		t.Fatalf("expected context canceled error")
	}
}

func TestPause_MaxNotAboveMin(t *testing.T) {
	start := time.Now()
	if err := Pause(context.Background(), 20*time.Millisecond, 20*time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if time.Since(start) < 20*time.Millisecond {
		t.Errorf("expected pause of at least min duration")
	}
}
