package discourse

import (
	"context"
	"testing"
	"time"
)

func TestRateLimiterAllowsBurst(t *testing.T) {
	l := NewRateLimiter(60, 5)

	start := time.Now()
	for i := 0; i < 5; i++ {
		if err := l.Wait(context.Background()); err != nil {
			t.Fatalf("Wait failed: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("burst of 5 took %v, expected no throttling", elapsed)
	}
}

func TestRateLimiterRespectsCancellation(t *testing.T) {
	l := NewRateLimiter(0.6, 1)

	// Drain the single burst slot.
	if err := l.Wait(context.Background()); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := l.Wait(ctx); err == nil {
		t.Error("Wait should fail once the context deadline passes")
	}
}

func TestRateLimiterDefaults(t *testing.T) {
	l := NewRateLimiter(0, 0)
	if l.limiter.Burst() != defaultBurst {
		t.Errorf("Burst = %d, want %d", l.limiter.Burst(), defaultBurst)
	}

	var nilLimiter *RateLimiter
	if err := nilLimiter.Wait(context.Background()); err != nil {
		t.Errorf("nil limiter Wait should be a no-op, got %v", err)
	}
}
