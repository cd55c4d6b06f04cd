// Copyright 2025 Certen Protocol

package resilience

import (
	"testing"
	"time"
)

func TestRateLimiter_AllowsUpToLimit(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	for i := 0; i < 3; i++ {
		if !rl.Allow() {
			t.Fatalf("expected call %d to be allowed", i)
		}
	}
	if rl.Allow() {
		t.Fatal("expected call beyond limit to be rejected")
	}
}

func TestRateLimiter_WindowRolls(t *testing.T) {
	rl := NewRateLimiter(1, 20*time.Millisecond)
	if !rl.Allow() {
		t.Fatal("expected first call to be allowed")
	}
	if rl.Allow() {
		t.Fatal("expected second call within window to be rejected")
	}
	time.Sleep(25 * time.Millisecond)
	if !rl.Allow() {
		t.Fatal("expected call after window roll to be allowed")
	}
}

func TestRetryPolicy_BackoffGrowsAndCaps(t *testing.T) {
	p := RetryPolicy{MaxRetries: 5, BaseDelay: 10 * time.Millisecond, MaxDelay: 50 * time.Millisecond, JitterFraction: 0}
	if d := p.BackoffDuration(0); d != 10*time.Millisecond {
		t.Fatalf("expected 10ms at attempt 0, got %s", d)
	}
	if d := p.BackoffDuration(10); d != p.MaxDelay {
		t.Fatalf("expected capped delay, got %s", d)
	}
}

func TestRetryBudget_ExhaustsAndRefills(t *testing.T) {
	b := NewRetryBudget(2, 30*time.Millisecond)
	if !b.TryConsume() || !b.TryConsume() {
		t.Fatal("expected first two consumes to succeed")
	}
	if b.TryConsume() {
		t.Fatal("expected budget exhausted on third consume")
	}
	time.Sleep(40 * time.Millisecond)
	if !b.TryConsume() {
		t.Fatal("expected budget to refill after window elapses")
	}
}
