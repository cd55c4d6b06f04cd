// Copyright 2025 Certen Protocol

package resilience

import (
	"testing"
	"time"
)

func TestCircuitBreaker_TripsAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(CircuitConfig{
		FailureThreshold: 3,
		SuccessThreshold: 1,
		OpenTimeout:      50 * time.Millisecond,
		HalfOpenMaxInFlight: 1,
	})

	for i := 0; i < 2; i++ {
		if !cb.Allow() {
			t.Fatalf("expected closed breaker to allow call %d", i)
		}
		cb.RecordFailure()
	}
	if cb.State() != StateClosed {
		t.Fatalf("expected still closed before threshold, got %s", cb.State())
	}

	cb.RecordFailure()
	if cb.State() != StateOpen {
		t.Fatalf("expected open after threshold, got %s", cb.State())
	}
	if cb.Allow() {
		t.Fatal("expected open breaker to reject calls")
	}
}

func TestCircuitBreaker_HalfOpenRecovers(t *testing.T) {
	cb := NewCircuitBreaker(CircuitConfig{
		FailureThreshold: 1,
		SuccessThreshold: 2,
		OpenTimeout:      10 * time.Millisecond,
		HalfOpenMaxInFlight: 1,
	})

	cb.RecordFailure()
	if cb.State() != StateOpen {
		t.Fatalf("expected open, got %s", cb.State())
	}

	time.Sleep(15 * time.Millisecond)
	if cb.State() != StateHalfOpen {
		t.Fatalf("expected half-open after timeout, got %s", cb.State())
	}
	if !cb.Allow() {
		t.Fatal("expected half-open to allow a probe")
	}
	if cb.Allow() {
		t.Fatal("expected half-open to cap in-flight probes at 1")
	}

	cb.RecordSuccess()
	if cb.State() != StateHalfOpen {
		t.Fatalf("expected still half-open after one success, got %s", cb.State())
	}

	cb.Allow()
	cb.RecordSuccess()
	if cb.State() != StateClosed {
		t.Fatalf("expected closed after success threshold, got %s", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker(CircuitConfig{
		FailureThreshold: 1,
		SuccessThreshold: 1,
		OpenTimeout:      5 * time.Millisecond,
		HalfOpenMaxInFlight: 1,
	})
	cb.RecordFailure()
	time.Sleep(10 * time.Millisecond)
	if cb.State() != StateHalfOpen {
		t.Fatalf("expected half-open, got %s", cb.State())
	}
	cb.Allow()
	cb.RecordFailure()
	if cb.State() != StateOpen {
		t.Fatalf("expected reopen on half-open failure, got %s", cb.State())
	}
}

func TestPerChainBreakers_Isolation(t *testing.T) {
	p := NewPerChainBreakers(CircuitConfig{FailureThreshold: 1, OpenTimeout: time.Minute, SuccessThreshold: 1, HalfOpenMaxInFlight: 1})
	p.For("eth").RecordFailure()
	if p.For("eth").State() != StateOpen {
		t.Fatal("expected eth breaker to be open")
	}
	if p.For("cosmos").State() != StateClosed {
		t.Fatal("expected cosmos breaker to be unaffected by eth failures")
	}
}
