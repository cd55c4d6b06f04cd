// Copyright 2025 Certen Protocol

package network

import (
	"context"
	"sync"
	"testing"
	"time"
)

// TestBackpressure_QueueFullRejection reproduces spec §8 boundary
// scenario 5: max_concurrent=2, max_queue=1. Two acquires are held,
// a third queues, a fourth is rejected with rejected_requests=1.
func TestBackpressure_QueueFullRejection(t *testing.T) {
	bc := NewBackpressureController(BackpressureConfig{MaxConcurrentRequests: 2, MaxQueueSize: 1})

	p1, err := bc.Acquire(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	p2, err := bc.Acquire(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		p3, err := bc.Acquire(context.Background())
		if err != nil {
			t.Error(err)
			return
		}
		p3.Release()
		close(done)
	}()
	time.Sleep(20 * time.Millisecond) // let the third acquire enqueue

	if _, err := bc.Acquire(context.Background()); err == nil {
		t.Fatal("expected fourth acquire to be rejected")
	}
	if got := bc.Metrics().RejectedRequests; got != 1 {
		t.Fatalf("expected rejected_requests=1, got %d", got)
	}

	p1.Release()
	<-done
	p2.Release()
}

func TestBackpressure_FIFOWakeOrder(t *testing.T) {
	bc := NewBackpressureController(BackpressureConfig{MaxConcurrentRequests: 1, MaxQueueSize: 4})

	held, err := bc.Acquire(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	var order []int
	var mu sync.Mutex
	done := make(chan struct{}, 3)
	for i := 0; i < 3; i++ {
		i := i
		go func() {
			perm, err := bc.Acquire(context.Background())
			if err != nil {
				t.Error(err)
				return
			}
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			perm.Release()
			done <- struct{}{}
		}()
		time.Sleep(10 * time.Millisecond) // preserve enqueue order
	}

	held.Release()
	for i := 0; i < 3; i++ {
		<-done
	}

	for i, v := range order {
		if v != i {
			t.Fatalf("expected FIFO wake order [0 1 2], got %v", order)
		}
	}
}

func TestPressureLevelClassification(t *testing.T) {
	bc := NewBackpressureController(BackpressureConfig{MaxConcurrentRequests: 1, MaxQueueSize: 1})
	cases := []struct {
		load  float64
		level PressureLevel
	}{
		{0.1, PressureLow},
		{0.6, PressureMedium},
		{0.8, PressureHigh},
		{0.95, PressureCritical},
	}
	for _, c := range cases {
		bc.UpdateLoad(LoadMetrics{CPUUsage: c.load, MemoryUsage: c.load})
		if got := bc.PressureLevel(); got != c.level {
			t.Fatalf("load %.2f: expected %s, got %s", c.load, c.level, got)
		}
	}
}
