// Copyright 2025 Certen Protocol

package telemetry

import (
	"testing"
	"time"
)

func TestRecorder_Percentile(t *testing.T) {
	r := NewRecorder()
	for i := 1; i <= 100; i++ {
		r.RecordLatency("op", time.Duration(i)*time.Millisecond)
	}
	p50 := r.Percentile("op", 50)
	if p50 < 40*time.Millisecond || p50 > 60*time.Millisecond {
		t.Fatalf("expected p50 near 50ms, got %v", p50)
	}
}

func TestChainMetricsCollector_RunningAverages(t *testing.T) {
	c := NewChainMetricsCollector("eth")
	c.RecordBlock(10*time.Second, 12*time.Second)
	c.RecordBlock(20*time.Second, 12*time.Second)

	m := c.Metrics()
	if m.TotalBlocks != 2 {
		t.Fatalf("expected 2 total blocks, got %d", m.TotalBlocks)
	}
	if m.AvgBlockTime != 15*time.Second {
		t.Fatalf("expected avg block time of 15s, got %v", m.AvgBlockTime)
	}

	c.RecordMessage(100, true)
	c.RecordMessage(200, false)
	m = c.Metrics()
	if m.FailedMessages != 1 {
		t.Fatalf("expected 1 failed message, got %d", m.FailedMessages)
	}
	if m.AvgMessageSize != 150 {
		t.Fatalf("expected avg message size 150, got %f", m.AvgMessageSize)
	}
}
