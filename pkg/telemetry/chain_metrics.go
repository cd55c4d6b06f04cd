// Copyright 2025 Certen Protocol

package telemetry

import (
	"sync"
	"time"

	"github.com/frost-protocol/frost/pkg/frosttypes"
)

// ChainMetrics aggregates a single chain's processing statistics, per
// original_source/src/metrics/chain_metrics.rs's ChainMetrics struct.
type ChainMetrics struct {
	ChainID         frosttypes.ChainID
	AvgBlockTime    time.Duration
	AvgFinalityTime time.Duration
	TotalBlocks     uint64
	TotalMessages   uint64
	FailedMessages  uint64
	AvgMessageSize  float64
}

// ChainMetricsCollector is the Go counterpart to the original's
// ChainMetricsCollector trait: a caller feeds one chain's block and
// message observations into it. Outside this package's tests, nothing in
// the module constructs one.
type ChainMetricsCollector struct {
	mu      sync.Mutex
	metrics ChainMetrics

	blockSamples   int
	finalitySamples int
	sizeSamples    int
}

// NewChainMetricsCollector constructs a collector for chain.
func NewChainMetricsCollector(chain frosttypes.ChainID) *ChainMetricsCollector {
	return &ChainMetricsCollector{metrics: ChainMetrics{ChainID: chain}}
}

// RecordBlock folds a new block/finality observation into the running
// average, per the original's record_block.
func (c *ChainMetricsCollector) RecordBlock(blockTime, finalityTime time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metrics.TotalBlocks++
	c.blockSamples++
	c.finalitySamples++
	c.metrics.AvgBlockTime = runningAvg(c.metrics.AvgBlockTime, blockTime, c.blockSamples)
	c.metrics.AvgFinalityTime = runningAvg(c.metrics.AvgFinalityTime, finalityTime, c.finalitySamples)
}

// RecordMessage folds a new message observation into the running
// average message size and failure count, per the original's
// record_message.
func (c *ChainMetricsCollector) RecordMessage(size int, success bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metrics.TotalMessages++
	c.sizeSamples++
	c.metrics.AvgMessageSize = runningAvgFloat(c.metrics.AvgMessageSize, float64(size), c.sizeSamples)
	if !success {
		c.metrics.FailedMessages++
	}
}

// Metrics returns a snapshot of the chain's current metrics.
func (c *ChainMetricsCollector) Metrics() ChainMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.metrics
}

func runningAvg(prev, sample time.Duration, n int) time.Duration {
	if n <= 0 {
		return sample
	}
	return prev + (sample-prev)/time.Duration(n)
}

func runningAvgFloat(prev, sample float64, n int) float64 {
	if n <= 0 {
		return sample
	}
	return prev + (sample-prev)/float64(n)
}
