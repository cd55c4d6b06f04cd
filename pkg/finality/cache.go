// Copyright 2025 Certen Protocol

package finality

import (
	"context"
	"sync"
	"time"

	"github.com/frost-protocol/frost/pkg/frosttypes"
)

// cacheEntry is the value stored per BlockRef, per spec §4.2.
type cacheEntry struct {
	isFinalized bool
	confidence  float64
	cachedAt    time.Time
}

// BlockLister fetches the last n blocks for a chain, used to pre-populate
// the cache on startup (the spec's "optional warming").
type BlockLister func(ctx context.Context, chain frosttypes.ChainID, n int) ([]frosttypes.BlockRef, frosttypes.FinalitySignal, error)

// CachingVerifier wraps any FinalityVerifier with an LRU-free TTL cache
// keyed by BlockRef, grounded on
// accumulate-lite-client-2/liteclient/cache/account.go's TTL-map pattern
// generalized to block-level finality results.
type CachingVerifier struct {
	inner FinalityVerifier
	ttl   time.Duration

	mu      sync.RWMutex
	entries map[frosttypes.BlockRef]cacheEntry

	mMu       sync.Mutex
	cacheHits uint64
}

// NewCachingVerifier wraps inner with a TTL cache.
func NewCachingVerifier(inner FinalityVerifier, ttl time.Duration) *CachingVerifier {
	return &CachingVerifier{inner: inner, ttl: ttl, entries: make(map[frosttypes.BlockRef]cacheEntry)}
}

func (c *CachingVerifier) Family() frosttypes.ChainFamily { return c.inner.Family() }

// Warm pre-populates the cache for the last n blocks using lister.
func (c *CachingVerifier) Warm(ctx context.Context, rules frosttypes.ChainRules, chain frosttypes.ChainID, n int, lister BlockLister) error {
	blocks, signal, err := lister(ctx, chain, n)
	if err != nil {
		return err
	}
	for _, block := range blocks {
		finalized, confidence, err := c.inner.VerifyFinality(ctx, rules, block, signal)
		if err != nil {
			continue
		}
		c.store(block, finalized, confidence)
	}
	return nil
}

func (c *CachingVerifier) store(block frosttypes.BlockRef, finalized bool, confidence float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[block] = cacheEntry{isFinalized: finalized, confidence: confidence, cachedAt: time.Now()}
}

func (c *CachingVerifier) VerifyFinality(ctx context.Context, rules frosttypes.ChainRules, block frosttypes.BlockRef, signal frosttypes.FinalitySignal) (bool, float64, error) {
	c.mu.RLock()
	entry, ok := c.entries[block]
	c.mu.RUnlock()

	if ok && time.Since(entry.cachedAt) < c.ttl {
		c.mMu.Lock()
		c.cacheHits++
		c.mMu.Unlock()
		return entry.isFinalized, entry.confidence, nil
	}

	finalized, confidence, err := c.inner.VerifyFinality(ctx, rules, block, signal)
	if err != nil {
		return false, 0, err
	}
	c.store(block, finalized, confidence)
	return finalized, confidence, nil
}

func (c *CachingVerifier) Metrics() Metrics {
	m := c.inner.Metrics()
	c.mMu.Lock()
	m.CacheHits = c.cacheHits
	c.mMu.Unlock()
	return m
}

func (c *CachingVerifier) UpdateConfig(rules frosttypes.ChainRules) { c.inner.UpdateConfig(rules) }
