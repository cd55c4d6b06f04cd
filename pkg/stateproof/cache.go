// Copyright 2025 Certen Protocol

package stateproof

import (
	"encoding/hex"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/frost-protocol/frost/pkg/commitment"
	"github.com/frost-protocol/frost/pkg/frosttypes"
)

// EvictionPolicy selects how ProofCache frees space, per spec §4.3.
type EvictionPolicy struct {
	Kind EvictionKind
	TTL  time.Duration // only meaningful when Kind == EvictionTTL
}

type EvictionKind string

const (
	EvictionLRU EvictionKind = "lru"
	EvictionLFU EvictionKind = "lfu"
	EvictionTTL EvictionKind = "ttl"
)

// CacheConfig mirrors original_source/src/state/cache.rs's CacheConfig.
type CacheConfig struct {
	MaxEntries   int
	MaxSizeBytes int64
	Policy       EvictionPolicy
}

// DefaultCacheConfig matches the teacher's defaults: 10k entries, 100MB,
// LRU eviction.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		MaxEntries:   10_000,
		MaxSizeBytes: 100 * 1024 * 1024,
		Policy:       EvictionPolicy{Kind: EvictionLRU},
	}
}

// VerificationResult is the cached value, per spec §3/§4.3: the outcome
// of a proof verification.
type VerificationResult struct {
	Valid   bool
	Message string
}

type cacheEntry struct {
	value        VerificationResult
	createdAt    time.Time
	lastAccessed time.Time
	accessCount  uint64
	sizeBytes    int64
}

// CacheStats is the observable snapshot of spec §4.3's cache metrics.
type CacheStats struct {
	TotalEntries   int
	TotalSizeBytes int64
	HitCount       uint64
	MissCount      uint64
	EvictionCount  uint64
}

// ProofCache is the content-addressed verification cache of spec §4.3,
// grounded on original_source/src/state/cache.rs's ProofCache (DashMap +
// atomic counters), reimplemented here as a mutex-guarded map per spec
// §5's "concurrent map with per-entry atomic counters; eviction takes a
// global write guard only while mutating the map" — Go has no DashMap in
// the pack's dependency set, so a single Mutex stands in, matching the
// teacher's own pool-map locking style (pkg/database/repository_unified.go).
type ProofCache struct {
	mu      sync.Mutex
	entries map[frosttypes.Fingerprint]*cacheEntry
	config  CacheConfig

	totalSize int64
	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64

	now func() time.Time
}

// NewProofCache constructs a cache with the given configuration.
func NewProofCache(config CacheConfig) *ProofCache {
	if config.MaxEntries <= 0 {
		config = DefaultCacheConfig()
	}
	return &ProofCache{
		entries: make(map[frosttypes.Fingerprint]*cacheEntry),
		config:  config,
		now:     time.Now,
	}
}

// Fingerprint computes the deterministic content-hash cache key for a
// StateProof, per spec §3: "hash(transition || proof_data)". Grounded
// on pkg/commitment.HashCanonical, replacing the original's debug-format
// `cache_key()` (DESIGN.md decision #5).
func Fingerprint(sp frosttypes.StateProof) (frosttypes.Fingerprint, error) {
	digest, err := commitment.HashCanonical(struct {
		Transition frosttypes.StateTransition
		Proof      frosttypes.ProofData
	}{sp.Transition, sp.Proof})
	if err != nil {
		return frosttypes.Fingerprint{}, err
	}
	raw, err := hex.DecodeString(strings.TrimPrefix(digest, "0x"))
	if err != nil || len(raw) != 32 {
		return frosttypes.Fingerprint{}, invalidProof("failed to compute fingerprint")
	}
	var fp frosttypes.Fingerprint
	copy(fp[:], raw)
	return fp, nil
}

// Get returns the cached result for fp if present, bumping its access
// bookkeeping in place, per spec §4.3: "get updates last_accessed and
// access_count in place".
func (c *ProofCache) Get(fp frosttypes.Fingerprint) (VerificationResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[fp]
	if !ok {
		c.misses.Add(1)
		return VerificationResult{}, false
	}
	e.lastAccessed = c.now()
	e.accessCount++
	c.hits.Add(1)
	return e.value, true
}

// Put inserts or replaces the cached result for fp, evicting per policy
// until both MaxEntries and MaxSizeBytes hold (spec §8 invariant: both
// limits hold "at all observable moments", stricter than the original —
// DESIGN.md decision #4).
func (c *ProofCache) Put(fp frosttypes.Fingerprint, result VerificationResult) error {
	size := int64(len(result.Message)) + 1

	c.mu.Lock()
	defer c.mu.Unlock()

	if size > c.config.MaxSizeBytes {
		return cacheError("Cache entry too large")
	}

	now := c.now()
	if existing, ok := c.entries[fp]; ok {
		c.totalSize -= existing.sizeBytes
		delete(c.entries, fp)
	}

	for c.overLimitLocked(size) && len(c.entries) > 0 {
		if !c.evictOneLocked() {
			break
		}
	}

	c.entries[fp] = &cacheEntry{
		value:        result,
		createdAt:    now,
		lastAccessed: now,
		accessCount:  0,
		sizeBytes:    size,
	}
	c.totalSize += size
	return nil
}

func (c *ProofCache) overLimitLocked(incoming int64) bool {
	return len(c.entries)+1 > c.config.MaxEntries || c.totalSize+incoming > c.config.MaxSizeBytes
}

// evictOneLocked evicts one entry per the configured policy. For TTL it
// evicts every expired entry in one pass (spec: "TTL(d): evict all
// entries with now - created_at > d"); for LRU/LFU it evicts the single
// smallest-ranked entry, matching the teacher's per-put eviction loop.
func (c *ProofCache) evictOneLocked() bool {
	switch c.config.Policy.Kind {
	case EvictionTTL:
		return c.evictExpiredLocked()
	case EvictionLFU:
		return c.evictByLocked(func(e *cacheEntry) int64 { return int64(e.accessCount) })
	default:
		return c.evictByLocked(func(e *cacheEntry) int64 { return e.lastAccessed.UnixNano() })
	}
}

func (c *ProofCache) evictByLocked(rank func(*cacheEntry) int64) bool {
	var victim frosttypes.Fingerprint
	var victimRank int64
	found := false
	for fp, e := range c.entries {
		r := rank(e)
		if !found || r < victimRank {
			victim, victimRank, found = fp, r, true
		}
	}
	if !found {
		return false
	}
	c.totalSize -= c.entries[victim].sizeBytes
	delete(c.entries, victim)
	c.evictions.Add(1)
	return true
}

func (c *ProofCache) evictExpiredLocked() bool {
	ttl := c.config.Policy.TTL
	now := c.now()
	evictedAny := false
	for fp, e := range c.entries {
		if now.Sub(e.createdAt) > ttl {
			c.totalSize -= e.sizeBytes
			delete(c.entries, fp)
			c.evictions.Add(1)
			evictedAny = true
		}
	}
	return evictedAny
}

// Stats returns a snapshot of the cache's observable counters.
func (c *ProofCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{
		TotalEntries:   len(c.entries),
		TotalSizeBytes: c.totalSize,
		HitCount:       c.hits.Load(),
		MissCount:      c.misses.Load(),
		EvictionCount:  c.evictions.Load(),
	}
}

// Clear removes every entry, resetting size accounting.
func (c *ProofCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[frosttypes.Fingerprint]*cacheEntry)
	c.totalSize = 0
}
