// Copyright 2025 Certen Protocol

package resilience

import (
	"sync"
	"time"
)

// RateLimiter is a fixed-window limiter allowing up to limit calls per
// window, for spec.md §4.1's per-chain rate limiting. It has no burst
// allowance above that limit.
type RateLimiter struct {
	limit  uint32
	window time.Duration

	mu          sync.Mutex
	windowStart time.Time
	count       uint32
}

// NewRateLimiter constructs a limiter allowing up to limit calls per window.
func NewRateLimiter(limit uint32, window time.Duration) *RateLimiter {
	return &RateLimiter{limit: limit, window: window, windowStart: time.Now()}
}

// Allow reports whether a call may proceed under the current window,
// rolling the window forward when it has elapsed.
func (r *RateLimiter) Allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if now.Sub(r.windowStart) >= r.window {
		r.windowStart = now
		r.count = 0
	}
	if r.count >= r.limit {
		return false
	}
	r.count++
	return true
}

// PerChainLimiters isolates one RateLimiter per chain.
type PerChainLimiters struct {
	limit  uint32
	window time.Duration

	mu sync.Mutex
	m  map[string]*RateLimiter
}

// NewPerChainLimiters constructs an empty per-chain limiter set.
func NewPerChainLimiters(limit uint32, window time.Duration) *PerChainLimiters {
	return &PerChainLimiters{limit: limit, window: window, m: make(map[string]*RateLimiter)}
}

// For returns the limiter for chain, creating it on first use.
func (p *PerChainLimiters) For(chain string) *RateLimiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.m[chain]
	if !ok {
		l = NewRateLimiter(p.limit, p.window)
		p.m[chain] = l
	}
	return l
}
