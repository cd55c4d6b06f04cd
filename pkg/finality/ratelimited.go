// Copyright 2025 Certen Protocol

package finality

import (
	"context"
	"fmt"
	"time"

	"github.com/frost-protocol/frost/pkg/frosttypes"
	"github.com/frost-protocol/frost/pkg/resilience"
)

// RateLimitError is returned when the rate limiter rejects a call; the
// caller is expected to retry after RetryAfter, per spec §4.2 "every
// verify_finality first consults the limiter".
type RateLimitError struct {
	Chain      string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited for chain %s, retry after %s", e.Chain, e.RetryAfter)
}

// RateLimitedVerifier decorates a FinalityVerifier with C1's RateLimiter,
// wiring C2 into C1 the way spec §2's data-flow description requires.
type RateLimitedVerifier struct {
	inner   FinalityVerifier
	limiter *resilience.RateLimiter
	window  time.Duration
}

// NewRateLimitedVerifier wraps inner with a rate limiter of the given
// window, used to compute retry_after on rejection.
func NewRateLimitedVerifier(inner FinalityVerifier, limiter *resilience.RateLimiter, window time.Duration) *RateLimitedVerifier {
	return &RateLimitedVerifier{inner: inner, limiter: limiter, window: window}
}

func (r *RateLimitedVerifier) Family() frosttypes.ChainFamily { return r.inner.Family() }

func (r *RateLimitedVerifier) VerifyFinality(ctx context.Context, rules frosttypes.ChainRules, block frosttypes.BlockRef, signal frosttypes.FinalitySignal) (bool, float64, error) {
	if !r.limiter.Allow() {
		return false, 0, &RateLimitError{Chain: string(block.Chain), RetryAfter: r.window}
	}
	return r.inner.VerifyFinality(ctx, rules, block, signal)
}

func (r *RateLimitedVerifier) Metrics() Metrics { return r.inner.Metrics() }

func (r *RateLimitedVerifier) UpdateConfig(rules frosttypes.ChainRules) { r.inner.UpdateConfig(rules) }
