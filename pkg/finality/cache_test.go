// Copyright 2025 Certen Protocol

package finality

import (
	"context"
	"testing"
	"time"

	"github.com/frost-protocol/frost/pkg/frosttypes"
)

type countingVerifier struct {
	calls int
}

func (c *countingVerifier) Family() frosttypes.ChainFamily { return frosttypes.ChainFamilyEthereumPoW }
func (c *countingVerifier) VerifyFinality(ctx context.Context, rules frosttypes.ChainRules, block frosttypes.BlockRef, signal frosttypes.FinalitySignal) (bool, float64, error) {
	c.calls++
	return true, 1.0, nil
}
func (c *countingVerifier) Metrics() Metrics                      { return Metrics{} }
func (c *countingVerifier) UpdateConfig(rules frosttypes.ChainRules) {}

func TestCachingVerifier_HitsWithinTTL(t *testing.T) {
	inner := &countingVerifier{}
	cv := NewCachingVerifier(inner, 50*time.Millisecond)
	block := frosttypes.BlockRef{Chain: "eth", Height: 10}
	rules := frosttypes.ChainRules{}
	signal := frosttypes.FinalitySignal{Kind: frosttypes.ChainFamilyEthereumPoW, Ethereum: &frosttypes.EthereumSignal{}}

	if _, _, err := cv.VerifyFinality(context.Background(), rules, block, signal); err != nil {
		t.Fatal(err)
	}
	if _, _, err := cv.VerifyFinality(context.Background(), rules, block, signal); err != nil {
		t.Fatal(err)
	}
	if inner.calls != 1 {
		t.Fatalf("expected cache hit to avoid second inner call, got %d calls", inner.calls)
	}
	if cv.Metrics().CacheHits != 1 {
		t.Fatalf("expected 1 cache hit recorded, got %d", cv.Metrics().CacheHits)
	}

	time.Sleep(60 * time.Millisecond)
	if _, _, err := cv.VerifyFinality(context.Background(), rules, block, signal); err != nil {
		t.Fatal(err)
	}
	if inner.calls != 2 {
		t.Fatalf("expected TTL expiry to trigger a fresh inner call, got %d calls", inner.calls)
	}
}
