// Copyright 2025 Certen Protocol

package stateproof

import (
	"testing"

	"github.com/frost-protocol/frost/pkg/frosttypes"
)

func fp(b byte) frosttypes.Fingerprint {
	var f frosttypes.Fingerprint
	f[0] = b
	return f
}

// TestProofCache_LRUEviction reproduces spec §8 boundary scenario 4:
// max_entries=2, policy=LRU. Insert p1, p2; read p1; insert p3 -> p2 is
// evicted.
func TestProofCache_LRUEviction(t *testing.T) {
	c := NewProofCache(CacheConfig{MaxEntries: 2, MaxSizeBytes: 1 << 20, Policy: EvictionPolicy{Kind: EvictionLRU}})
	p1, p2, p3 := fp(1), fp(2), fp(3)

	if err := c.Put(p1, VerificationResult{Valid: true}); err != nil {
		t.Fatal(err)
	}
	if err := c.Put(p2, VerificationResult{Valid: true}); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get(p1); !ok {
		t.Fatal("expected p1 present before eviction")
	}
	if err := c.Put(p3, VerificationResult{Valid: true}); err != nil {
		t.Fatal(err)
	}

	if _, ok := c.Get(p1); !ok {
		t.Fatal("expected p1 to survive (recently read)")
	}
	if _, ok := c.Get(p2); ok {
		t.Fatal("expected p2 to be evicted")
	}
	if _, ok := c.Get(p3); !ok {
		t.Fatal("expected p3 present")
	}
}

func TestProofCache_PutGetRoundTrip(t *testing.T) {
	c := NewProofCache(DefaultCacheConfig())
	key := fp(7)
	want := VerificationResult{Valid: true, Message: "ok"}
	if err := c.Put(key, want); err != nil {
		t.Fatal(err)
	}
	got, ok := c.Get(key)
	if !ok || got != want {
		t.Fatalf("got %+v, ok=%v, want %+v", got, ok, want)
	}
}

func TestProofCache_EntryTooLargeRejected(t *testing.T) {
	c := NewProofCache(CacheConfig{MaxEntries: 10, MaxSizeBytes: 1, Policy: EvictionPolicy{Kind: EvictionLRU}})
	err := c.Put(fp(1), VerificationResult{Valid: true, Message: "this message is definitely longer than one byte"})
	if err == nil {
		t.Fatal("expected oversized entry to be rejected")
	}
	pe, ok := err.(*ProofError)
	if !ok || pe.Category != CategoryCache {
		t.Fatalf("expected a CategoryCache ProofError, got %v", err)
	}
}

func TestProofCache_LimitsHoldAfterManyInserts(t *testing.T) {
	c := NewProofCache(CacheConfig{MaxEntries: 3, MaxSizeBytes: 1 << 10, Policy: EvictionPolicy{Kind: EvictionLFU}})
	for i := byte(0); i < 20; i++ {
		if err := c.Put(fp(i), VerificationResult{Valid: true}); err != nil {
			t.Fatal(err)
		}
		stats := c.Stats()
		if stats.TotalEntries > 3 {
			t.Fatalf("max_entries violated: %d entries after inserting %d", stats.TotalEntries, i+1)
		}
		if stats.TotalSizeBytes > 1<<10 {
			t.Fatalf("max_size_bytes violated: %d bytes after inserting %d", stats.TotalSizeBytes, i+1)
		}
	}
}

func TestFingerprint_Deterministic(t *testing.T) {
	sp := frosttypes.StateProof{
		Transition: frosttypes.StateTransition{Chain: "eth"},
		Proof:      frosttypes.ProofData{Type: frosttypes.ProofTypeBasic, Data: []byte("proof-bytes")},
	}
	a, err := Fingerprint(sp)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Fingerprint(sp)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatal("expected identical fingerprints for identical proofs")
	}

	sp.Proof.Data = []byte("different-bytes")
	c, err := Fingerprint(sp)
	if err != nil {
		t.Fatal(err)
	}
	if a == c {
		t.Fatal("expected different fingerprints for different proof data")
	}
}
