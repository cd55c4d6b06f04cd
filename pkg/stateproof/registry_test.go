// Copyright 2025 Certen Protocol

package stateproof

import (
	"testing"
	"time"

	"github.com/frost-protocol/frost/pkg/frosttypes"
)

func basicProof(chain frosttypes.ChainID, data string) frosttypes.StateProof {
	return frosttypes.StateProof{
		Transition: frosttypes.StateTransition{
			Chain:     chain,
			PreState:  frosttypes.StateRoot{Block: frosttypes.BlockRef{Chain: chain, Height: 1}},
			PostState: frosttypes.StateRoot{Block: frosttypes.BlockRef{Chain: chain, Height: 2}},
		},
		Proof: frosttypes.ProofData{
			Type:        frosttypes.ProofTypeBasic,
			Data:        []byte(data),
			GeneratedAt: time.Now(),
		},
	}
}

func TestRegistry_VerifyAndCache(t *testing.T) {
	cache := NewProofCache(DefaultCacheConfig())
	reg := NewRegistry(cache)
	reg.Register(&BasicVerifier{})

	sp := basicProof("eth", "proof-a")
	ok, err := reg.Verify(sp, nil)
	if err != nil || !ok {
		t.Fatalf("expected valid basic proof, got ok=%v err=%v", ok, err)
	}

	if cache.Stats().HitCount != 0 {
		t.Fatalf("expected first verify to be a cache miss")
	}
	if _, err := reg.Verify(sp, nil); err != nil {
		t.Fatal(err)
	}
	if cache.Stats().HitCount != 1 {
		t.Fatalf("expected second identical verify to hit the cache, stats=%+v", cache.Stats())
	}
}

func TestRegistry_NoVerifierRegistered(t *testing.T) {
	reg := NewRegistry(nil)
	sp := basicProof("eth", "x")
	sp.Proof.Type = frosttypes.ProofTypeValidity
	_, err := reg.Verify(sp, nil)
	if err == nil {
		t.Fatal("expected error for unregistered proof type")
	}
}

func TestRegistry_ChainIDMismatch(t *testing.T) {
	reg := NewRegistry(nil)
	reg.Register(&BasicVerifier{})
	sp := basicProof("eth", "x")
	sp.Proof.Metadata = map[string]any{"chain_id": "eth"}
	other := frosttypes.ChainID("cosmos")
	_, err := reg.Verify(sp, &VerifyContext{ChainID: &other})
	if err == nil {
		t.Fatal("expected chain ID mismatch error")
	}
	pe, ok := err.(*ProofError)
	if !ok || pe.Category != CategoryValidation {
		t.Fatalf("expected a validation ProofError, got %v", err)
	}
}
