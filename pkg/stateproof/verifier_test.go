// Copyright 2025 Certen Protocol

package stateproof

import (
	"testing"
	"time"

	"github.com/frost-protocol/frost/pkg/frosttypes"
	"github.com/frost-protocol/frost/pkg/merkle"
)

func TestMerkleVerifier_ValidInclusion(t *testing.T) {
	leaves := [][]byte{merkle.HashData([]byte("a")), merkle.HashData([]byte("b")), merkle.HashData([]byte("c"))}
	tree, err := merkle.BuildTree(leaves)
	if err != nil {
		t.Fatal(err)
	}
	incl, err := tree.GenerateProof(0)
	if err != nil {
		t.Fatal(err)
	}
	data, err := incl.ToJSON()
	if err != nil {
		t.Fatal(err)
	}

	var root [32]byte
	copy(root[:], tree.Root())

	sp := frosttypes.StateProof{
		Transition: frosttypes.StateTransition{
			Chain:     "eth",
			PostState: frosttypes.StateRoot{RootHash: root},
		},
		Proof: frosttypes.ProofData{
			Type:        frosttypes.ProofTypeMerkle,
			Data:        data,
			GeneratedAt: time.Now(),
		},
	}

	v := &MerkleVerifier{}
	ok, err := v.Verify(sp, nil)
	if err != nil || !ok {
		t.Fatalf("expected valid inclusion proof, got ok=%v err=%v", ok, err)
	}
}

func TestMerkleVerifier_WrongRootFails(t *testing.T) {
	leaves := [][]byte{merkle.HashData([]byte("a")), merkle.HashData([]byte("b"))}
	tree, err := merkle.BuildTree(leaves)
	if err != nil {
		t.Fatal(err)
	}
	incl, err := tree.GenerateProof(0)
	if err != nil {
		t.Fatal(err)
	}
	data, _ := incl.ToJSON()

	sp := frosttypes.StateProof{
		Proof: frosttypes.ProofData{Type: frosttypes.ProofTypeMerkle, Data: data, GeneratedAt: time.Now()},
	}
	// PostState.RootHash left as the zero value: deliberately wrong root.
	v := &MerkleVerifier{}
	ok, err := v.Verify(sp, nil)
	if err == nil && ok {
		t.Fatal("expected verification against the wrong root to fail")
	}
}

func TestProofVerifier_ExpiredProofFails(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	sp := frosttypes.StateProof{
		Proof: frosttypes.ProofData{
			Type:        frosttypes.ProofTypeBasic,
			Data:        []byte("x"),
			GeneratedAt: past.Add(-time.Hour),
			ExpiresAt:   &past,
		},
	}
	v := &BasicVerifier{}
	_, err := v.Verify(sp, nil)
	if err == nil {
		t.Fatal("expected expired proof to fail")
	}
	pe, ok := err.(*ProofError)
	if !ok || pe.Category != CategoryExpiration {
		t.Fatalf("expected CategoryExpiration, got %v", err)
	}
}

func TestCustomVerifier_DispatchesByKind(t *testing.T) {
	called := false
	v := &CustomVerifier{Kinds: map[string]func(frosttypes.StateProof) (bool, error){
		"my-kind": func(sp frosttypes.StateProof) (bool, error) {
			called = true
			return true, nil
		},
	}}
	sp := frosttypes.StateProof{
		Proof: frosttypes.ProofData{
			Type:        frosttypes.ProofTypeCustom,
			CustomKind:  "my-kind",
			Data:        []byte("x"),
			GeneratedAt: time.Now(),
		},
	}
	ok, err := v.Verify(sp, nil)
	if err != nil || !ok || !called {
		t.Fatalf("expected custom verifier dispatch, ok=%v err=%v called=%v", ok, err, called)
	}
}
