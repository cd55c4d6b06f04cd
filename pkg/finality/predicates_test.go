// Copyright 2025 Certen Protocol

package finality

import (
	"context"
	"testing"

	"github.com/frost-protocol/frost/pkg/crypto/bls"
	"github.com/frost-protocol/frost/pkg/frosttypes"
)

func TestEthereumPoW_ExactConfirmationThreshold(t *testing.T) {
	rules := frosttypes.ChainRules{Chain: "eth", Family: frosttypes.ChainFamilyEthereumPoW, MinConfirmations: 12}
	v := NewEthereumPoWVerifier(rules)
	block := frosttypes.BlockRef{Chain: "eth", Height: 1000}

	signal := frosttypes.FinalitySignal{
		Kind: frosttypes.ChainFamilyEthereumPoW,
		Ethereum: &frosttypes.EthereumSignal{BlockNumber: 1000, Confirmations: 12},
	}
	finalized, confidence, err := v.VerifyFinality(context.Background(), rules, block, signal)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !finalized || confidence != 1.0 {
		t.Fatalf("expected final=true confidence=1.0 at exact threshold, got final=%v confidence=%v", finalized, confidence)
	}

	signal.Ethereum.Confirmations = 6
	finalized, _, err = v.VerifyFinality(context.Background(), rules, block, signal)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if finalized {
		t.Fatal("expected final=false with confirmations=6 < min_confirmations=12")
	}
}

func TestCosmos_TwoThirdsBoundary(t *testing.T) {
	rules := frosttypes.ChainRules{Chain: "cosmos", Family: frosttypes.ChainFamilyCosmos}
	v := NewCosmosVerifier(rules)
	block := frosttypes.BlockRef{Chain: "cosmos", Height: 100}

	makeSignal := func(votingPower uint64) frosttypes.FinalitySignal {
		return frosttypes.FinalitySignal{
			Kind: frosttypes.ChainFamilyCosmos,
			Cosmos: &frosttypes.CosmosSignal{
				Metadata: &frosttypes.CosmosMetadata{
					VotingPower: votingPower,
					TotalPower:  1000,
				},
			},
		}
	}

	finalized, confidence, err := v.VerifyFinality(context.Background(), rules, block, makeSignal(667))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !finalized {
		t.Fatal("expected is_valid=true at voting_power=667/1000")
	}
	if confidence < 0.99 {
		t.Fatalf("expected confidence ~1.0 above threshold, got %v", confidence)
	}

	finalized, _, err = v.VerifyFinality(context.Background(), rules, block, makeSignal(666))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if finalized {
		t.Fatal("expected is_valid=false at voting_power=666/1000")
	}
}

func TestCosmos_EquivocationDetected(t *testing.T) {
	rules := frosttypes.ChainRules{Chain: "cosmos", Family: frosttypes.ChainFamilyCosmos}
	v := NewCosmosVerifier(rules)
	block := frosttypes.BlockRef{Chain: "cosmos", Height: 100}

	dup := []byte("validator-1")
	signal := frosttypes.FinalitySignal{
		Kind: frosttypes.ChainFamilyCosmos,
		Cosmos: &frosttypes.CosmosSignal{
			Metadata: &frosttypes.CosmosMetadata{
				ValidatorAddresses: [][]byte{dup, dup},
				VotingPower:        900,
				TotalPower:         1000,
			},
		},
	}

	_, _, err := v.VerifyFinality(context.Background(), rules, block, signal)
	if err == nil {
		t.Fatal("expected equivocation to produce a consensus error")
	}
	if !IsCode(err, CodeConsensusError) {
		t.Fatalf("expected ConsensusError code, got %v", err)
	}
}

func TestCosmos_AggregateSignatureVerification(t *testing.T) {
	rules := frosttypes.ChainRules{Chain: "cosmos", Family: frosttypes.ChainFamilyCosmos}
	v := NewCosmosVerifier(rules)
	block := frosttypes.BlockRef{Chain: "cosmos", Height: 100, Hash: [32]byte{1, 2, 3}}

	sk1, pk1, err := bls.GenerateKeyPair()
	if err != nil {
		t.Fatalf("generate key 1: %v", err)
	}
	sk2, pk2, err := bls.GenerateKeyPair()
	if err != nil {
		t.Fatalf("generate key 2: %v", err)
	}

	sig1 := sk1.SignWithDomain(block.Hash[:], bls.DomainAttestation)
	sig2 := sk2.SignWithDomain(block.Hash[:], bls.DomainAttestation)

	signal := frosttypes.FinalitySignal{
		Kind: frosttypes.ChainFamilyCosmos,
		Cosmos: &frosttypes.CosmosSignal{
			BlockHash:           block.Hash,
			ValidatorSignatures: [][]byte{sig1.Bytes(), sig2.Bytes()},
			Metadata: &frosttypes.CosmosMetadata{
				VotingPower:         900,
				TotalPower:          1000,
				ValidatorPublicKeys: [][]byte{pk1.Bytes(), pk2.Bytes()},
			},
		},
	}

	finalized, _, err := v.VerifyFinality(context.Background(), rules, block, signal)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !finalized {
		t.Fatal("expected finalized=true with a valid aggregate signature over the block hash")
	}

	// Replace one signature with a well-formed signature over a different
	// message: it still decodes, so aggregate verification must now fail.
	wrong := sk2.SignWithDomain([]byte("not the block hash"), bls.DomainAttestation)
	signal.Cosmos.ValidatorSignatures[1] = wrong.Bytes()

	finalized, _, err = v.VerifyFinality(context.Background(), rules, block, signal)
	if err == nil || finalized {
		t.Fatal("expected a consensus error when the aggregate signature does not verify")
	}
	if !IsCode(err, CodeConsensusError) {
		t.Fatalf("expected ConsensusError code, got %v", err)
	}
}
