// Copyright 2025 Certen Protocol

// Package finality implements FROST's per-chain-family finality engine:
// pluggable FinalityVerifiers for Ethereum/PoW, Ethereum/Beacon, Cosmos,
// Substrate, and Solana, a rate-limiting decorator, a TTL caching
// wrapper, and an explicitly-constructed registry mapping chains to
// verifiers.
package finality

import (
	"context"

	"github.com/frost-protocol/frost/pkg/frosttypes"
)

// FinalityVerificationClient is the external chain-RPC collaborator named
// in spec §6. Concrete bindings (Ethereum JSON-RPC, CometBFT RPC, etc.)
// are out of scope for this repo; callers supply an implementation, and
// pkg/finality/testclient ships an in-memory fake used by this package's
// own tests.
type FinalityVerificationClient interface {
	GetBlock(ctx context.Context, chain frosttypes.ChainID, ref frosttypes.BlockRef) (frosttypes.BlockRef, error)
	VerifyBlockHash(ctx context.Context, chain frosttypes.ChainID, ref frosttypes.BlockRef) (bool, error)
	IsBlockFinalized(ctx context.Context, chain frosttypes.ChainID, ref frosttypes.BlockRef) (bool, error)
	IsBlockJustified(ctx context.Context, chain frosttypes.ChainID, ref frosttypes.BlockRef) (bool, error)
	VerifyVoteSignatures(ctx context.Context, chain frosttypes.ChainID, ref frosttypes.BlockRef, signatures [][]byte) (bool, error)
	VerifyValidatorSignatures(ctx context.Context, chain frosttypes.ChainID, ref frosttypes.BlockRef, signatures [][]byte) (bool, error)
	GetLatestFinalizedBlock(ctx context.Context, chain frosttypes.ChainID) (frosttypes.BlockRef, error)
	GetChainHead(ctx context.Context, chain frosttypes.ChainID) (frosttypes.BlockRef, error)
	VerifyBlockInclusion(ctx context.Context, chain frosttypes.ChainID, ref frosttypes.BlockRef, proof []byte) (bool, error)
	GetFinalityConfidence(ctx context.Context, chain frosttypes.ChainID, ref frosttypes.BlockRef) (float64, error)
	VerifyChainRules(ctx context.Context, chain frosttypes.ChainID, ref frosttypes.BlockRef, rules frosttypes.ChainRules) (bool, error)
}

// FinalityVerifier evaluates whether a block is final under a chain's
// rules given the evidence carried in a FinalitySignal, per spec §4.2's
// single exposed operation `verify_finality(block_ref, signal) -> bool`.
// Confidence is returned alongside the boolean result.
type FinalityVerifier interface {
	Family() frosttypes.ChainFamily
	VerifyFinality(ctx context.Context, rules frosttypes.ChainRules, block frosttypes.BlockRef, signal frosttypes.FinalitySignal) (finalized bool, confidence float64, err error)
	Metrics() Metrics
	UpdateConfig(rules frosttypes.ChainRules)
}

// Metrics is the minimal get_metrics() surface named in spec §4.2.
type Metrics struct {
	Verifications uint64
	Finalized     uint64
	Rejected      uint64
	CacheHits     uint64
}
