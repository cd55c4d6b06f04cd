// Copyright 2025 Certen Protocol

package finality

import (
	"context"
	"sync"

	"github.com/cometbft/cometbft/crypto/tmhash"

	"github.com/frost-protocol/frost/pkg/crypto/bls"
	"github.com/frost-protocol/frost/pkg/frosttypes"
)

// clamp01 clamps a confidence value to [0,1], per spec §4.2.
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// baseVerifier holds the mutable ChainRules and metrics shared by every
// predicate implementation below.
type baseVerifier struct {
	mu    sync.RWMutex
	rules frosttypes.ChainRules

	mMu sync.Mutex
	m   Metrics
}

func (b *baseVerifier) currentRules() frosttypes.ChainRules {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.rules
}

func (b *baseVerifier) UpdateConfig(rules frosttypes.ChainRules) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rules = rules
}

func (b *baseVerifier) Metrics() Metrics {
	b.mMu.Lock()
	defer b.mMu.Unlock()
	return b.m
}

func (b *baseVerifier) record(finalized bool) {
	b.mMu.Lock()
	defer b.mMu.Unlock()
	b.m.Verifications++
	if finalized {
		b.m.Finalized++
	} else {
		b.m.Rejected++
	}
}

// EthereumPoWVerifier implements the confirmation-depth predicate:
// final iff signal.block_number ≤ block_ref.number − min_confirmations.
type EthereumPoWVerifier struct{ baseVerifier }

// NewEthereumPoWVerifier constructs a verifier with the given rules.
func NewEthereumPoWVerifier(rules frosttypes.ChainRules) *EthereumPoWVerifier {
	v := &EthereumPoWVerifier{}
	v.rules = rules
	return v
}

func (v *EthereumPoWVerifier) Family() frosttypes.ChainFamily { return frosttypes.ChainFamilyEthereumPoW }

func (v *EthereumPoWVerifier) VerifyFinality(ctx context.Context, rules frosttypes.ChainRules, block frosttypes.BlockRef, signal frosttypes.FinalitySignal) (bool, float64, error) {
	if signal.Kind != frosttypes.ChainFamilyEthereumPoW || signal.Ethereum == nil {
		return false, 0, invalidSignal(string(block.Chain), "expected ethereum pow signal for block "+describeEthereumBlock(block))
	}
	e := signal.Ethereum
	finalized := e.BlockNumber <= saturatingSub(block.Height, rules.MinConfirmations)

	var confidence float64
	if finalized {
		confidence = 1.0
	} else if rules.MinConfirmations > 0 {
		confidence = clamp01(float64(e.Confirmations) / float64(rules.MinConfirmations))
	}
	v.record(finalized)
	return finalized, confidence, nil
}

func saturatingSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}

// EthereumBeaconVerifier implements the beacon-chain finality predicate.
type EthereumBeaconVerifier struct{ baseVerifier }

// NewEthereumBeaconVerifier constructs a verifier with the given rules.
func NewEthereumBeaconVerifier(rules frosttypes.ChainRules) *EthereumBeaconVerifier {
	v := &EthereumBeaconVerifier{}
	v.rules = rules
	return v
}

func (v *EthereumBeaconVerifier) Family() frosttypes.ChainFamily {
	return frosttypes.ChainFamilyEthereumBeacon
}

const (
	defaultMinValidatorParticipation  = 0.75
	defaultMinJustificationParticipation = 0.80
)

func (v *EthereumBeaconVerifier) VerifyFinality(ctx context.Context, rules frosttypes.ChainRules, block frosttypes.BlockRef, signal frosttypes.FinalitySignal) (bool, float64, error) {
	if signal.Kind != frosttypes.ChainFamilyEthereumBeacon || signal.Ethereum == nil || signal.Ethereum.Metadata == nil {
		return false, 0, invalidSignal(string(block.Chain), "expected ethereum beacon signal with metadata for block "+ethHashHex(block.Hash))
	}
	e := signal.Ethereum
	md := e.Metadata

	syncTolerance := chainParamUint(rules, "sync_tolerance", 2)
	minParticipation := chainParamFloat(rules, "min_validator_participation", defaultMinValidatorParticipation)
	minJustification := chainParamFloat(rules, "min_justification_participation", defaultMinJustificationParticipation)

	typeOK := e.FinalityType == frosttypes.FinalityBeaconFinalized || e.FinalityType == frosttypes.FinalityBeaconJustified
	if !typeOK {
		v.record(false)
		return false, 0, nil
	}

	slotLag := saturatingSub(md.CurrentSlot, md.HeadSlot)
	syncOK := slotLag <= syncTolerance

	var participation float64
	if md.TotalValidators > 0 {
		participation = float64(md.ActiveValidators) / float64(md.TotalValidators)
	}
	participationOK := participation >= minParticipation

	justificationOK := true
	if e.FinalityType == frosttypes.FinalityBeaconJustified {
		justificationOK = md.ParticipationRate >= minJustification
	}

	epochOK := md.FinalizedEpoch < md.JustifiedEpoch

	finalized := syncOK && participationOK && justificationOK && epochOK

	var confidence float64
	if finalized {
		confidence = 1.0
	} else {
		confidence = clamp01(participation / minParticipation)
	}
	v.record(finalized)
	return finalized, confidence, nil
}

// CosmosVerifier implements the 2/3-voting-power predicate with
// equivocation detection, grounded on the teacher's CometBFT integration
// (github.com/cometbft/cometbft) for validator-address hashing.
type CosmosVerifier struct{ baseVerifier }

// NewCosmosVerifier constructs a verifier with the given rules.
func NewCosmosVerifier(rules frosttypes.ChainRules) *CosmosVerifier {
	v := &CosmosVerifier{}
	v.rules = rules
	return v
}

func (v *CosmosVerifier) Family() frosttypes.ChainFamily { return frosttypes.ChainFamilyCosmos }

func (v *CosmosVerifier) VerifyFinality(ctx context.Context, rules frosttypes.ChainRules, block frosttypes.BlockRef, signal frosttypes.FinalitySignal) (bool, float64, error) {
	if signal.Kind != frosttypes.ChainFamilyCosmos || signal.Cosmos == nil || signal.Cosmos.Metadata == nil {
		return false, 0, invalidSignal(string(block.Chain), "expected cosmos signal with metadata")
	}
	c := signal.Cosmos
	md := c.Metadata

	seen := make(map[string]struct{}, len(md.ValidatorAddresses))
	for _, addr := range md.ValidatorAddresses {
		key := string(tmhash.Sum(addr))
		if _, dup := seen[key]; dup {
			return false, 0, consensusError(string(block.Chain), "equivocation: validator address signed twice")
		}
		seen[key] = struct{}{}
	}

	var ratio float64
	if md.TotalPower > 0 {
		ratio = float64(md.VotingPower) / float64(md.TotalPower)
	}
	signedEnough := len(md.ValidatorAddresses) >= int(md.MinValidatorPower) || md.MinValidatorPower == 0
	finalized := ratio > 2.0/3.0 && signedEnough

	if finalized && len(md.ValidatorPublicKeys) > 0 {
		ok, err := verifyCosmosAggregateSignature(c, md, block.Hash)
		if err != nil {
			return false, 0, err
		}
		if !ok {
			return false, 0, consensusError(string(block.Chain), "aggregate BLS signature does not verify against reported validator set")
		}
	}

	var confidence float64
	if finalized {
		confidence = 1.0
	} else {
		confidence = clamp01(ratio / (2.0 / 3.0))
	}
	v.record(finalized)
	return finalized, confidence, nil
}

// verifyCosmosAggregateSignature checks the validator set's BLS12-381
// signatures over the block hash, aggregating per-validator signatures
// with the same scheme CERTEN's attestation layer uses
// (pkg/crypto/bls.AggregateSignatures/VerifyAggregateSignature).
func verifyCosmosAggregateSignature(c *frosttypes.CosmosSignal, md *frosttypes.CosmosMetadata, blockHash [32]byte) (bool, error) {
	if len(c.ValidatorSignatures) != len(md.ValidatorPublicKeys) {
		return false, invalidSignal("cosmos", "validator_signatures and validator_public_keys length mismatch")
	}

	sigs := make([]*bls.Signature, 0, len(c.ValidatorSignatures))
	pubKeys := make([]*bls.PublicKey, 0, len(md.ValidatorPublicKeys))
	for i, raw := range c.ValidatorSignatures {
		sig, err := bls.SignatureFromBytes(raw)
		if err != nil {
			return false, invalidSignal("cosmos", "malformed validator signature")
		}
		pk, err := bls.PublicKeyFromBytes(md.ValidatorPublicKeys[i])
		if err != nil {
			return false, invalidSignal("cosmos", "malformed validator public key")
		}
		sigs = append(sigs, sig)
		pubKeys = append(pubKeys, pk)
	}

	aggSig, err := bls.AggregateSignatures(sigs)
	if err != nil {
		return false, invalidSignal("cosmos", "unable to aggregate validator signatures")
	}
	return bls.VerifyAggregateSignatureWithDomain(aggSig, pubKeys, blockHash[:], bls.DomainAttestation), nil
}

// SubstrateVerifier implements the GRANDPA finality predicate, with an
// additional parachain check when ChainParams marks the chain as one.
type SubstrateVerifier struct{ baseVerifier }

// NewSubstrateVerifier constructs a verifier with the given rules.
func NewSubstrateVerifier(rules frosttypes.ChainRules) *SubstrateVerifier {
	v := &SubstrateVerifier{}
	v.rules = rules
	return v
}

func (v *SubstrateVerifier) Family() frosttypes.ChainFamily { return frosttypes.ChainFamilySubstrate }

func (v *SubstrateVerifier) VerifyFinality(ctx context.Context, rules frosttypes.ChainRules, block frosttypes.BlockRef, signal frosttypes.FinalitySignal) (bool, float64, error) {
	if signal.Kind != frosttypes.ChainFamilySubstrate || signal.Substrate == nil || signal.Substrate.Metadata == nil {
		return false, 0, invalidSignal(string(block.Chain), "expected substrate signal with metadata")
	}
	md := signal.Substrate.Metadata

	if !md.JustificationValid {
		v.record(false)
		return false, 0, nil
	}

	var ratio float64
	if md.TotalPower > 0 {
		ratio = float64(md.VotingPower) / float64(md.TotalPower)
	}
	votingOK := ratio >= 2.0/3.0

	isParachain, _ := rules.ChainParams["is_parachain"].(bool)
	parachainOK := true
	if isParachain {
		parachainOK = md.RelayParent != [32]byte{} &&
			md.RelayHeadNumber >= block.Height &&
			md.StorageRootMatches
	}

	finalized := votingOK && parachainOK

	var confidence float64
	if finalized {
		confidence = 1.0
	} else {
		confidence = clamp01(ratio / (2.0 / 3.0))
	}
	v.record(finalized)
	return finalized, confidence, nil
}

// SolanaVerifier implements the supermajority-stake predicate.
type SolanaVerifier struct{ baseVerifier }

// NewSolanaVerifier constructs a verifier with the given rules.
func NewSolanaVerifier(rules frosttypes.ChainRules) *SolanaVerifier {
	v := &SolanaVerifier{}
	v.rules = rules
	return v
}

func (v *SolanaVerifier) Family() frosttypes.ChainFamily { return frosttypes.ChainFamilySolana }

func (v *SolanaVerifier) VerifyFinality(ctx context.Context, rules frosttypes.ChainRules, block frosttypes.BlockRef, signal frosttypes.FinalitySignal) (bool, float64, error) {
	if signal.Kind != frosttypes.ChainFamilySolana || signal.Solana == nil || signal.Solana.Metadata == nil {
		return false, 0, invalidSignal(string(block.Chain), "expected solana signal with metadata")
	}
	md := signal.Solana.Metadata

	var ratio float64
	if md.TotalActiveStake > 0 {
		ratio = float64(md.VoteAccountStake) / float64(md.TotalActiveStake)
	}
	stakeOK := ratio >= 2.0/3.0
	rootOK := md.SupermajorityRootSlot <= block.Height

	finalized := stakeOK && rootOK

	var confidence float64
	if finalized {
		confidence = 1.0
	} else {
		confidence = clamp01(ratio / (2.0 / 3.0))
	}
	v.record(finalized)
	return finalized, confidence, nil
}

func chainParamUint(rules frosttypes.ChainRules, key string, def uint64) uint64 {
	if rules.ChainParams == nil {
		return def
	}
	switch n := rules.ChainParams[key].(type) {
	case uint64:
		return n
	case int:
		return uint64(n)
	case float64:
		return uint64(n)
	default:
		return def
	}
}

func chainParamFloat(rules frosttypes.ChainRules, key string, def float64) float64 {
	if rules.ChainParams == nil {
		return def
	}
	if f, ok := rules.ChainParams[key].(float64); ok {
		return f
	}
	return def
}
