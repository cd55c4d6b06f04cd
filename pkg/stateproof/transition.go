// Copyright 2025 Certen Protocol

package stateproof

import (
	"github.com/frost-protocol/frost/pkg/frosttypes"
)

// ValidateTransition enforces spec §4.3's transition validation rule:
// reject when post_state.number < pre_state.number, when chain IDs
// differ and the proof type is not cross-chain-capable, or when the
// transition proof payload is empty.
func ValidateTransition(t frosttypes.StateTransition) error {
	if t.PostState.Block.Height < t.PreState.Block.Height {
		return invalidProof("post_state height is below pre_state height")
	}
	if t.PreState.Block.Chain != t.PostState.Block.Chain && !t.Metadata.ProofType.CrossChainCapable() {
		return invalidProof("cross-chain transition requires a ZK, Validity, or Custom proof type")
	}
	if len(t.TransitionProof) == 0 {
		return invalidProof("transition payload is empty")
	}
	return nil
}

// VerifyTransition validates t and, when present, verifies its bound
// StateProof against reg. It implements spec §4.3's `verify_transition`
// operation.
func VerifyTransition(reg *Registry, t frosttypes.StateTransition, proof *frosttypes.StateProof) (bool, error) {
	if err := ValidateTransition(t); err != nil {
		return false, err
	}
	if proof == nil {
		return true, nil
	}
	return reg.Verify(*proof, nil)
}
