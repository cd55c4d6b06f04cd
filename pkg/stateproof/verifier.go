// Copyright 2025 Certen Protocol

package stateproof

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/frost-protocol/frost/pkg/frosttypes"
	"github.com/frost-protocol/frost/pkg/merkle"
)

// VerifyContext carries the caller-supplied context spec §4.3 allows a
// verifier to consult: when ChainID is set, it must equal the proof's
// metadata chain id or verification fails with InvalidProof.
type VerifyContext struct {
	ChainID *frosttypes.ChainID
}

// ProofVerifier verifies one or more ProofType kinds, per spec §4.3: "A
// verifier declares supported_types()".
type ProofVerifier interface {
	SupportedTypes() []frosttypes.ProofType
	Verify(proof frosttypes.StateProof, ctx *VerifyContext) (bool, error)
}

func metadataChainID(p frosttypes.ProofData) (frosttypes.ChainID, bool) {
	if p.Metadata == nil {
		return "", false
	}
	v, ok := p.Metadata["chain_id"]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return frosttypes.ChainID(s), ok
}

func checkChainContext(proof frosttypes.ProofData, ctx *VerifyContext) error {
	if ctx == nil || ctx.ChainID == nil {
		return nil
	}
	if got, ok := metadataChainID(proof); ok && got != *ctx.ChainID {
		return invalidProof("Chain ID mismatch")
	}
	return nil
}

func checkBasics(proof frosttypes.ProofData, now time.Time) error {
	if len(proof.Data) == 0 || bytes.Count(proof.Data, []byte{0}) == len(proof.Data) {
		return invalidProof("Invalid proof data")
	}
	if proof.Expired(now) {
		return expiredProof()
	}
	return nil
}

// BasicVerifier accepts any well-formed, unexpired Basic proof without
// further structural checks, per spec §4.3's minimal ProofType::Basic.
type BasicVerifier struct {
	Now func() time.Time
}

func (v *BasicVerifier) SupportedTypes() []frosttypes.ProofType {
	return []frosttypes.ProofType{frosttypes.ProofTypeBasic}
}

func (v *BasicVerifier) Verify(sp frosttypes.StateProof, ctx *VerifyContext) (bool, error) {
	now := v.now()
	if err := checkChainContext(sp.Proof, ctx); err != nil {
		return false, err
	}
	if err := checkBasics(sp.Proof, now); err != nil {
		return false, err
	}
	return true, nil
}

func (v *BasicVerifier) now() time.Time {
	if v.Now != nil {
		return v.Now()
	}
	return time.Now()
}

// MerkleVerifier verifies ProofType::Merkle proofs by decoding the
// proof's Data as a JSON-encoded merkle.InclusionProof and checking it
// against the transition's post-state root, grounded on
// pkg/merkle.VerifyProof.
type MerkleVerifier struct {
	Now func() time.Time
}

func (v *MerkleVerifier) SupportedTypes() []frosttypes.ProofType {
	return []frosttypes.ProofType{frosttypes.ProofTypeMerkle}
}

func (v *MerkleVerifier) Verify(sp frosttypes.StateProof, ctx *VerifyContext) (bool, error) {
	now := v.now()
	if err := checkChainContext(sp.Proof, ctx); err != nil {
		return false, err
	}
	if err := checkBasics(sp.Proof, now); err != nil {
		return false, err
	}

	incl, err := merkle.ProofFromJSON(sp.Proof.Data)
	if err != nil {
		return false, invalidProof("Invalid proof data")
	}
	root := sp.Transition.PostState.RootHash
	ok, err := merkle.VerifyProofHex(incl.LeafHash, incl, hexRoot(root))
	if err != nil || !ok {
		return false, newProofError(CategoryVerification, SeverityError, "merkle inclusion proof failed")
	}
	return true, nil
}

func (v *MerkleVerifier) now() time.Time {
	if v.Now != nil {
		return v.Now()
	}
	return time.Now()
}

func hexRoot(root [32]byte) string {
	const hextable = "0123456789abcdef"
	out := make([]byte, 64)
	for i, b := range root {
		out[i*2] = hextable[b>>4]
		out[i*2+1] = hextable[b&0x0f]
	}
	return string(out)
}

// ZKVerifyingKey is the narrow contract a ZK proof-type verifier needs:
// check that a proof's public inputs (voting power, state commitments)
// satisfy the circuit this verifying key was derived from. Concrete
// keys are pluggable; the core never compiles or proves a circuit
// (spec §1 Non-goal).
type ZKVerifyingKey interface {
	VerifyPublicInputs(publicInputs, proofBytes []byte) (bool, error)
}

// ZKVerifier dispatches ProofType::ZK proofs to a registered
// ZKVerifyingKey, keyed by the proof's CustomKind or, if empty, a
// default key. Grounded on the teacher's pkg/crypto/bls_zkp circuit
// (Groth16-shaped public inputs), but the core only ever verifies: the
// proving/circuit-compilation half is out of scope.
type ZKVerifier struct {
	Keys    map[string]ZKVerifyingKey
	Default ZKVerifyingKey
	Now     func() time.Time
}

func (v *ZKVerifier) SupportedTypes() []frosttypes.ProofType {
	return []frosttypes.ProofType{frosttypes.ProofTypeZK}
}

func (v *ZKVerifier) Verify(sp frosttypes.StateProof, ctx *VerifyContext) (bool, error) {
	now := v.now()
	if err := checkChainContext(sp.Proof, ctx); err != nil {
		return false, err
	}
	if err := checkBasics(sp.Proof, now); err != nil {
		return false, err
	}

	key := v.Default
	if v.Keys != nil {
		if k, ok := v.Keys[sp.Proof.CustomKind]; ok {
			key = k
		}
	}
	if key == nil {
		return false, newProofError(CategoryVerification, SeverityError, "no verifying key registered for ZK proof")
	}

	publicInputs, err := json.Marshal(sp.Proof.Metadata)
	if err != nil {
		return false, invalidProof("Invalid proof data")
	}
	ok, err := key.VerifyPublicInputs(publicInputs, sp.Proof.Data)
	if err != nil {
		return false, newProofError(CategoryVerification, SeverityError, err.Error())
	}
	return ok, nil
}

func (v *ZKVerifier) now() time.Time {
	if v.Now != nil {
		return v.Now()
	}
	return time.Now()
}

// ValidityVerifier handles ProofType::Validity (fraud-proof-window-style
// validity proofs) via a pluggable predicate, since validity semantics
// are entirely chain-specific.
type ValidityVerifier struct {
	Check func(sp frosttypes.StateProof) (bool, error)
	Now   func() time.Time
}

func (v *ValidityVerifier) SupportedTypes() []frosttypes.ProofType {
	return []frosttypes.ProofType{frosttypes.ProofTypeValidity}
}

func (v *ValidityVerifier) Verify(sp frosttypes.StateProof, ctx *VerifyContext) (bool, error) {
	now := v.now()
	if err := checkChainContext(sp.Proof, ctx); err != nil {
		return false, err
	}
	if err := checkBasics(sp.Proof, now); err != nil {
		return false, err
	}
	if v.Check == nil {
		return true, nil
	}
	return v.Check(sp)
}

func (v *ValidityVerifier) now() time.Time {
	if v.Now != nil {
		return v.Now()
	}
	return time.Now()
}

// CustomVerifier dispatches host-defined proof kinds (ProofType::Custom)
// by CustomKind name, per spec §9's escape hatch.
type CustomVerifier struct {
	Kinds map[string]func(sp frosttypes.StateProof) (bool, error)
	Now   func() time.Time
}

func (v *CustomVerifier) SupportedTypes() []frosttypes.ProofType {
	return []frosttypes.ProofType{frosttypes.ProofTypeCustom}
}

func (v *CustomVerifier) Verify(sp frosttypes.StateProof, ctx *VerifyContext) (bool, error) {
	now := v.now()
	if err := checkChainContext(sp.Proof, ctx); err != nil {
		return false, err
	}
	if err := checkBasics(sp.Proof, now); err != nil {
		return false, err
	}
	fn, ok := v.Kinds[sp.Proof.CustomKind]
	if !ok {
		return false, newProofError(CategoryVerification, SeverityError, "unregistered custom proof kind: "+sp.Proof.CustomKind)
	}
	return fn(sp)
}

func (v *CustomVerifier) now() time.Time {
	if v.Now != nil {
		return v.Now()
	}
	return time.Now()
}
