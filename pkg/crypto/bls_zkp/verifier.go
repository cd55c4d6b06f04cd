// Copyright 2025 Certen Protocol
//
// Verify-only Groth16 checker for the BLS aggregate-signature threshold
// circuit in circuit.go. Loads a verification key produced by a
// separate (out-of-core) trusted setup and checks proofs submitted
// through stateproof.ZKVerifier; it never runs setup or proving.

package bls_zkp

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	groth16_bn254 "github.com/consensys/gnark/backend/groth16/bn254"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"
)

// groth16ProofSize is the byte length of an encoded proof: ProofA (2
// field elements), ProofB (4), ProofC (2), each padded to 32 bytes.
const groth16ProofSize = 8 * 32

// PublicInputs is the JSON shape stateproof.ZKVerifier marshals from
// ProofData.Metadata and passes as this verifier's publicInputs
// argument.
type PublicInputs struct {
	MessageHash       [32]byte `json:"message_hash"`
	PubkeyCommitment  [32]byte `json:"pubkey_commitment"`
	SignedVotingPower uint64   `json:"signed_voting_power"`
	TotalVotingPower  uint64   `json:"total_voting_power"`
}

// Groth16Verifier checks SimpleBLSCircuit proofs against a loaded
// verification key. Implements stateproof.ZKVerifyingKey's
// VerifyPublicInputs(publicInputs, proofBytes []byte) (bool, error)
// contract by duck typing — stateproof never imports this package.
type Groth16Verifier struct {
	vk groth16.VerifyingKey
}

// LoadGroth16Verifier reads a verification key previously exported by
// the host's proving pipeline (out of core scope).
func LoadGroth16Verifier(r io.Reader) (*Groth16Verifier, error) {
	vk := groth16.NewVerifyingKey(ecc.BN254)
	if _, err := vk.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("read verification key: %w", err)
	}
	return &Groth16Verifier{vk: vk}, nil
}

// VerifyPublicInputs checks proofBytes against the circuit's public
// inputs encoded as JSON in publicInputs, per stateproof.ZKVerifier's
// dispatch for ProofType::ZK.
func (v *Groth16Verifier) VerifyPublicInputs(publicInputs, proofBytes []byte) (bool, error) {
	var pub PublicInputs
	if err := json.Unmarshal(publicInputs, &pub); err != nil {
		return false, fmt.Errorf("decode public inputs: %w", err)
	}
	if len(proofBytes) != groth16ProofSize {
		return false, errors.New("proof has wrong encoded length")
	}

	assignment := &SimpleBLSCircuit{
		MessageHash:       new(big.Int).SetBytes(pub.MessageHash[:]),
		PubkeyCommitment:  new(big.Int).SetBytes(pub.PubkeyCommitment[:]),
		SignedVotingPower: pub.SignedVotingPower,
		TotalVotingPower:  pub.TotalVotingPower,
	}
	publicWitness, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return false, fmt.Errorf("build public witness: %w", err)
	}

	proof, err := decodeProof(proofBytes)
	if err != nil {
		return false, fmt.Errorf("decode proof: %w", err)
	}

	if err := groth16.Verify(proof, v.vk, publicWitness); err != nil {
		return false, nil
	}
	return true, nil
}

// decodeProof parses the 8x32-byte A/B/C point encoding written by the
// host's prover into a gnark BN254 Groth16 proof.
func decodeProof(b []byte) (groth16.Proof, error) {
	chunk := func(i int) *big.Int { return new(big.Int).SetBytes(b[i*32 : (i+1)*32]) }

	proof := &groth16_bn254.Proof{}
	proof.Ar.X.SetBigInt(chunk(0))
	proof.Ar.Y.SetBigInt(chunk(1))
	proof.Bs.X.A0.SetBigInt(chunk(2))
	proof.Bs.X.A1.SetBigInt(chunk(3))
	proof.Bs.Y.A0.SetBigInt(chunk(4))
	proof.Bs.Y.A1.SetBigInt(chunk(5))
	proof.Krs.X.SetBigInt(chunk(6))
	proof.Krs.Y.SetBigInt(chunk(7))
	return proof, nil
}
