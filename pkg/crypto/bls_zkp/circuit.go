// Copyright 2025 Certen Protocol
//
// Groth16 circuit shape for proving/verifying a BLS aggregate-signature
// threshold claim without revealing the signature or public key.
//
// FROST's core only ever verifies a proof against this shape (spec §1
// Non-goal: "does not itself produce zero-knowledge proofs"); the
// matching proving-side setup and witness generation are a host/tooling
// concern outside the core and are not reproduced here.

package bls_zkp

import (
	"github.com/consensys/gnark/frontend"
)

// SimpleBLSCircuit is a commitment-based stand-in for a full BLS
// pairing circuit: it proves knowledge of a signature and public key
// whose commitments match the public inputs, and that the signed
// voting power clears the reported 2/3 threshold, per
// ProofType::ZK's dispatch in spec §4.3.
//
// The four public inputs mirror stateproof.ZKVerifier's JSON-encoded
// ProofData.Metadata: MessageHash, PubkeyCommitment, SignedVotingPower,
// TotalVotingPower.
type SimpleBLSCircuit struct {
	MessageHash       frontend.Variable `gnark:",public"`
	PubkeyCommitment  frontend.Variable `gnark:",public"`
	SignedVotingPower frontend.Variable `gnark:",public"`
	TotalVotingPower  frontend.Variable `gnark:",public"`

	SignatureX          frontend.Variable
	SignatureY          frontend.Variable
	SignatureCommitment frontend.Variable
	PubkeyX             frontend.Variable
	PubkeyY             frontend.Variable
}

// Define implements the circuit constraints.
func (c *SimpleBLSCircuit) Define(api frontend.API) error {
	computedPkCommitment := api.Add(c.PubkeyX, api.Mul(c.PubkeyY, 7))
	api.AssertIsEqual(c.PubkeyCommitment, computedPkCommitment)

	computedSigCommitment := api.Add(c.SignatureX, api.Mul(c.SignatureY, 7))
	api.AssertIsEqual(c.SignatureCommitment, computedSigCommitment)

	lhs := api.Mul(c.SignedVotingPower, 3)
	rhs := api.Mul(c.TotalVotingPower, 2)
	diff := api.Sub(lhs, rhs)
	api.AssertIsLessOrEqual(0, diff)

	api.AssertIsDifferent(c.SignatureX, 0)
	api.AssertIsDifferent(c.PubkeyX, 0)

	return nil
}
