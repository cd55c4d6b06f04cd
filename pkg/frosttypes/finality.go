// Copyright 2025 Certen Protocol

package frosttypes

// EthereumFinalityType distinguishes PoW confirmation-depth finality from
// the two beacon-chain finality levels.
type EthereumFinalityType string

const (
	FinalityConfirmations    EthereumFinalityType = "confirmations"
	FinalityBeaconFinalized  EthereumFinalityType = "beacon_finalized"
	FinalityBeaconJustified  EthereumFinalityType = "beacon_justified"
)

// FinalitySignal is a sum type per chain family, per spec §3. Exactly one
// of the per-family structs below is populated, selected by Kind. Per the
// spec's resolved Open Question, this richer per-chain-metadata form is
// authoritative over a minimal signal.rs-style shape.
type FinalitySignal struct {
	Kind ChainFamily `json:"kind"`

	Ethereum  *EthereumSignal  `json:"ethereum,omitempty"`
	Cosmos    *CosmosSignal    `json:"cosmos,omitempty"`
	Substrate *SubstrateSignal `json:"substrate,omitempty"`
	Solana    *SolanaSignal    `json:"solana,omitempty"`
}

// EthereumSignal covers both PoW confirmation-depth and beacon-chain
// finality, discriminated by FinalityType.
type EthereumSignal struct {
	BlockNumber   uint64               `json:"block_number"`
	BlockHash     [32]byte             `json:"block_hash"`
	Confirmations uint64               `json:"confirmations"`
	FinalityType  EthereumFinalityType `json:"finality_type"`
	Metadata      *EthereumBeaconMetadata `json:"metadata,omitempty"`
}

// EthereumBeaconMetadata carries the numerical quantities §4.2 needs to
// evaluate beacon-chain finality predicates.
type EthereumBeaconMetadata struct {
	CurrentSlot            uint64 `json:"current_slot"`
	HeadSlot               uint64 `json:"head_slot"`
	ActiveValidators       uint64 `json:"active_validators"`
	TotalValidators        uint64 `json:"total_validators"`
	ParticipationRate      float64 `json:"participation_rate"`
	FinalizedEpoch         uint64 `json:"finalized_epoch"`
	JustifiedEpoch         uint64 `json:"justified_epoch"`
}

// CosmosSignal carries Tendermint/CometBFT validator signatures over a
// block, used to evaluate the 2/3-voting-power predicate.
type CosmosSignal struct {
	Height             uint64   `json:"height"`
	BlockHash          [32]byte `json:"block_hash"`
	ValidatorSignatures [][]byte `json:"validator_signatures"`
	Metadata           *CosmosMetadata `json:"metadata,omitempty"`
}

// CosmosMetadata carries the voting-power quantities §4.2 needs.
type CosmosMetadata struct {
	ValidatorAddresses [][]byte `json:"validator_addresses"` // parallel to ValidatorSignatures
	VotingPower        uint64   `json:"voting_power"`
	TotalPower         uint64   `json:"total_power"`
	MinValidatorPower  uint64   `json:"min_validator_power"`

	// ValidatorPublicKeys, when set, carries one BLS12-381 public key per
	// entry in CosmosSignal.ValidatorSignatures, letting the verifier
	// check the aggregate signature over BlockHash instead of trusting
	// VotingPower alone.
	ValidatorPublicKeys [][]byte `json:"validator_public_keys,omitempty"`
}

// SubstrateSignal carries the block identity plus an optional Metadata
// record holding the GRANDPA voting-power and parachain relay fields;
// ChainRules.ChainParams supplies only the is_parachain flag.
type SubstrateSignal struct {
	BlockNumber uint64   `json:"block_number"`
	BlockHash   [32]byte `json:"block_hash"`
	Metadata    *SubstrateMetadata `json:"metadata,omitempty"`
}

// SubstrateMetadata carries the GRANDPA voting-power quantities.
type SubstrateMetadata struct {
	VotingPower      uint64   `json:"voting_power"`
	TotalPower       uint64   `json:"total_power"`
	JustificationValid bool   `json:"justification_valid"`
	RelayParent      [32]byte `json:"relay_parent"`
	RelayHeadNumber  uint64   `json:"relay_head_number"`
	ValidatorSetRoot [32]byte `json:"validator_set_root"`
	StorageRootMatches bool   `json:"storage_root_matches"`
}

// SolanaSignal carries vote-account signatures over a bank hash.
type SolanaSignal struct {
	Slot                  uint64   `json:"slot"`
	Epoch                 uint64   `json:"epoch"`
	BankHash              [32]byte `json:"bank_hash"`
	VoteAccountSignatures [][]byte `json:"vote_account_signatures"`
	Metadata              *SolanaMetadata `json:"metadata,omitempty"`
}

// SolanaMetadata carries the stake quantities §4.2 needs.
type SolanaMetadata struct {
	VoteAccountStake   uint64 `json:"vote_account_stake"`
	TotalActiveStake   uint64 `json:"total_active_stake"`
	SupermajorityRootSlot uint64 `json:"supermajority_root_slot"`
}
