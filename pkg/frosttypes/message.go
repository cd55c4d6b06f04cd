// Copyright 2025 Certen Protocol

package frosttypes

import "time"

// MessageType tags the kind of payload a FrostMessage carries, per spec
// §9's resolved Open Question: the tagged variant including Batch and
// Custom is authoritative over the source's other MessageType shape.
type MessageType string

const (
	MessageTypeChain   MessageType = "chain"   // carries a StateTransition/StateProof
	MessageTypeProof   MessageType = "proof"
	MessageTypeFinality MessageType = "finality" // carries a FinalitySignal
	MessageTypeBatch   MessageType = "batch"
	MessageTypeControl MessageType = "control"
	MessageTypeCustom  MessageType = "custom"
)

// MessagePriority orders messages competing for the same queue slot.
type MessagePriority int

const (
	PriorityLow MessagePriority = iota
	PriorityNormal
	PriorityHigh
	PriorityCritical
)

// MessageMetrics carries optional processing observability for a message.
type MessageMetrics struct {
	ProcessingDurationMs int64 `json:"processing_duration_ms"`
	ValidationAttempts   int   `json:"validation_attempts"`
}

// MessageMetadata carries the version/priority/retry bookkeeping spec §3
// attaches to every FrostMessage.
type MessageMetadata struct {
	Version    uint32          `json:"version"`
	Priority   MessagePriority `json:"priority"`
	RetryCount int             `json:"retry_count"`
	Metrics    *MessageMetrics `json:"metrics,omitempty"`
}

// FrostMessage is the unit of work flowing through the message pipeline,
// per spec §3. Invariants: Payload and Source are non-empty; for
// MessageTypeChain/MessageTypeProof both SourceChain and TargetChain must
// be set; for MessageTypeFinality, SourceChain and FinalitySignal must be
// set. Validity of these invariants is enforced by pkg/message, not by
// this type itself.
type FrostMessage struct {
	ID          string           `json:"id"`
	Type        MessageType      `json:"msg_type"`
	CustomType  string           `json:"custom_type,omitempty"`
	Timestamp   time.Time        `json:"timestamp"`
	Metadata    MessageMetadata  `json:"metadata"`
	Source      string           `json:"source"`
	Target      string           `json:"target,omitempty"`
	SourceChain ChainID          `json:"source_chain,omitempty"`
	TargetChain ChainID          `json:"target_chain,omitempty"`
	Payload     []byte           `json:"payload"`

	StateTransition *StateTransition `json:"state_transition,omitempty"`
	FinalitySignal  *FinalitySignal  `json:"finality_signal,omitempty"`
	BlockRef        *BlockRef        `json:"block_ref,omitempty"`
	ProofMetadata   *ProofData       `json:"proof_metadata,omitempty"`
}

// BatchMessage groups multiple FrostMessages submitted as one unit, per
// spec §3. When Ordered is true, processing stops at the first failure.
type BatchMessage struct {
	BatchID         string          `json:"batch_id"`
	Messages        []FrostMessage  `json:"messages"`
	Metadata        MessageMetadata `json:"metadata"`
	Ordered         bool            `json:"ordered"`
	MinSuccessRatio float32         `json:"min_success_ratio"`
}
