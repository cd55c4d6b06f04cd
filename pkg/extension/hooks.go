// Copyright 2025 Certen Protocol

// Package extension implements FROST's extension hook surface (C7): a
// fixed, ordered set of host-facing callback points consumed by C2
// (finality) and C4 (message pipeline), plus a dependency-ordered
// registration manager. Grounded on
// original_source/src/extensions/{hooks,manager,traits}.rs and the
// teacher's pkg/strategy/registry.go registration pattern.
package extension

import (
	"github.com/frost-protocol/frost/pkg/frosttypes"
)

// NetworkEventKind enumerates the network events extensions may observe,
// per spec §4.7.
type NetworkEventKind string

const (
	EventConnected        NetworkEventKind = "connected"
	EventDisconnected     NetworkEventKind = "disconnected"
	EventMessageReceived  NetworkEventKind = "message_received"
	EventMessageSent      NetworkEventKind = "message_sent"
	EventError            NetworkEventKind = "error"
)

// NetworkEvent is the payload handed to HandleNetworkEvent.
type NetworkEvent struct {
	Kind NetworkEventKind
	Err  error
}

// Hooks is the fixed, ordered set of extension callback points named by
// spec §4.7: pre_validate, validate_proof, validate_state,
// post_validate, verify_state_proof, verify_finality,
// handle_network_event. Each may fail the surrounding operation; a
// message hook may mutate msg in place (spec: "a hook may ... receive
// immutable context or a mutable message").
type Hooks interface {
	PreValidate(msg *frosttypes.FrostMessage) error
	ValidateProof(msg *frosttypes.FrostMessage) error
	ValidateState(msg *frosttypes.FrostMessage) error
	PostValidate(msg *frosttypes.FrostMessage) error
	VerifyStateProof(sp *frosttypes.StateProof) error
	VerifyFinality(block frosttypes.BlockRef, signal frosttypes.FinalitySignal) error
	HandleNetworkEvent(peer frosttypes.Peer, event NetworkEvent) error
}

// NoopHooks implements Hooks with no-op bodies; it is the zero-value
// default a host may embed and selectively override.
type NoopHooks struct{}

func (NoopHooks) PreValidate(*frosttypes.FrostMessage) error                           { return nil }
func (NoopHooks) ValidateProof(*frosttypes.FrostMessage) error                         { return nil }
func (NoopHooks) ValidateState(*frosttypes.FrostMessage) error                         { return nil }
func (NoopHooks) PostValidate(*frosttypes.FrostMessage) error                          { return nil }
func (NoopHooks) VerifyStateProof(*frosttypes.StateProof) error                        { return nil }
func (NoopHooks) VerifyFinality(frosttypes.BlockRef, frosttypes.FinalitySignal) error  { return nil }
func (NoopHooks) HandleNetworkEvent(frosttypes.Peer, NetworkEvent) error               { return nil }

// Extension is a host-registered callback bundle with a declared
// dependency set, per spec §4.7: "Dependency ordering among extensions
// is a DAG checked on registration".
type Extension interface {
	ID() string
	Dependencies() []string
	Hooks() Hooks
}
