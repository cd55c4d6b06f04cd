// Copyright 2025 Certen Protocol

package network

import (
	"sync"
	"time"

	"github.com/frost-protocol/frost/pkg/frosttypes"
)

// ActionType names an operation subject to authorization, per spec
// §4.5: "actions are authorized by (action_type, resource, peer)".
type ActionType string

const (
	ActionSend    ActionType = "send"
	ActionReceive ActionType = "receive"
	ActionRoute   ActionType = "route"
	ActionAdmin   ActionType = "admin"
)

// Session is a per-peer authentication session bounded by a key
// rotation interval, per spec §4.5: "Sessions are issued per peer,
// bounded by key_rotation_interval". The core never handles raw keys —
// SigningKeyID is an opaque handle the host's key-management collaborator
// resolves.
type Session struct {
	PeerID       string
	SigningKeyID string
	IssuedAt     time.Time
	ExpiresAt    time.Time
}

// Expired reports whether the session has passed its rotation deadline.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// SignatureVerifier verifies a message signature against a peer's
// current session signing key, per spec §4.5: "message signatures are
// verified against the peer's session signing key". A concrete
// implementation is a host collaborator (e.g. backed by an HSM or the
// chain's native signature scheme); the core only calls the interface.
type SignatureVerifier interface {
	VerifySignature(session Session, payload, signature []byte) (bool, error)
}

// Authorizer decides whether peer may perform action on resource, per
// spec §4.5's (action_type, resource, peer) authorization contract.
type Authorizer interface {
	Authorize(peer frosttypes.Peer, action ActionType, resource string) error
}

// SessionManager issues and rotates per-peer Sessions. It is a narrow,
// in-memory bookkeeping layer over the host-supplied SigningKeyID
// values — the core never generates or stores key material itself.
type SessionManager struct {
	rotation time.Duration

	mu       sync.Mutex
	sessions map[string]Session
}

// NewSessionManager constructs a manager rotating sessions every
// rotation interval.
func NewSessionManager(rotation time.Duration) *SessionManager {
	return &SessionManager{rotation: rotation, sessions: make(map[string]Session)}
}

// IssueOrRotate returns peerID's current session, minting a new one
// (with a fresh SigningKeyID supplied by the caller) if none exists or
// the existing one has expired.
func (m *SessionManager) IssueOrRotate(peerID, signingKeyID string, now time.Time) Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[peerID]; ok && !s.Expired(now) {
		return s
	}
	s := Session{
		PeerID:       peerID,
		SigningKeyID: signingKeyID,
		IssuedAt:     now,
		ExpiresAt:    now.Add(m.rotation),
	}
	m.sessions[peerID] = s
	return s
}

// Session returns peerID's current session, if any.
func (m *SessionManager) Session(peerID string) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[peerID]
	return s, ok
}

// Revoke removes peerID's session immediately, e.g. on ban.
func (m *SessionManager) Revoke(peerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, peerID)
}
