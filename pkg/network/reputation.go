// Copyright 2025 Certen Protocol

package network

import (
	"math"
	"sync"
	"time"
)

// ReputationTracker decays a peer's reputation score over time when it
// is not reinforced by fresh observations, supplementing the pool's
// instantaneous Reputation formula with the decay behavior of
// original_source/src/network/reputation.rs (dropped from spec.md's
// distillation; folded in here per SPEC_FULL.md's supplemented
// features).
type ReputationTracker struct {
	halfLife time.Duration

	mu    sync.Mutex
	state map[string]reputationState
}

type reputationState struct {
	score      float64
	lastUpdate time.Time
}

// NewReputationTracker constructs a tracker whose scores decay toward
// the neutral midpoint (0.5) with the given half-life when not
// refreshed by Observe.
func NewReputationTracker(halfLife time.Duration) *ReputationTracker {
	return &ReputationTracker{halfLife: halfLife, state: make(map[string]reputationState)}
}

// Observe records a fresh instantaneous reputation sample for peerID,
// blending it with the decayed prior score.
func (t *ReputationTracker) Observe(peerID string, sample float64) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	prior := t.decayedLocked(peerID, now)
	blended := 0.5*prior + 0.5*sample
	t.state[peerID] = reputationState{score: blended, lastUpdate: now}
	return blended
}

// Score returns peerID's current decayed reputation, defaulting to the
// neutral midpoint for an unobserved peer.
func (t *ReputationTracker) Score(peerID string) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.decayedLocked(peerID, time.Now())
}

// decayedLocked applies exponential decay toward 0.5 since the peer's
// last observation. Caller must hold t.mu.
func (t *ReputationTracker) decayedLocked(peerID string, now time.Time) float64 {
	s, ok := t.state[peerID]
	if !ok {
		return 0.5
	}
	if t.halfLife <= 0 {
		return s.score
	}
	elapsed := now.Sub(s.lastUpdate)
	halfLives := elapsed.Seconds() / t.halfLife.Seconds()
	decay := math.Pow(2, -halfLives)
	return 0.5 + (s.score-0.5)*decay
}
