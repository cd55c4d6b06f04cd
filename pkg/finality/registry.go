// Copyright 2025 Certen Protocol

package finality

import (
	"fmt"
	"sync"

	"github.com/frost-protocol/frost/pkg/frosttypes"
)

// Registry maps a ChainID to its FinalityVerifier. Grounded on
// pkg/strategy/registry.go's RWMutex-guarded map pattern, deliberately
// WITHOUT that file's package-level GetGlobalRegistry() singleton: every
// Registry here is constructed explicitly by the host, per spec §9 "no
// hidden globals in the core".
type Registry struct {
	mu sync.RWMutex
	m  map[frosttypes.ChainID]FinalityVerifier
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{m: make(map[frosttypes.ChainID]FinalityVerifier)}
}

// Register binds chain to verifier, replacing any existing binding.
func (r *Registry) Register(chain frosttypes.ChainID, verifier FinalityVerifier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[chain] = verifier
}

// Get returns the verifier bound to chain, if any.
func (r *Registry) Get(chain frosttypes.ChainID) (FinalityVerifier, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.m[chain]
	return v, ok
}

// MustGet returns the verifier bound to chain or an error.
func (r *Registry) MustGet(chain frosttypes.ChainID) (FinalityVerifier, error) {
	v, ok := r.Get(chain)
	if !ok {
		return nil, fmt.Errorf("finality: no verifier registered for chain %q", chain)
	}
	return v, nil
}

// Chains lists every chain currently registered.
func (r *Registry) Chains() []frosttypes.ChainID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	chains := make([]frosttypes.ChainID, 0, len(r.m))
	for c := range r.m {
		chains = append(chains, c)
	}
	return chains
}
