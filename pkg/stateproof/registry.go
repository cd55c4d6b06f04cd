// Copyright 2025 Certen Protocol

package stateproof

import (
	"sync"

	"github.com/frost-protocol/frost/pkg/frosttypes"
)

// Registry dispatches StateProof verification to the ProofVerifier
// registered for its ProofType, optionally consulting a ProofCache
// keyed by content fingerprint, per spec §4.3. Grounded on
// pkg/strategy/registry.go's RWMutex-guarded map, constructed explicitly
// by the host per spec §9's "no hidden globals" (DESIGN.md decision #3).
type Registry struct {
	mu        sync.RWMutex
	verifiers map[frosttypes.ProofType]ProofVerifier
	cache     *ProofCache
}

// NewRegistry constructs an empty registry. cache may be nil to disable
// caching.
func NewRegistry(cache *ProofCache) *Registry {
	return &Registry{
		verifiers: make(map[frosttypes.ProofType]ProofVerifier),
		cache:     cache,
	}
}

// Register binds v for every ProofType it declares support for.
func (r *Registry) Register(v ProofVerifier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range v.SupportedTypes() {
		r.verifiers[t] = v
	}
}

// Verify dispatches sp.Proof.Type to its registered verifier, consulting
// the cache first when present. A cache hit short-circuits verification
// entirely (spec §4.3: "proof cache ... cacheable verification").
func (r *Registry) Verify(sp frosttypes.StateProof, ctx *VerifyContext) (bool, error) {
	var fp frosttypes.Fingerprint
	var haveFP bool
	if r.cache != nil {
		var err error
		fp, err = Fingerprint(sp)
		if err == nil {
			haveFP = true
			if cached, ok := r.cache.Get(fp); ok {
				if !cached.Valid {
					return false, nil
				}
				return true, nil
			}
		}
	}

	r.mu.RLock()
	v, ok := r.verifiers[sp.Proof.Type]
	r.mu.RUnlock()
	if !ok {
		return false, newProofError(CategoryVerification, SeverityError, "no verifier registered for proof type "+string(sp.Proof.Type))
	}

	valid, err := v.Verify(sp, ctx)
	if err != nil {
		return false, err
	}

	if r.cache != nil && haveFP {
		_ = r.cache.Put(fp, VerificationResult{Valid: valid})
	}
	return valid, nil
}

// Has reports whether a verifier is registered for t.
func (r *Registry) Has(t frosttypes.ProofType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.verifiers[t]
	return ok
}
