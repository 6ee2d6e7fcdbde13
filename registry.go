package methodcache

import (
	"sync"

	"github.com/methodcache/methodcache/hybrid"
)

// Registry is the explicit registration table mapping method identifiers
// to cache policies. It replaces attribute- or codegen-driven per-method
// configuration: build the table once at process startup, then call sites
// invoke the engine directly.
type Registry struct {
	mu sync.RWMutex
	m  map[string]registration
}

type registration struct {
	pol           hybrid.Policy
	nonIdempotent bool
}

// RegisterOption customizes a method registration.
type RegisterOption func(*registration)

// NonIdempotent marks the method's factory as known non-idempotent.
// Combined with Policy.RequireIdempotent the call is rejected before
// execution.
func NonIdempotent() RegisterOption {
	return func(r *registration) { r.nonIdempotent = true }
}

// NewRegistry returns an empty registration table.
func NewRegistry() *Registry {
	return &Registry{m: make(map[string]registration)}
}

// Register records the policy for methodID, replacing any prior entry.
func (r *Registry) Register(methodID string, pol hybrid.Policy, opts ...RegisterOption) {
	reg := registration{pol: pol}
	for _, opt := range opts {
		opt(&reg)
	}
	r.mu.Lock()
	r.m[methodID] = reg
	r.mu.Unlock()
}

// Resolve returns the registered policy for methodID.
func (r *Registry) Resolve(methodID string) (hybrid.Policy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.m[methodID]
	return reg.pol, ok
}

// IsNonIdempotent reports whether methodID was registered with
// NonIdempotent().
func (r *Registry) IsNonIdempotent(methodID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.m[methodID].nonIdempotent
}
