// Package policy defines the pluggable eviction contract used by the local
// tier. A policy owns the ordering/sampling structures used to pick victims;
// the store owns the key->entry map and performs the actual deletion.
package policy

import "math/rand"

// Node is the view of a cache entry a policy sees. The order reference is
// an opaque handle owned exclusively by the policy instance; the store
// never traverses it.
type Node interface {
	Key() string
	// AccessCount returns the number of hits the entry has served.
	AccessCount() uint64
	// ExpiresAt returns the absolute expiry deadline in UnixNano (0 = none).
	ExpiresAt() int64
	// LastAccessed returns the last hit time in UnixNano.
	LastAccessed() int64
	// Live reports whether the entry is still resident in the store.
	// Policies must skip dead nodes when selecting victims.
	Live() bool
	// OrderRef/SetOrderRef carry the policy-owned order handle.
	OrderRef() any
	SetOrderRef(any)
}

// Store gives sampling policies bounded access to resident entries.
type Store interface {
	// Len returns the number of resident entries.
	Len() int
	// Reservoir returns up to n live nodes chosen uniformly at random
	// (reservoir sampling; no full key copy).
	Reservoir(n int, rnd *rand.Rand) []Node
}

// Index is a per-store eviction index. Implementations synchronize
// internally: notification callbacks arrive from arbitrary goroutines and
// must hold the index's own lock only for the duration of the structural
// mutation, never across store or I/O calls.
//
// Victim selection is allowed to be approximate under concurrent load; it
// is never required to find the globally optimal candidate.
type Index interface {
	// OnAdd registers a newly inserted entry.
	OnAdd(Node)
	// OnAccess records a hit (e.g. promotes recency).
	OnAccess(Node)
	// OnUpdate records a full in-place replacement of the entry.
	OnUpdate(Node)
	// OnRemove forgets an entry that left the store.
	OnRemove(Node)
	// Victim proposes an eviction candidate, or nil when nothing is
	// evictable. rnd is the caller-provided randomness source; policies
	// must not keep global or thread-local random state.
	Victim(rnd *rand.Rand) Node
}

// Policy is a factory producing per-store Index instances bound to a Store.
type Policy interface {
	New(Store) Index
}
