package cache

import (
	"sync/atomic"
)

// entry is the per-key record of the local tier. The value, tags, expiry
// deadline, and estimated size are immutable after insertion: a re-Set
// replaces the whole entry. Only the access metadata mutates in place.
type entry struct {
	key   string
	value any
	tags  []string

	createdAt int64 // UnixNano
	expiresAt int64 // UnixNano, 0 = no TTL
	size      int64 // estimated bytes, 0 when estimation is disabled

	lastAccess  atomic.Int64
	accessCount atomic.Uint64

	// dead flips once when the entry leaves the store; the flag arbitrates
	// between concurrent removal paths (explicit, expiry, eviction, replace).
	dead atomic.Bool

	// order is owned exclusively by the eviction index.
	order any
}

// live reports whether the entry is still resident.
func (e *entry) live() bool { return !e.dead.Load() }

// ---- policy.Node ----

func (e *entry) Key() string         { return e.key }
func (e *entry) AccessCount() uint64 { return e.accessCount.Load() }
func (e *entry) ExpiresAt() int64    { return e.expiresAt }
func (e *entry) LastAccessed() int64 { return e.lastAccess.Load() }
func (e *entry) Live() bool          { return e.live() }
func (e *entry) OrderRef() any       { return e.order }
func (e *entry) SetOrderRef(o any)   { e.order = o }
