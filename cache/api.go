package cache

import "time"

// Cache is the local (L1) tier: an in-process concurrent store with
// TTLs, tag-scoped invalidation, and pluggable eviction.
// All methods are safe for concurrent use by multiple goroutines.
//
// The hit/miss path is a single concurrent-map access; ordering and
// sampling structures are locked only for the duration of their mutation.
type Cache interface {
	// Get returns the value for key and a presence flag. An entry past
	// its deadline counts as a miss and is purged together with its tag
	// memberships. On hit the access metadata is updated and the entry
	// is promoted according to the active policy.
	Get(key string) (any, bool)

	// Set inserts or replaces the entry for key. A replacement swaps the
	// whole record: value, deadline, tags, and estimated size. ttl <= 0
	// stores the entry without a deadline. Inserting under capacity or
	// memory pressure evicts at least one victim.
	Set(key string, value any, ttl time.Duration, tags ...string)

	// Remove deletes key if present and returns true on success.
	Remove(key string) bool

	// RemoveByTag removes every entry currently tagged with tag and
	// returns how many were removed. The bucket is snapshotted first and
	// keys are removed one by one, so concurrent writers may observe
	// partial progress; removed keys never resurrect.
	RemoveByTag(tag string) int

	// Exists reports whether key is resident and unexpired, without
	// touching access metadata or hit/miss counters.
	Exists(key string) bool

	// Clear drops every entry. Coarse; intended for tag-invalidation
	// fallback and tests.
	Clear()

	// Len returns the number of resident entries.
	Len() int

	// Stats returns a snapshot of the tier counters.
	Stats() Stats

	// Health reports tier status.
	Health() Health

	// Close stops the background sweeper and marks the tier closed.
	// Subsequent operations are no-ops.
	Close() error
}
