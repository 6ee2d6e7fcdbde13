// Package remote defines the contract for the remote (L2) cache tier.
// The tier is an external collaborator: a shared, slower, larger key-value
// service. The engine composes over any compliant implementation and
// degrades to local-only operation when the tier is unavailable.
package remote

import (
	"context"
	"time"
)

// Tier is the async remote-cache contract. Values are opaque bytes; the
// coordinator owns encoding. Implementations must be safe for concurrent
// use and should honor ctx deadlines on every call.
type Tier interface {
	// Get returns (value, true, nil) on hit and (nil, false, nil) on miss.
	// Transport or server errors are returned, never swallowed here; the
	// coordinator decides how to degrade.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key with the given TTL and tag memberships.
	// ttl <= 0 stores without expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration, tags ...string) error

	// Remove deletes key (best-effort; removing an absent key is not an
	// error).
	Remove(ctx context.Context, key string) error

	// RemoveByTag deletes every key tagged with tag using the tier's
	// native tag bookkeeping.
	RemoveByTag(ctx context.Context, tag string) error

	// HealthCheck verifies the tier is reachable.
	HealthCheck(ctx context.Context) error

	// Close releases client resources.
	Close() error
}
