package hybrid

import "time"

// Policy is the per-call cache policy record supplied by the caller or a
// policy resolver. The coordinator never parses configuration itself.
type Policy struct {
	// TTL is the entry lifetime; <= 0 stores without expiry.
	TTL time.Duration

	// Tags attach the entry to invalidation groups in both tiers.
	Tags []string

	// RequireIdempotent demands that the value factory be idempotent.
	// Callers registered as non-idempotent are rejected before execution
	// with a configuration error.
	RequireIdempotent bool

	// Version is folded into key derivation so bumping it invalidates
	// previously cached results.
	Version int
}
