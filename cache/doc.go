// Package cache implements the local (L1) tier of the method-result cache:
// a concurrent in-process store with per-entry TTL, tag-scoped bulk
// invalidation, pluggable eviction policies, and a background expiry sweep.
//
// Design
//
//   - Concurrency: the primary key->entry map is a sync.Map, so the
//     hit/miss path takes no lock. The eviction index (recency list or
//     sample buffer, depending on the policy) has its own mutex held only
//     during structural mutation. The tag index is sharded by tag hash
//     with per-shard locks, so unrelated tags do not contend.
//
//   - Entries: a record is immutable after insertion except for its access
//     metadata; Set replaces the whole record including tags and deadline.
//     The order handle inside an entry belongs to the eviction index and
//     is never traversed by the store.
//
//   - Eviction: policies propose victims; the store deletes them. LRU is
//     exact and O(1). LFU and TTL use a bounded sample (default 100) with
//     insertion-sort replacement and evict the sample minimum — an
//     intentional approximation that trades victim accuracy for O(sample)
//     cost. Random shuffles small stores and reservoir-samples large ones.
//     Randomness is an explicit *rand.Rand passed into the victim routine.
//
//   - TTL: deadlines are absolute UnixNano values fixed at write time.
//     Expiry is discovered lazily on access and by a ticker-driven sweeper
//     that removes expired entries in bounded batches and stops
//     deterministically on Close.
//
//   - Memory: per-entry size is estimated in one of three modes — disabled
//     (always zero), fast (per-shape heuristic), accurate (bounded
//     reflection walk with fixed per-field overhead). The estimate joins
//     the running total before the eviction decision, so pressure checks
//     see the post-insert state.
//
//   - Metrics: Options.Metrics receives Hit/Miss/Evict/Size signals;
//     NoopMetrics is the default, and metrics/prom provides a Prometheus
//     adapter.
//
// Basic usage
//
//	c := cache.New(cache.Options{MaxEntries: 10_000})
//	defer c.Close()
//
//	c.Set("user:42", profile, 5*time.Minute, "users", "region:eu")
//	if v, ok := c.Get("user:42"); ok {
//	    _ = v
//	}
//	c.RemoveByTag("users") // drops every entry tagged "users"
//
// With an alternative eviction policy
//
//	c := cache.New(cache.Options{
//	    MaxEntries: 50_000,
//	    Policy:     lfu.New(), // bounded-sample approximate LFU
//	})
//
// See options.go for all knobs and package policy for the victim-selection
// contract used to implement custom strategies.
package cache
