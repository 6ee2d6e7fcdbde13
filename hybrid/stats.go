package hybrid

import "github.com/methodcache/methodcache/cache"

// Stats aggregates per-tier and coordinator counters.
type Stats struct {
	// L1 is the local tier's own snapshot (zero when Strategy is L2Only).
	L1 cache.Stats

	// Remote-tier lookups observed at the coordinator boundary.
	L2Hits   uint64
	L2Misses uint64
	// L2Errors counts operations downgraded to "L2 unavailable".
	L2Errors uint64

	// FactoryCalls counts full misses that executed the value factory.
	FactoryCalls uint64
}

// CombinedHitRatio treats a hit in either tier as a hit and a factory
// execution as the only true miss. Recomputed on read.
func (s Stats) CombinedHitRatio() float64 {
	hits := s.L1.Hits + s.L2Hits
	total := hits + s.FactoryCalls
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// Stats returns a point-in-time snapshot.
func (c *Coordinator) Stats() Stats {
	st := Stats{
		L2Hits:       c.l2Hits.Load(),
		L2Misses:     c.l2Misses.Load(),
		L2Errors:     c.l2Errors.Load(),
		FactoryCalls: c.factoryCalls.Load(),
	}
	if c.opt.Local != nil {
		st.L1 = c.opt.Local.Stats()
	}
	return st
}
