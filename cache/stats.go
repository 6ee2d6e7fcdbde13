package cache

// Stats is a point-in-time snapshot of tier counters. Hits, Misses, and
// Evictions accumulate monotonically; Entries and MemoryUsage are gauges.
type Stats struct {
	Hits        uint64
	Misses      uint64
	Evictions   uint64
	Entries     int
	MemoryUsage int64
}

// HitRatio derives hits/(hits+misses) from the counters. It is computed on
// read and never stored.
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Health reports whether the tier is operational.
type Health struct {
	Healthy     bool
	Entries     int
	MemoryUsage int64
	// SweeperRunning reports whether the background expiry sweep is active.
	SweeperRunning bool
}
