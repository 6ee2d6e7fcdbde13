package cache

// EvictReason explains why an entry was removed.
type EvictReason int

const (
	// EvictCapacity — removed to satisfy the entry-count or memory limit.
	EvictCapacity EvictReason = iota
	// EvictTTL — expired (discovered lazily on access or by the sweeper).
	EvictTTL
)

// Metrics exposes tier-level observability hooks.
// A NoopMetrics implementation is provided and used by default.
type Metrics interface {
	Hit()
	Miss()
	Evict(reason EvictReason)
	Size(entries int, memory int64)
}

// NoopMetrics is a drop-in Metrics implementation that does nothing.
type NoopMetrics struct{}

func (NoopMetrics) Hit()                         {}
func (NoopMetrics) Miss()                        {}
func (NoopMetrics) Evict(EvictReason)            {}
func (NoopMetrics) Size(entries int, memory int64) {}

var _ Metrics = NoopMetrics{}
