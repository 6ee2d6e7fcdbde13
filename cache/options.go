package cache

import (
	"time"

	"go.uber.org/zap"

	"github.com/methodcache/methodcache/policy"
)

// Clock provides time in UnixNano; useful for deterministic tests.
type Clock interface{ NowUnixNano() int64 }

// Options configures the local tier. Zero values are safe; defaults are
// applied in New():
//   - nil Policy        => LRU
//   - nil Metrics       => NoopMetrics
//   - nil Logger        => zap.NewNop()
//   - SweepInterval 0   => 1 minute (negative disables the sweeper)
//   - SweepBatch <= 0   => 256
//   - TagShards <= 0    => 16
type Options struct {
	// MaxEntries is the entry count limit. Must be > 0.
	MaxEntries int

	// MaxMemory limits total estimated bytes; 0 disables memory-based
	// eviction. Only meaningful when Memory is not MemoryDisabled.
	MaxMemory int64

	// Memory selects the per-entry size estimation mode.
	Memory MemoryMode

	// Policy is the pluggable eviction policy; nil => LRU.
	Policy policy.Policy

	// SweepInterval is the period of the background expiry sweep.
	// 0 selects the default; a negative value disables sweeping and
	// leaves expiry purely lazy.
	SweepInterval time.Duration

	// SweepBatch bounds how many expired entries one sweep pass removes
	// before releasing control.
	SweepBatch int

	// TagShards is the number of tag-index shards (rounded to a power
	// of two). More shards reduce cross-tag lock contention.
	TagShards int

	// Seed seeds the eviction sampler's randomness source.
	// 0 derives a seed from the current time.
	Seed int64

	// OnEvict is called for every capacity/TTL eviction. Keep it light:
	// it runs on the evicting goroutine.
	OnEvict func(key string, value any, reason EvictReason)

	// Observability.
	Metrics Metrics
	Logger  *zap.Logger

	// Clock overrides the time source (tests). Nil => time.Now().
	Clock Clock
}
