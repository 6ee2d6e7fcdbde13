package hybrid

import (
	"time"

	"go.uber.org/zap"

	"github.com/methodcache/methodcache/cache"
	"github.com/methodcache/methodcache/remote"
)

// Strategy selects how a freshly computed value is written to the tiers.
type Strategy int

const (
	// WriteThrough writes L1 and L2 synchronously.
	WriteThrough Strategy = iota
	// WriteBack writes L1 synchronously and L2 in the background
	// (or synchronously when SyncWriteBack is set). The caller observes
	// success as soon as L1 is updated; L1 and L2 may transiently
	// disagree.
	WriteBack
	// L1Only never touches the remote tier.
	L1Only
	// L2Only never touches the local tier; every request pays the remote
	// round trip.
	L2Only
)

func (s Strategy) String() string {
	switch s {
	case WriteThrough:
		return "write_through"
	case WriteBack:
		return "write_back"
	case L1Only:
		return "l1_only"
	case L2Only:
		return "l2_only"
	default:
		return "unknown"
	}
}

// Options configures the coordinator. Zero values are safe; defaults are
// applied in New():
//   - L2Timeout 0  => 2s
//   - L2Permits 0  => 16
//   - nil Logger   => zap.NewNop()
type Options struct {
	// Local is the L1 tier. Required unless Strategy is L2Only.
	Local cache.Cache

	// Remote is the L2 tier. Nil degrades every strategy to local-only
	// behavior.
	Remote remote.Tier

	// Strategy selects the write path after a factory execution.
	Strategy Strategy

	// DisableWarming turns off async L1 population after an L2 hit.
	DisableWarming bool

	// L1TTLCeiling caps the TTL used when warming L1 from an L2 hit.
	// 0 => 5 minutes.
	L1TTLCeiling time.Duration

	// L2Timeout bounds every individual remote operation.
	L2Timeout time.Duration

	// L2Permits is the size of the permit pool throttling outbound
	// remote concurrency.
	L2Permits int

	// SyncWriteBack makes WriteBack wait for the L2 write instead of
	// firing it in the background.
	SyncWriteBack bool

	// ClearL1OnTagInvalidate replaces per-tag L1 removal with a full L1
	// clear during InvalidateTags. Coarse but correct; for deployments
	// that cannot afford per-tag L1 bookkeeping.
	ClearL1OnTagInvalidate bool

	// DisableBreaker turns off the circuit breaker in front of L2. With
	// the breaker on, a failing remote tier is skipped entirely for a
	// cool-down window instead of paying the timeout on every call.
	DisableBreaker bool

	Logger *zap.Logger
}
