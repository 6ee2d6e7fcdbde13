// Package lfu implements a bounded-sample approximate least-frequently-used
// eviction policy: it tracks a fixed-size candidate buffer ordered by access
// count and evicts the buffer minimum. It is intentionally approximate, not
// a global LFU.
package lfu

import (
	"math/rand"

	"github.com/methodcache/methodcache/policy"
)

type lfu struct {
	sample *policy.Sample
}

type factory struct{ size int }

// New returns an LFU policy with the default sample size.
func New() policy.Policy { return factory{} }

// NewWithSampleSize overrides the candidate buffer size (<= 0 = default).
func NewWithSampleSize(size int) policy.Policy { return factory{size: size} }

func (f factory) New(store policy.Store) policy.Index {
	return &lfu{sample: policy.NewSample(store, f.size, func(n policy.Node) int64 {
		return int64(n.AccessCount())
	})}
}

// OnAdd offers fresh entries as candidates; they start with a zero count
// and are the likeliest victims until they prove themselves.
func (p *lfu) OnAdd(n policy.Node) { p.sample.Observe(n) }

// OnAccess is a no-op: access counts live on the entry itself and are
// re-read at victim-selection time.
func (p *lfu) OnAccess(policy.Node) {}

func (p *lfu) OnUpdate(policy.Node) {}

func (p *lfu) OnRemove(n policy.Node) { p.sample.Forget(n) }

func (p *lfu) Victim(rnd *rand.Rand) policy.Node { return p.sample.Victim(rnd) }
