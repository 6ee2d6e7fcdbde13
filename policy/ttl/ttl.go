// Package ttl implements a bounded-sample soonest-to-expire eviction policy:
// the candidate buffer is ordered by absolute expiry deadline and the entry
// closest to expiring is evicted first. Entries without a deadline score as
// infinitely far away and are only evicted when nothing better is sampled.
package ttl

import (
	"math"
	"math/rand"

	"github.com/methodcache/methodcache/policy"
)

type ttl struct {
	sample *policy.Sample
}

type factory struct{ size int }

// New returns a TTL policy with the default sample size.
func New() policy.Policy { return factory{} }

// NewWithSampleSize overrides the candidate buffer size (<= 0 = default).
func NewWithSampleSize(size int) policy.Policy { return factory{size: size} }

func (f factory) New(store policy.Store) policy.Index {
	return &ttl{sample: policy.NewSample(store, f.size, func(n policy.Node) int64 {
		if exp := n.ExpiresAt(); exp != 0 {
			return exp
		}
		return math.MaxInt64
	})}
}

func (p *ttl) OnAdd(n policy.Node) { p.sample.Observe(n) }

func (p *ttl) OnAccess(policy.Node) {}

// OnUpdate re-offers the entry: a replacement carries a new deadline.
func (p *ttl) OnUpdate(n policy.Node) {
	p.sample.Forget(n)
	p.sample.Observe(n)
}

func (p *ttl) OnRemove(n policy.Node) { p.sample.Forget(n) }

func (p *ttl) Victim(rnd *rand.Rand) policy.Node { return p.sample.Victim(rnd) }
