// Package random implements uniform random eviction. Small stores shuffle
// the full resident set; large stores fall back to reservoir sampling to
// avoid copying every key on each eviction.
package random

import (
	"math/rand"

	"github.com/methodcache/methodcache/policy"
)

// shuffleThreshold is the store size above which victim selection switches
// from a full shuffle to reservoir sampling.
const shuffleThreshold = 1024

type random struct {
	store policy.Store
}

type factory struct{}

// New returns the random eviction policy.
func New() policy.Policy { return factory{} }

func (factory) New(store policy.Store) policy.Index { return &random{store: store} }

func (p *random) OnAdd(policy.Node)    {}
func (p *random) OnAccess(policy.Node) {}
func (p *random) OnUpdate(policy.Node) {}
func (p *random) OnRemove(policy.Node) {}

func (p *random) Victim(rnd *rand.Rand) policy.Node {
	n := p.store.Len()
	if n == 0 {
		return nil
	}

	var candidates []policy.Node
	if n <= shuffleThreshold {
		candidates = p.store.Reservoir(n, rnd)
		rnd.Shuffle(len(candidates), func(i, j int) {
			candidates[i], candidates[j] = candidates[j], candidates[i]
		})
	} else {
		candidates = p.store.Reservoir(policy.DefaultSampleSize, rnd)
	}

	for _, c := range candidates {
		if c.Live() {
			return c
		}
	}
	return nil
}
