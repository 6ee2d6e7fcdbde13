package policy

import (
	"math/rand"
	"sync"
)

// DefaultSampleSize bounds the candidate buffers of sampling policies.
const DefaultSampleSize = 100

// Sample is a bounded buffer of eviction candidates kept in ascending score
// order with insertion-sort-style replacement: a new candidate is slotted
// into position and the worst (highest-score) candidate falls off when the
// buffer is full. Victim selection returns the buffer minimum, which makes
// the policy an O(sample) approximation rather than a global ordering —
// this trade of accuracy for bounded cost is deliberate.
type Sample struct {
	mu     sync.Mutex
	store  Store
	score  func(Node) int64
	size   int
	nodes  []Node
	member map[string]struct{}
}

// NewSample builds a candidate buffer over store with the given score
// function (lower score = better eviction candidate). size <= 0 selects
// DefaultSampleSize.
func NewSample(store Store, size int, score func(Node) int64) *Sample {
	if size <= 0 {
		size = DefaultSampleSize
	}
	return &Sample{
		store:  store,
		score:  score,
		size:   size,
		nodes:  make([]Node, 0, size),
		member: make(map[string]struct{}, size),
	}
}

// Observe offers n as an eviction candidate.
func (s *Sample) Observe(n Node) {
	s.mu.Lock()
	s.insertLocked(n)
	s.mu.Unlock()
}

// Forget drops n from the buffer if present.
func (s *Sample) Forget(n Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.member[n.Key()]; !ok {
		return
	}
	delete(s.member, n.Key())
	for i, c := range s.nodes {
		if c.Key() == n.Key() {
			s.nodes = append(s.nodes[:i], s.nodes[i+1:]...)
			break
		}
	}
}

// Victim returns the live minimum-score candidate, topping the buffer up
// from the store's reservoir when it runs low. Returns nil when the store
// holds nothing evictable.
func (s *Sample) Victim(rnd *rand.Rand) Node {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked()
	if len(s.nodes) < s.size/2 {
		for _, n := range s.store.Reservoir(s.size-len(s.nodes), rnd) {
			s.insertLocked(n)
		}
		s.pruneLocked()
	}
	if len(s.nodes) == 0 {
		return nil
	}
	v := s.nodes[0]
	s.nodes = s.nodes[1:]
	delete(s.member, v.Key())
	return v
}

// insertLocked slots n into score order, displacing the worst candidate
// when the buffer is full.
func (s *Sample) insertLocked(n Node) {
	if _, ok := s.member[n.Key()]; ok {
		return
	}
	sc := s.score(n)
	if len(s.nodes) == s.size {
		worst := s.nodes[len(s.nodes)-1]
		if sc >= s.score(worst) {
			return
		}
		s.nodes = s.nodes[:len(s.nodes)-1]
		delete(s.member, worst.Key())
	}
	i := len(s.nodes)
	for i > 0 && s.score(s.nodes[i-1]) > sc {
		i--
	}
	s.nodes = append(s.nodes, nil)
	copy(s.nodes[i+1:], s.nodes[i:])
	s.nodes[i] = n
	s.member[n.Key()] = struct{}{}
}

// pruneLocked drops dead nodes.
func (s *Sample) pruneLocked() {
	kept := s.nodes[:0]
	for _, n := range s.nodes {
		if n.Live() {
			kept = append(kept, n)
		} else {
			delete(s.member, n.Key())
		}
	}
	s.nodes = kept
}
