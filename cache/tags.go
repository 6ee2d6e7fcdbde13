package cache

import (
	"sync"

	"github.com/methodcache/methodcache/internal/util"
)

// tagIndex maintains the inverse mapping tag -> set of keys. Buckets are
// spread across shards by tag hash so that unrelated tags do not contend
// on one lock. A key appears under tag T exactly while the live entry
// carries T; empty buckets are pruned.
type tagIndex struct {
	shards []*tagShard
}

type tagShard struct {
	mu sync.RWMutex
	m  map[string]map[string]struct{}
}

// newTagIndex builds an index with the given shard count, rounded up to a
// power of two.
func newTagIndex(shards int) *tagIndex {
	n := int(util.NextPow2(uint64(shards)))
	if n < 1 {
		n = 1
	}
	idx := &tagIndex{shards: make([]*tagShard, n)}
	for i := range idx.shards {
		idx.shards[i] = &tagShard{m: make(map[string]map[string]struct{})}
	}
	return idx
}

func (t *tagIndex) shard(tag string) *tagShard {
	return t.shards[util.ShardIndex(util.Fnv64a(tag), len(t.shards))]
}

// add records key under every tag.
func (t *tagIndex) add(key string, tags []string) {
	for _, tag := range tags {
		s := t.shard(tag)
		s.mu.Lock()
		b, ok := s.m[tag]
		if !ok {
			b = make(map[string]struct{})
			s.m[tag] = b
		}
		b[key] = struct{}{}
		s.mu.Unlock()
	}
}

// remove drops key from every tag bucket, pruning buckets that empty out.
func (t *tagIndex) remove(key string, tags []string) {
	for _, tag := range tags {
		s := t.shard(tag)
		s.mu.Lock()
		if b, ok := s.m[tag]; ok {
			delete(b, key)
			if len(b) == 0 {
				delete(s.m, tag)
			}
		}
		s.mu.Unlock()
	}
}

// snapshot returns the keys currently under tag. The copy allows callers
// to remove keys one by one without holding the bucket lock.
func (t *tagIndex) snapshot(tag string) []string {
	s := t.shard(tag)
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.m[tag]
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	return keys
}

// has reports whether a bucket for tag exists.
func (t *tagIndex) has(tag string) bool {
	s := t.shard(tag)
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.m[tag]
	return ok
}
