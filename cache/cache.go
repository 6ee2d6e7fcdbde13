package cache

import (
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/methodcache/methodcache/internal/util"
	"github.com/methodcache/methodcache/policy"
	"github.com/methodcache/methodcache/policy/lru"
)

// lockStripes is the size of the per-key mutex pool (power of two).
const lockStripes = 256

// store is the local-tier implementation. The primary key->entry map is a
// sync.Map so the pure hit/miss path takes no lock. Mutations of one key
// (insert, replace, remove) are serialized by a striped per-key mutex so
// tag and size bookkeeping cannot be torn by a racing replacement; the
// eviction index and the tag index synchronize themselves over narrower
// regions still.
type store struct {
	entries sync.Map // string -> *entry
	tags    *tagIndex
	index   policy.Index

	// locks stripes same-key mutations. Never held while evictMu is held
	// by the same goroutine (eviction acquires evictMu first, then one
	// stripe at a time).
	locks [lockStripes]sync.Mutex

	// evictMu serializes the eviction decision loop and guards rnd.
	evictMu sync.Mutex
	rnd     *rand.Rand

	count  atomic.Int64
	memory atomic.Int64
	closed atomic.Bool

	opt Options
	log *zap.Logger

	sweep *sweeper

	// hot counters on separate cache lines to avoid false sharing
	_         util.CacheLinePad
	hits      util.PaddedAtomicUint64
	misses    util.PaddedAtomicUint64
	evictions util.PaddedAtomicUint64
}

// New constructs a local tier with the provided Options.
func New(opt Options) Cache {
	if opt.MaxEntries <= 0 {
		panic("cache: MaxEntries must be > 0")
	}
	if opt.Policy == nil {
		opt.Policy = lru.New()
	}
	if opt.Metrics == nil {
		opt.Metrics = NoopMetrics{}
	}
	if opt.Logger == nil {
		opt.Logger = zap.NewNop()
	}
	if opt.SweepInterval == 0 {
		opt.SweepInterval = time.Minute
	}
	if opt.SweepBatch <= 0 {
		opt.SweepBatch = 256
	}
	if opt.TagShards <= 0 {
		opt.TagShards = 16
	}
	seed := opt.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	s := &store{
		tags: newTagIndex(opt.TagShards),
		rnd:  rand.New(rand.NewSource(seed)),
		opt:  opt,
		log:  opt.Logger,
	}
	s.index = opt.Policy.New(s)

	if opt.SweepInterval > 0 {
		s.sweep = newSweeper(s, opt.SweepInterval, opt.SweepBatch)
		s.sweep.start()
	}
	return s
}

// Get implements Cache.
func (s *store) Get(key string) (any, bool) {
	if s.closed.Load() {
		return nil, false
	}
	v, ok := s.entries.Load(key)
	if !ok {
		s.misses.Add(1)
		s.opt.Metrics.Miss()
		return nil, false
	}
	e := v.(*entry)
	now := s.now()
	if expired(e, now) {
		s.retireLocked(e, EvictTTL, true)
		s.misses.Add(1)
		s.opt.Metrics.Miss()
		return nil, false
	}

	e.lastAccess.Store(now)
	e.accessCount.Add(1)
	s.index.OnAccess(e)
	s.hits.Add(1)
	s.opt.Metrics.Hit()
	return e.value, true
}

// Set implements Cache.
func (s *store) Set(key string, value any, ttl time.Duration, tags ...string) {
	if s.closed.Load() {
		return
	}
	now := s.now()
	e := &entry{
		key:       key,
		value:     value,
		tags:      append([]string(nil), tags...),
		createdAt: now,
		expiresAt: deadline(now, ttl),
		size:      estimateSize(value, s.opt.Memory),
	}
	e.lastAccess.Store(now)

	mu := s.lockFor(key)
	mu.Lock()
	// The new size joins the running total before the limit check so the
	// eviction decision sees the post-insert pressure.
	s.count.Add(1)
	s.memory.Add(e.size)
	if prev, loaded := s.entries.Swap(key, e); loaded {
		// Full replacement: the old entry's tag and order memberships
		// and its estimated size leave with it.
		s.retire(prev.(*entry), false, EvictCapacity, false)
	}
	s.tags.add(key, e.tags)
	s.index.OnAdd(e)
	mu.Unlock()

	s.evictToLimits()
	s.opt.Metrics.Size(int(s.count.Load()), s.memory.Load())
}

// Remove implements Cache.
func (s *store) Remove(key string) bool {
	if s.closed.Load() {
		return false
	}
	v, ok := s.entries.Load(key)
	if !ok {
		return false
	}
	return s.retireLocked(v.(*entry), EvictCapacity, false)
}

// RemoveByTag implements Cache. The bucket snapshot makes removal
// non-atomic across keys; that is deliberate (eventual removal, no
// resurrection of removed keys).
func (s *store) RemoveByTag(tag string) int {
	if s.closed.Load() {
		return 0
	}
	removed := 0
	for _, key := range s.tags.snapshot(tag) {
		if s.Remove(key) {
			removed++
		}
	}
	return removed
}

// Exists implements Cache. It does not touch access metadata or counters.
func (s *store) Exists(key string) bool {
	if s.closed.Load() {
		return false
	}
	v, ok := s.entries.Load(key)
	if !ok {
		return false
	}
	return !expired(v.(*entry), s.now())
}

// Clear implements Cache.
func (s *store) Clear() {
	s.entries.Range(func(_, v any) bool {
		s.retireLocked(v.(*entry), EvictCapacity, false)
		return true
	})
}

// Len implements Cache.
func (s *store) Len() int { return int(s.count.Load()) }

// Stats implements Cache.
func (s *store) Stats() Stats {
	return Stats{
		Hits:        s.hits.Load(),
		Misses:      s.misses.Load(),
		Evictions:   s.evictions.Load(),
		Entries:     int(s.count.Load()),
		MemoryUsage: s.memory.Load(),
	}
}

// Health implements Cache.
func (s *store) Health() Health {
	return Health{
		Healthy:        !s.closed.Load(),
		Entries:        int(s.count.Load()),
		MemoryUsage:    s.memory.Load(),
		SweeperRunning: s.sweep != nil && s.sweep.running(),
	}
}

// Close implements Cache.
func (s *store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if s.sweep != nil {
		s.sweep.stop()
	}
	return nil
}

// ---- policy.Store ----

// Reservoir returns up to n live entries chosen uniformly at random using
// reservoir sampling over the primary map, avoiding a full key copy.
func (s *store) Reservoir(n int, rnd *rand.Rand) []policy.Node {
	if n <= 0 {
		return nil
	}
	out := make([]policy.Node, 0, n)
	seen := 0
	s.entries.Range(func(_, v any) bool {
		e := v.(*entry)
		if !e.live() {
			return true
		}
		seen++
		if len(out) < n {
			out = append(out, e)
		} else if j := rnd.Intn(seen); j < n {
			out[j] = e
		}
		return true
	})
	return out
}

// ---- internals ----

func (s *store) lockFor(key string) *sync.Mutex {
	return &s.locks[util.Fnv64a(key)&(lockStripes-1)]
}

// retireLocked is retire wrapped in the key's stripe lock.
func (s *store) retireLocked(e *entry, reason EvictReason, evicted bool) bool {
	mu := s.lockFor(e.key)
	mu.Lock()
	defer mu.Unlock()
	return s.retire(e, true, reason, evicted)
}

// retire removes e from the store exactly once; the dead flag arbitrates
// between concurrent removal paths (explicit, expiry, eviction, replace).
// The caller must hold e's stripe lock. unmap is false when the map slot
// was already replaced via Swap.
func (s *store) retire(e *entry, unmap bool, reason EvictReason, evicted bool) bool {
	if !e.dead.CompareAndSwap(false, true) {
		return false
	}
	if unmap {
		s.entries.CompareAndDelete(e.key, e)
	}
	s.count.Add(-1)
	s.memory.Add(-e.size)
	s.tags.remove(e.key, e.tags)
	s.index.OnRemove(e)
	if evicted {
		s.evictions.Add(1)
		s.opt.Metrics.Evict(reason)
		if cb := s.opt.OnEvict; cb != nil {
			cb(e.key, e.value, reason)
		}
	}
	return true
}

// evictToLimits removes victims while the tier is over its entry or memory
// limit. The loop holds evictMu so concurrent writers do not over-evict;
// victim selection itself is bounded, not globally optimal. Callers must
// not hold a stripe lock (lock order is evictMu, then one stripe).
func (s *store) evictToLimits() {
	if !s.overLimit() {
		return
	}
	s.evictMu.Lock()
	defer s.evictMu.Unlock()
	for s.overLimit() {
		v := s.index.Victim(s.rnd)
		if v == nil {
			return
		}
		if !s.retireLocked(v.(*entry), EvictCapacity, true) {
			continue // lost the race; pick another victim
		}
	}
}

func (s *store) overLimit() bool {
	if int(s.count.Load()) > s.opt.MaxEntries {
		return true
	}
	return s.opt.MaxMemory > 0 && s.memory.Load() > s.opt.MaxMemory
}

func (s *store) now() int64 {
	if s.opt.Clock != nil {
		return s.opt.Clock.NowUnixNano()
	}
	return time.Now().UnixNano()
}

func expired(e *entry, now int64) bool {
	return e.expiresAt != 0 && now > e.expiresAt
}

// deadline converts a relative TTL into an absolute UnixNano deadline.
// A non-positive ttl returns 0 (no expiration).
func deadline(now int64, ttl time.Duration) int64 {
	if ttl <= 0 {
		return 0
	}
	return now + int64(ttl)
}
