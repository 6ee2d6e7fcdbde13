package cache

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

type fakeClock struct{ t int64 }

func (f *fakeClock) NowUnixNano() int64  { return f.t }
func (f *fakeClock) add(d time.Duration) { f.t += int64(d) }

// newTestCache builds a small tier with the sweeper disabled so tests
// control expiry discovery explicitly.
func newTestCache(t *testing.T, opt Options) Cache {
	t.Helper()
	if opt.SweepInterval == 0 {
		opt.SweepInterval = -1
	}
	c := New(opt)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// Set then immediate Get returns the stored value.
func TestCache_RoundTrip(t *testing.T) {
	t.Parallel()

	c := newTestCache(t, Options{MaxEntries: 8})

	for i, v := range []any{"text", 42, 3.14, []string{"a", "b"}, map[string]int{"n": 1}} {
		k := fmt.Sprintf("k%d", i)
		c.Set(k, v, time.Minute)
		got, ok := c.Get(k)
		if !ok {
			t.Fatalf("miss for %s", k)
		}
		if fmt.Sprint(got) != fmt.Sprint(v) {
			t.Fatalf("got %v, want %v", got, v)
		}
	}
}

// Per-entry TTL is respected; an expired entry also leaves every tag
// bucket it belonged to.
func TestCache_TTL_FakeClock(t *testing.T) {
	t.Parallel()

	clk := &fakeClock{}
	c := newTestCache(t, Options{MaxEntries: 4, Clock: clk})

	c.Set("x", "v", 100*time.Millisecond, "g1", "g2")
	if _, ok := c.Get("x"); !ok {
		t.Fatal("fresh miss")
	}
	clk.add(200 * time.Millisecond)
	if _, ok := c.Get("x"); ok {
		t.Fatal("expired hit")
	}

	st := c.(*store)
	if st.tags.has("g1") || st.tags.has("g2") {
		t.Fatal("expired entry must leave its tag buckets")
	}
	if c.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", c.Len())
	}
}

// Basic Set/Get/Remove/Exists semantics.
func TestCache_BasicSetGetRemove(t *testing.T) {
	t.Parallel()

	c := newTestCache(t, Options{MaxEntries: 8})

	c.Set("a", 1, 0)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("Get a want 1, got %v ok=%v", v, ok)
	}
	if !c.Exists("a") {
		t.Fatal("Exists a must be true")
	}

	c.Set("a", 11, 0) // update
	if v, _ := c.Get("a"); v != 11 {
		t.Fatalf("Get a want 11, got %v", v)
	}

	if !c.Remove("a") {
		t.Fatal("Remove a must be true")
	}
	if c.Remove("a") {
		t.Fatal("second Remove must be false")
	}
	if _, ok := c.Get("a"); ok {
		t.Fatal("a must be absent after Remove")
	}
}

// Re-Set replaces the whole entry: value, deadline, and tags.
func TestCache_SetReplacesTags(t *testing.T) {
	t.Parallel()

	c := newTestCache(t, Options{MaxEntries: 8})
	st := c.(*store)

	c.Set("k", "v1", time.Minute, "old")
	c.Set("k", "v2", time.Minute, "new")

	if st.tags.has("old") {
		t.Fatal("old tag bucket must be gone after replacement")
	}
	if got := c.RemoveByTag("new"); got != 1 {
		t.Fatalf("RemoveByTag(new) = %d, want 1", got)
	}
	if c.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", c.Len())
	}
}

// Deterministic LRU eviction: accessing "a" promotes it, so inserting a
// third entry over a 2-entry limit evicts "b".
func TestCache_EvictionLRU(t *testing.T) {
	t.Parallel()

	c := newTestCache(t, Options{MaxEntries: 2})

	c.Set("a", 1, 0)
	c.Set("b", 2, 0)
	if _, ok := c.Get("a"); !ok { // promote a
		t.Fatal("expect hit for a")
	}
	c.Set("c", 3, 0) // overflow -> evict LRU (b)

	if _, ok := c.Get("b"); ok {
		t.Fatal("b must be evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a must survive (promoted)")
	}
	if v, ok := c.Get("c"); !ok || v != 3 {
		t.Fatal("c must be present")
	}
	if st := c.Stats(); st.Evictions != 1 {
		t.Fatalf("Evictions = %d, want 1", st.Evictions)
	}
}

// Tag scoping: RemoveByTag(g1) removes exactly the g1-tagged entries,
// prunes the g1 bucket, and leaves g2 intact.
func TestCache_TagScoping(t *testing.T) {
	t.Parallel()

	c := newTestCache(t, Options{MaxEntries: 8})
	st := c.(*store)

	c.Set("A", "a", time.Minute, "g1", "g2")
	c.Set("B", "b", time.Minute, "g1")
	c.Set("C", "c", time.Minute, "g2")

	if got := c.RemoveByTag("g1"); got != 2 {
		t.Fatalf("RemoveByTag(g1) = %d, want 2", got)
	}
	if _, ok := c.Get("A"); ok {
		t.Fatal("A must be removed")
	}
	if _, ok := c.Get("B"); ok {
		t.Fatal("B must be removed")
	}
	if v, ok := c.Get("C"); !ok || v != "c" {
		t.Fatal("C must remain retrievable")
	}
	if st.tags.has("g1") {
		t.Fatal("g1 bucket must no longer exist")
	}
	if keys := st.tags.snapshot("g2"); len(keys) != 1 || keys[0] != "C" {
		t.Fatalf("g2 bucket = %v, want [C]", keys)
	}
}

// Memory pressure: with fast estimation and a tight byte limit, inserting
// large values evicts until the total fits.
func TestCache_MemoryLimit(t *testing.T) {
	t.Parallel()

	c := newTestCache(t, Options{
		MaxEntries: 100,
		MaxMemory:  1024,
		Memory:     MemoryFast,
	})

	big := strings.Repeat("x", 300)
	for i := 0; i < 10; i++ {
		c.Set(fmt.Sprintf("k%d", i), big, 0)
	}

	st := c.Stats()
	if st.MemoryUsage > 1024 {
		t.Fatalf("MemoryUsage = %d, want <= 1024", st.MemoryUsage)
	}
	if st.Evictions == 0 {
		t.Fatal("expected evictions under memory pressure")
	}
	if c.Len() == 0 {
		t.Fatal("tier must not evict everything")
	}
}

// hits + misses equals the number of lookups performed, and HitRatio is
// recomputed from the counters.
func TestCache_StatsMonotonic(t *testing.T) {
	t.Parallel()

	c := newTestCache(t, Options{MaxEntries: 8})

	c.Set("a", 1, 0)
	lookups := 0
	for i := 0; i < 7; i++ {
		c.Get("a") // hits
		lookups++
	}
	for i := 0; i < 3; i++ {
		c.Get("nope") // misses
		lookups++
	}

	st := c.Stats()
	if got := st.Hits + st.Misses; got != uint64(lookups) {
		t.Fatalf("hits+misses = %d, want %d", got, lookups)
	}
	want := float64(st.Hits) / float64(st.Hits+st.Misses)
	if st.HitRatio() != want {
		t.Fatalf("HitRatio() = %v, want %v", st.HitRatio(), want)
	}
}

// Clear drops everything, including tag buckets.
func TestCache_Clear(t *testing.T) {
	t.Parallel()

	c := newTestCache(t, Options{MaxEntries: 8})
	st := c.(*store)

	c.Set("a", 1, 0, "g")
	c.Set("b", 2, 0, "g")
	c.Clear()

	if c.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", c.Len())
	}
	if st.tags.has("g") {
		t.Fatal("tag bucket must be pruned on Clear")
	}
	if st.memory.Load() != 0 {
		t.Fatalf("memory total = %d, want 0", st.memory.Load())
	}
}

// Closed tiers ignore operations.
func TestCache_Close(t *testing.T) {
	t.Parallel()

	c := New(Options{MaxEntries: 8, SweepInterval: -1})
	c.Set("a", 1, 0)
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get("a"); ok {
		t.Fatal("closed tier must miss")
	}
	c.Set("b", 2, 0)
	if c.Exists("b") {
		t.Fatal("closed tier must ignore Set")
	}
	if h := c.Health(); h.Healthy {
		t.Fatal("closed tier must report unhealthy")
	}
}

// The background sweeper removes expired entries without any access.
func TestCache_SweepRemovesExpired(t *testing.T) {
	t.Parallel()

	c := New(Options{
		MaxEntries:    64,
		SweepInterval: 10 * time.Millisecond,
		SweepBatch:    8,
	})
	t.Cleanup(func() { _ = c.Close() })

	for i := 0; i < 32; i++ {
		c.Set(fmt.Sprintf("k%d", i), i, time.Millisecond)
	}
	c.Set("keep", "v", time.Minute)

	deadline := time.Now().Add(2 * time.Second)
	for c.Len() > 1 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if c.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 after sweep", c.Len())
	}
	if !c.Exists("keep") {
		t.Fatal("unexpired entry must survive the sweep")
	}
}
