package cache

import (
	"math/rand"
	"runtime"
	"strconv"
	"sync"
	"testing"
	"time"
)

// A mixed workload of concurrent Set/Get/Remove/RemoveByTag on random keys.
// Should pass under `-race` without detector reports.
func TestRace_Basic(t *testing.T) {
	c := New(Options{
		MaxEntries:    4_096,
		SweepInterval: 20 * time.Millisecond,
	})
	t.Cleanup(func() { _ = c.Close() })

	workers := 4 * runtime.GOMAXPROCS(0)
	keyspace := 20_000
	tags := []string{"t0", "t1", "t2", "t3"}
	deadline := time.Now().Add(2 * time.Second)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(id int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(id)*9973))
			for time.Now().Before(deadline) {
				k := "k:" + strconv.Itoa(r.Intn(keyspace))
				switch r.Intn(100) {
				case 0, 1, 2: // ~3% — RemoveByTag
					c.RemoveByTag(tags[r.Intn(len(tags))])
				case 3, 4, 5, 6, 7: // ~5% — Remove
					c.Remove(k)
				case 8, 9, 10, 11, 12: // ~5% — Set with short TTL
					c.Set(k, []byte("x"), time.Duration(10+r.Intn(20))*time.Millisecond, tags[r.Intn(len(tags))])
				case 13, 14, 15, 16, 17, 18, 19: // ~7% — Set
					c.Set(k, []byte("x"), 0, tags[r.Intn(len(tags))])
				default: // ~80% — Get
					c.Get(k)
				}
			}
		}(w)
	}
	wg.Wait()

	// Bookkeeping must still be consistent after the storm.
	if got := c.Len(); got < 0 || got > 4_096 {
		t.Fatalf("Len() = %d out of bounds", got)
	}
}

// Concurrent replacement of the same key must not leak count or memory.
func TestRace_SameKeyReplace(t *testing.T) {
	c := New(Options{
		MaxEntries:    16,
		Memory:        MemoryFast,
		SweepInterval: -1,
	})
	t.Cleanup(func() { _ = c.Close() })

	workers := 8
	const iters = 2_000

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(id int) {
			defer wg.Done()
			for i := 0; i < iters; i++ {
				c.Set("hot", strconv.Itoa(id*iters+i), 0, "g")
			}
		}(w)
	}
	wg.Wait()

	if got := c.Len(); got != 1 {
		t.Fatalf("Len() = %d, want 1", got)
	}
	st := c.(*store)
	if keys := st.tags.snapshot("g"); len(keys) != 1 {
		t.Fatalf("tag bucket = %v, want exactly one key", keys)
	}
	c.Remove("hot")
	if st.memory.Load() != 0 {
		t.Fatalf("memory total = %d after removing the only entry", st.memory.Load())
	}
}
