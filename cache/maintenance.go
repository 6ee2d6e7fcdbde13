package cache

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// sweeper is the background expiry scan. Each pass collects expired
// entries in bounded batches and removes them batch by batch; the scan
// itself runs over the concurrent map and never holds a global lock.
type sweeper struct {
	s        *store
	interval time.Duration
	batch    int

	done   chan struct{}
	active atomic.Bool
}

func newSweeper(s *store, interval time.Duration, batch int) *sweeper {
	return &sweeper{
		s:        s,
		interval: interval,
		batch:    batch,
		done:     make(chan struct{}),
	}
}

func (w *sweeper) start() {
	w.active.Store(true)
	go w.loop()
}

// stop shuts the sweep down deterministically: once stop returns, no
// further passes run.
func (w *sweeper) stop() {
	if w.active.CompareAndSwap(true, false) {
		close(w.done)
	}
}

func (w *sweeper) running() bool { return w.active.Load() }

func (w *sweeper) loop() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.pass()
		}
	}
}

// pass removes expired entries in batches until a scan turns up fewer
// than a full batch.
func (w *sweeper) pass() {
	total := 0
	for {
		batch := w.collect()
		for _, e := range batch {
			if w.s.retireLocked(e, EvictTTL, true) {
				total++
			}
		}
		if len(batch) < w.batch {
			break
		}
		select {
		case <-w.done:
			return
		default:
		}
	}
	if total > 0 {
		w.s.log.Debug("expiry sweep removed entries", zap.Int("removed", total))
	}
}

// collect scans for up to one batch of expired entries.
func (w *sweeper) collect() []*entry {
	now := w.s.now()
	batch := make([]*entry, 0, w.batch)
	w.s.entries.Range(func(_, v any) bool {
		e := v.(*entry)
		if e.live() && expired(e, now) {
			batch = append(batch, e)
		}
		return len(batch) < w.batch
	})
	return batch
}
