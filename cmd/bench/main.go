// Command bench runs a synthetic workload against the local tier and
// exposes optional pprof/Prometheus endpoints.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/methodcache/methodcache/cache"
	"github.com/methodcache/methodcache/metrics/prom"
	"github.com/methodcache/methodcache/policy"
	"github.com/methodcache/methodcache/policy/lfu"
	"github.com/methodcache/methodcache/policy/random"
	"github.com/methodcache/methodcache/policy/ttl"
)

func main() {
	// ---- Flags ----
	var (
		capacity = flag.Int("cap", 100_000, "cache capacity (entries)")
		polName  = flag.String("policy", "lru", "eviction policy: lru | lfu | ttl | random")

		workers  = flag.Int("workers", 2*runtime.GOMAXPROCS(0), "number of worker goroutines")
		duration = flag.Duration("duration", 10*time.Second, "benchmark duration")
		readPct  = flag.Int("reads", 80, "read percentage [0..100]")
		entryTTL = flag.Duration("ttl", time.Minute, "per-entry TTL (0 = none)")

		keys  = flag.Int("keys", 1_000_000, "keyspace size")
		zipfS = flag.Float64("zipf_s", 1.1, "Zipf s > 1 (skew)")
		zipfV = flag.Float64("zipf_v", 1.0, "Zipf v")
		seed  = flag.Int64("seed", time.Now().UnixNano(), "random seed")

		pprofAddr   = flag.String("pprof", "", "serve pprof at addr (e.g. :6060); empty = disabled")
		metricsAddr = flag.String("http", ":8080", "serve Prometheus metrics at addr")
	)
	flag.Parse()

	if *pprofAddr != "" {
		go func() {
			log.Printf("pprof: serving at %s", *pprofAddr)
			log.Println(http.ListenAndServe(*pprofAddr, nil))
		}()
	}

	metrics := prom.New(nil, "methodcache", "l1")
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Printf("metrics: serving at %s", *metricsAddr)
		log.Println(http.ListenAndServe(*metricsAddr, nil))
	}()

	// ---- Build the tier ----
	var pol policy.Policy
	switch *polName {
	case "lru":
		// nil => LRU by default
	case "lfu":
		pol = lfu.New()
	case "ttl":
		pol = ttl.New()
	case "random":
		pol = random.New()
	default:
		log.Fatalf("unknown policy: %q (use lru, lfu, ttl, or random)", *polName)
	}
	c := cache.New(cache.Options{
		MaxEntries: *capacity,
		Policy:     pol,
		Metrics:    metrics,
		Seed:       *seed,
	})
	defer func() { _ = c.Close() }()

	// ---- Preload half capacity for a realistic hit rate ----
	for i := 0; i < *capacity/2; i++ {
		k := "k:" + strconv.Itoa(i)
		c.Set(k, "v"+strconv.Itoa(i), *entryTTL)
	}

	readPctVal := *readPct
	keysMax := uint64(*keys - 1)
	workersN := *workers
	if workersN <= 0 {
		workersN = 1
	}

	// ---- Load generation ----
	var reads, writes, hits, misses, total uint64
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(workersN)
	for w := 0; w < workersN; w++ {
		go func(id int) {
			defer wg.Done()

			// Each worker gets its own RNG + Zipf (rand.Rand is not goroutine-safe).
			localR := rand.New(rand.NewSource(*seed + int64(id)*9973))
			localZipf := rand.NewZipf(localR, *zipfS, *zipfV, keysMax)

			keyByZipf := func() string {
				return "k:" + strconv.FormatUint(localZipf.Uint64(), 10)
			}

			for {
				select {
				case <-ctx.Done():
					return
				default:
				}

				atomic.AddUint64(&total, 1)
				if int(localR.Int31n(100)) < readPctVal {
					atomic.AddUint64(&reads, 1)
					if _, ok := c.Get(keyByZipf()); ok {
						atomic.AddUint64(&hits, 1)
					} else {
						atomic.AddUint64(&misses, 1)
					}
				} else {
					atomic.AddUint64(&writes, 1)
					c.Set(keyByZipf(), "v"+strconv.Itoa(localR.Int()), *entryTTL)
				}
			}
		}(w)
	}
	wg.Wait()
	elapsed := time.Since(start)

	// ---- Report ----
	ops := atomic.LoadUint64(&total)
	readsN := atomic.LoadUint64(&reads)
	hitsN := atomic.LoadUint64(&hits)

	hitRate := 0.0
	if readsN > 0 {
		hitRate = float64(hitsN) / float64(readsN) * 100
	}

	fmt.Printf("policy=%s cap=%d workers=%d keys=%d dur=%v seed=%d\n",
		*polName, *capacity, workersN, *keys, elapsed, *seed)
	fmt.Printf("ops=%d (%.0f ops/s)  reads=%d  writes=%d\n",
		ops, float64(ops)/elapsed.Seconds(), readsN, atomic.LoadUint64(&writes))
	fmt.Printf("hits=%d  misses=%d  hit-rate=%.2f%%\n", hitsN, atomic.LoadUint64(&misses), hitRate)
	fmt.Printf("Len()=%d  Stats()=%+v\n", c.Len(), c.Stats())
}
