// Package methodcache is a method-level result cache: callers supply a
// method identifier, arguments, a value-producing factory, and a policy
// (TTL, tags, idempotency requirement), and the engine returns a
// previously stored result or computes and stores one.
//
// Architecture
//
//	caller -> stampede guard -> hybrid coordinator -> L1 -> L2 -> factory
//
//   - L1 is the in-process tier (package cache): concurrent map, pluggable
//     eviction (LRU/LFU/TTL/Random), tag index, background expiry sweep.
//   - L2 is any remote.Tier implementation (package remote/redis ships a
//     Redis adapter). L2 failures degrade to local-only behavior; they are
//     never visible to callers.
//   - The hybrid coordinator (package hybrid) orders lookups, warms L1
//     after L2 hits, and applies the configured write strategy
//     (write-through, write-back, L1-only, L2-only).
//   - Concurrent misses for one key collapse into a single factory
//     execution; all waiters share the result or the error.
//
// Usage
//
//	l1 := cache.New(cache.Options{MaxEntries: 10_000})
//	coord := hybrid.New(hybrid.Options{Local: l1, Strategy: hybrid.WriteBack, Remote: tier})
//	engine := methodcache.New(methodcache.Options{Coordinator: coord})
//
//	engine.Registry().Register("users.Profile", hybrid.Policy{
//	    TTL:  5 * time.Minute,
//	    Tags: []string{"users"},
//	})
//
//	profile, err := methodcache.GetOrCreate(ctx, engine, "users.Profile",
//	    []any{userID},
//	    func(ctx context.Context) (Profile, error) {
//	        return repo.LoadProfile(ctx, userID)
//	    })
//
//	// Later, after a bulk update:
//	_ = engine.InvalidateTags(ctx, "users")
package methodcache
