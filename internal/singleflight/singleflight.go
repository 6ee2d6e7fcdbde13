// Package singleflight collapses concurrent cache misses for the same key
// into a single execution of the value factory (stampede protection).
package singleflight

import (
	"context"
	"sync"
)

// flight is the in-flight request token for one key.
// done is closed after val/err are published, so reads that follow
// <-done observe the final values.
type flight[V any] struct {
	done chan struct{}
	val  V
	err  error
}

// Group coalesces concurrent calls for the same key K so that fn runs at
// most once per in-flight window. The zero value is ready to use.
//
//   - The first caller for a key becomes the leader and runs fn.
//   - Followers suspend on the flight's done channel (no polling).
//   - The token is retired as soon as fn completes, success or failure:
//     a failed flight is not remembered, so the next request after a
//     failure re-attempts fn instead of replaying a stale error.
type Group[K comparable, V any] struct {
	mu sync.Mutex
	m  map[K]*flight[V]
}

// Do runs fn once for key; concurrent callers share the result or error.
//
// Cancelling ctx unblocks only the waiting follower (it returns ctx.Err());
// the leader's fn keeps running. If the underlying work must be cancellable,
// thread a context into fn itself.
func (g *Group[K, V]) Do(ctx context.Context, key K, fn func() (V, error)) (V, error) {
	g.mu.Lock()
	if g.m == nil {
		g.m = make(map[K]*flight[V])
	}
	if f, ok := g.m[key]; ok {
		// Follower: wait for the leader's result, respecting ctx.
		g.mu.Unlock()
		select {
		case <-f.done:
			return f.val, f.err
		case <-ctx.Done():
			var zero V
			return zero, ctx.Err()
		}
	}

	// Leader for this key.
	f := &flight[V]{done: make(chan struct{})}
	g.m[key] = f
	g.mu.Unlock()

	v, err := fn()

	// Publish, wake followers, retire the token. Publication must precede
	// the close so followers never observe zero values.
	f.val, f.err = v, err
	close(f.done)

	g.mu.Lock()
	delete(g.m, key)
	g.mu.Unlock()

	return v, err
}

// InFlight reports whether a flight for key is currently active.
// Intended for tests and stats, not for control flow.
func (g *Group[K, V]) InFlight(key K) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.m[key]
	return ok
}
