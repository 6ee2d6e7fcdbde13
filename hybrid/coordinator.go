// Package hybrid orchestrates the local (L1) and remote (L2) cache tiers:
// lookup ordering, promotion (warming), write strategies, tag invalidation,
// and stampede protection on the miss path.
//
// Remote-tier instability never surfaces to callers. Every L2 operation is
// bounded by a permit pool, a per-operation timeout, and (by default) a
// circuit breaker; any failure downgrades to "L2 unavailable for this
// operation" and the engine proceeds as if the tier were absent.
package hybrid

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/methodcache/methodcache/internal/singleflight"
	"github.com/methodcache/methodcache/internal/util"
)

// ErrNilFactory is returned by GetOrCreate when no factory was supplied.
var ErrNilFactory = errors.New("hybrid: nil factory")

// Factory produces the value on a full miss. Factory errors pass through
// to the caller untouched; the coordinator never retries.
type Factory func(ctx context.Context) (any, error)

// Codec translates values to and from the remote tier's byte
// representation. Required whenever a remote tier is configured.
type Codec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte) (any, error)
}

// Coordinator layers a fast local tier over a slower remote tier.
// All methods are safe for concurrent use.
type Coordinator struct {
	opt Options
	log *zap.Logger

	sem     *semaphore.Weighted
	breaker *gobreaker.CircuitBreaker
	sf      singleflight.Group[string, any]

	l2Hits       util.PaddedAtomicUint64
	l2Misses     util.PaddedAtomicUint64
	l2Errors     util.PaddedAtomicUint64
	factoryCalls util.PaddedAtomicUint64
}

// New constructs a coordinator over the configured tiers.
func New(opt Options) *Coordinator {
	if opt.Local == nil && opt.Strategy != L2Only {
		panic("hybrid: Local tier is required unless Strategy is L2Only")
	}
	if opt.L2Timeout <= 0 {
		opt.L2Timeout = 2 * time.Second
	}
	if opt.L2Permits <= 0 {
		opt.L2Permits = 16
	}
	if opt.L1TTLCeiling <= 0 {
		opt.L1TTLCeiling = 5 * time.Minute
	}
	if opt.Logger == nil {
		opt.Logger = zap.NewNop()
	}

	c := &Coordinator{
		opt: opt,
		log: opt.Logger,
		sem: semaphore.NewWeighted(int64(opt.L2Permits)),
	}
	if opt.Remote != nil && !opt.DisableBreaker {
		c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "methodcache-l2",
			Timeout: 10 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		})
	}
	return c
}

// GetOrCreate returns the cached value for key or computes one via factory.
// Lookup order is L1, then L2 (strategy permitting), then the factory.
// Concurrent misses for the same key collapse into a single factory
// execution; every waiter receives the same value or the same error.
func (c *Coordinator) GetOrCreate(ctx context.Context, key string, pol Policy, factory Factory, codec Codec) (any, error) {
	if factory == nil {
		return nil, ErrNilFactory
	}

	// Fast path: no flight joined on an L1 hit.
	if c.opt.Strategy != L2Only {
		if v, ok := c.opt.Local.Get(key); ok {
			return v, nil
		}
	}

	return c.sf.Do(ctx, key, func() (any, error) {
		// Double-check after winning or joining the flight: the previous
		// leader may have populated L1 already.
		if c.opt.Strategy != L2Only {
			if v, ok := c.opt.Local.Get(key); ok {
				return v, nil
			}
		}

		if c.l2Enabled() && codec != nil {
			var (
				data []byte
				hit  bool
			)
			ok := c.l2do(ctx, "get", func(opCtx context.Context) error {
				var err error
				data, hit, err = c.opt.Remote.Get(opCtx, key)
				return err
			})
			switch {
			case ok && hit:
				c.l2Hits.Add(1)
				v, err := codec.Decode(data)
				if err == nil {
					if !c.opt.DisableWarming && c.opt.Strategy != L2Only {
						// Warming must not block the caller's return.
						go c.warm(key, v, pol)
					}
					return v, nil
				}
				c.log.Warn("discarding undecodable remote entry",
					zap.String("key", key), zap.Error(err))
			case ok:
				c.l2Misses.Add(1)
			}
		}

		c.factoryCalls.Add(1)
		v, err := factory(ctx)
		if err != nil {
			// No negative caching: the flight token is retired with us,
			// so the next request re-attempts the factory.
			return nil, err
		}
		c.write(ctx, key, v, pol, codec)
		return v, nil
	})
}

// InvalidateKey removes key from both tiers in parallel, best-effort.
func (c *Coordinator) InvalidateKey(ctx context.Context, key string) error {
	g, ctx := errgroup.WithContext(ctx)
	if c.opt.Strategy != L2Only {
		g.Go(func() error {
			c.opt.Local.Remove(key)
			return nil
		})
	}
	if c.l2Enabled() {
		g.Go(func() error {
			c.l2do(ctx, "remove", func(opCtx context.Context) error {
				return c.opt.Remote.Remove(opCtx, key)
			})
			return nil
		})
	}
	return g.Wait()
}

// InvalidateTags removes every entry carrying any of the tags from both
// tiers. The remote tier uses its native tag removal. Locally, either
// per-tag removal runs or — when per-tag L1 bookkeeping is disabled via
// ClearL1OnTagInvalidate — the whole L1 is cleared, a documented
// correctness/efficiency trade-off.
func (c *Coordinator) InvalidateTags(ctx context.Context, tags ...string) error {
	if len(tags) == 0 {
		return nil
	}
	g, ctx := errgroup.WithContext(ctx)
	if c.opt.Strategy != L2Only {
		g.Go(func() error {
			if c.opt.ClearL1OnTagInvalidate {
				c.opt.Local.Clear()
				return nil
			}
			for _, tag := range tags {
				c.opt.Local.RemoveByTag(tag)
			}
			return nil
		})
	}
	if c.l2Enabled() {
		for _, tag := range tags {
			tag := tag
			g.Go(func() error {
				c.l2do(ctx, "remove_by_tag", func(opCtx context.Context) error {
					return c.opt.Remote.RemoveByTag(opCtx, tag)
				})
				return nil
			})
		}
	}
	return g.Wait()
}

// HealthCheck pings the remote tier within the usual bounds.
func (c *Coordinator) HealthCheck(ctx context.Context) bool {
	if !c.l2Enabled() {
		return false
	}
	return c.l2do(ctx, "health", func(opCtx context.Context) error {
		return c.opt.Remote.HealthCheck(opCtx)
	})
}

// ---- write path ----

func (c *Coordinator) write(ctx context.Context, key string, v any, pol Policy, codec Codec) {
	switch c.opt.Strategy {
	case L1Only:
		c.opt.Local.Set(key, v, pol.TTL, pol.Tags...)
	case L2Only:
		c.writeL2(ctx, key, v, pol, codec)
	case WriteThrough:
		c.opt.Local.Set(key, v, pol.TTL, pol.Tags...)
		c.writeL2(ctx, key, v, pol, codec)
	case WriteBack:
		c.opt.Local.Set(key, v, pol.TTL, pol.Tags...)
		if c.opt.SyncWriteBack {
			c.writeL2(ctx, key, v, pol, codec)
		} else {
			// Fire-and-forget: detach from the caller's context so its
			// cancellation does not abort the background write.
			go c.writeL2(context.Background(), key, v, pol, codec)
		}
	}
}

func (c *Coordinator) writeL2(ctx context.Context, key string, v any, pol Policy, codec Codec) {
	if !c.l2Enabled() || codec == nil {
		return
	}
	data, err := codec.Encode(v)
	if err != nil {
		c.log.Warn("skipping remote write of unencodable value",
			zap.String("key", key), zap.Error(err))
		return
	}
	c.l2do(ctx, "set", func(opCtx context.Context) error {
		return c.opt.Remote.Set(opCtx, key, data, pol.TTL, pol.Tags...)
	})
}

// warm populates L1 from an L2 hit using the policy TTL capped by the L1
// ceiling. Runs on its own goroutine.
func (c *Coordinator) warm(key string, v any, pol Policy) {
	ttl := c.opt.L1TTLCeiling
	if pol.TTL > 0 && pol.TTL < ttl {
		ttl = pol.TTL
	}
	c.opt.Local.Set(key, v, ttl, pol.Tags...)
}

// ---- bounded remote access ----

func (c *Coordinator) l2Enabled() bool {
	return c.opt.Remote != nil && c.opt.Strategy != L1Only
}

// l2do runs one remote operation under a permit, a timeout, and the
// breaker. It reports success; every failure is downgraded to "L2
// unavailable for this operation" and logged, never propagated.
func (c *Coordinator) l2do(ctx context.Context, op string, fn func(ctx context.Context) error) bool {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		c.degrade(op, err)
		return false
	}
	defer c.sem.Release(1)

	opCtx, cancel := context.WithTimeout(ctx, c.opt.L2Timeout)
	defer cancel()

	var err error
	if c.breaker != nil {
		_, err = c.breaker.Execute(func() (any, error) {
			return nil, fn(opCtx)
		})
	} else {
		err = fn(opCtx)
	}
	if err != nil {
		c.degrade(op, err)
		return false
	}
	return true
}

func (c *Coordinator) degrade(op string, err error) {
	c.l2Errors.Add(1)
	c.log.Warn("remote tier unavailable for operation",
		zap.String("op", op), zap.Error(err))
}
