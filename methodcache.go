package methodcache

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/methodcache/methodcache/hybrid"
)

// Options configures the engine. Coordinator is required; the rest default
// to an empty registry, DefaultKeyGenerator, and a no-op logger.
type Options struct {
	Coordinator  *hybrid.Coordinator
	Registry     *Registry
	KeyGenerator KeyGenerator
	Logger       *zap.Logger
}

// Engine is the public entry point of the method-result cache. It resolves
// policies from the registry, derives keys, and delegates tier
// orchestration to the hybrid coordinator. All methods are safe for
// concurrent use.
type Engine struct {
	coord  *hybrid.Coordinator
	reg    *Registry
	keyGen KeyGenerator
	log    *zap.Logger
}

// New constructs an engine from explicit collaborators; there is no
// container wiring anywhere in the module.
func New(opt Options) *Engine {
	if opt.Coordinator == nil {
		panic("methodcache: Coordinator is required")
	}
	if opt.Registry == nil {
		opt.Registry = NewRegistry()
	}
	if opt.KeyGenerator == nil {
		opt.KeyGenerator = DefaultKeyGenerator
	}
	if opt.Logger == nil {
		opt.Logger = zap.NewNop()
	}
	return &Engine{
		coord:  opt.Coordinator,
		reg:    opt.Registry,
		keyGen: opt.KeyGenerator,
		log:    opt.Logger,
	}
}

// Registry returns the engine's registration table.
func (e *Engine) Registry() *Registry { return e.reg }

// InvalidateTags removes every entry carrying any of the tags from both
// tiers, best-effort.
func (e *Engine) InvalidateTags(ctx context.Context, tags ...string) error {
	return e.coord.InvalidateTags(ctx, tags...)
}

// Invalidate removes the cached result of one specific call from both
// tiers. The method must be registered so the key can be re-derived.
func (e *Engine) Invalidate(ctx context.Context, method string, args ...any) error {
	pol, ok := e.reg.Resolve(method)
	if !ok {
		return fmt.Errorf("%w: %s", ErrMethodNotRegistered, method)
	}
	key, err := e.keyGen(method, args, pol)
	if err != nil {
		return err
	}
	return e.coord.InvalidateKey(ctx, key)
}

// Stats returns per-tier and combined counters.
func (e *Engine) Stats() hybrid.Stats { return e.coord.Stats() }

// GetOrCreate returns the cached result of method(args) or computes it via
// factory under the policy registered for method.
func GetOrCreate[V any](ctx context.Context, e *Engine, method string, args []any, factory func(ctx context.Context) (V, error)) (V, error) {
	pol, ok := e.reg.Resolve(method)
	if !ok {
		var zero V
		return zero, fmt.Errorf("%w: %s", ErrMethodNotRegistered, method)
	}
	return GetOrCreateWithPolicy(ctx, e, method, args, pol, factory)
}

// GetOrCreateWithPolicy is GetOrCreate with an explicit policy record,
// bypassing the registry lookup (the idempotency registration still
// applies).
//
// Callers experience either a value or the factory's own error. A resident
// value of the wrong shape is logged and treated as a miss, never as an
// error.
func GetOrCreateWithPolicy[V any](ctx context.Context, e *Engine, method string, args []any, pol hybrid.Policy, factory func(ctx context.Context) (V, error)) (V, error) {
	var zero V
	if pol.RequireIdempotent && e.reg.IsNonIdempotent(method) {
		return zero, fmt.Errorf("%w: %s", ErrNonIdempotentFactory, method)
	}
	key, err := e.keyGen(method, args, pol)
	if err != nil {
		return zero, err
	}

	wrapped := func(ctx context.Context) (any, error) { return factory(ctx) }
	codec := jsonCodec[V]{}

	v, err := e.coord.GetOrCreate(ctx, key, pol, wrapped, codec)
	if err != nil {
		return zero, err
	}
	if typed, ok := v.(V); ok {
		return typed, nil
	}

	// A foreign value shape under this key (key collision or a stale
	// entry from an older deployment): purge and recompute once.
	e.log.Warn("cached value type mismatch, treating as miss",
		zap.String("method", method), zap.String("key", key))
	if err := e.coord.InvalidateKey(ctx, key); err != nil {
		return zero, err
	}
	v, err = e.coord.GetOrCreate(ctx, key, pol, wrapped, codec)
	if err != nil {
		return zero, err
	}
	if typed, ok := v.(V); ok {
		return typed, nil
	}
	// Still racing with a conflicting writer; serve this caller directly.
	return factory(ctx)
}

// jsonCodec carries the concrete result type across the remote tier's
// opaque byte representation.
type jsonCodec[V any] struct{}

func (jsonCodec[V]) Encode(v any) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec[V]) Decode(data []byte) (any, error) {
	var v V
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}
