package methodcache

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/methodcache/methodcache/cache"
	"github.com/methodcache/methodcache/hybrid"
)

func newTestEngine(t *testing.T) (*Engine, cache.Cache) {
	t.Helper()
	l1 := cache.New(cache.Options{MaxEntries: 128, SweepInterval: -1})
	t.Cleanup(func() { _ = l1.Close() })
	coord := hybrid.New(hybrid.Options{Local: l1, Strategy: hybrid.L1Only})
	return New(Options{Coordinator: coord}), l1
}

func TestDefaultKeyGenerator(t *testing.T) {
	pol := hybrid.Policy{Version: 2}

	// Zero-argument calls key on method and version alone.
	k, err := DefaultKeyGenerator("billing.Rates", nil, pol)
	require.NoError(t, err)
	assert.Equal(t, "billing.Rates:v2", k)

	// Same call, same key; different arguments, different keys.
	k1, err := DefaultKeyGenerator("users.Get", []any{42, "eu"}, pol)
	require.NoError(t, err)
	k2, err := DefaultKeyGenerator("users.Get", []any{42, "eu"}, pol)
	require.NoError(t, err)
	k3, err := DefaultKeyGenerator("users.Get", []any{43, "eu"}, pol)
	require.NoError(t, err)
	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)

	// Bumping the policy version invalidates prior keys.
	k4, err := DefaultKeyGenerator("users.Get", []any{42, "eu"}, hybrid.Policy{Version: 3})
	require.NoError(t, err)
	assert.NotEqual(t, k1, k4)

	// Arguments the encoding cannot represent surface as an error.
	_, err = DefaultKeyGenerator("users.Get", []any{make(chan int)}, pol)
	require.Error(t, err)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	_, ok := r.Resolve("absent")
	assert.False(t, ok)

	r.Register("users.Get", hybrid.Policy{TTL: time.Minute, Tags: []string{"users"}})
	pol, ok := r.Resolve("users.Get")
	require.True(t, ok)
	assert.Equal(t, time.Minute, pol.TTL)
	assert.False(t, r.IsNonIdempotent("users.Get"))

	// Re-registering replaces the prior entry.
	r.Register("users.Get", hybrid.Policy{TTL: time.Hour}, NonIdempotent())
	pol, ok = r.Resolve("users.Get")
	require.True(t, ok)
	assert.Equal(t, time.Hour, pol.TTL)
	assert.True(t, r.IsNonIdempotent("users.Get"))
}

func TestEngine_GetOrCreateCaches(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Registry().Register("users.Get", hybrid.Policy{TTL: time.Minute})

	var calls atomic.Int64
	factory := func(context.Context) (string, error) {
		calls.Add(1)
		return "alice", nil
	}

	for i := 0; i < 3; i++ {
		v, err := GetOrCreate(context.Background(), e, "users.Get", []any{42}, factory)
		require.NoError(t, err)
		assert.Equal(t, "alice", v)
	}
	assert.EqualValues(t, 1, calls.Load())

	// Different arguments are a different call.
	_, err := GetOrCreate(context.Background(), e, "users.Get", []any{43}, factory)
	require.NoError(t, err)
	assert.EqualValues(t, 2, calls.Load())
}

func TestEngine_MethodNotRegistered(t *testing.T) {
	e, _ := newTestEngine(t)

	_, err := GetOrCreate(context.Background(), e, "nope.Nothing", nil,
		func(context.Context) (int, error) { return 0, nil })
	require.ErrorIs(t, err, ErrMethodNotRegistered)

	require.ErrorIs(t, e.Invalidate(context.Background(), "nope.Nothing"), ErrMethodNotRegistered)
}

// A method registered as non-idempotent is rejected before its factory
// runs when the policy demands idempotency.
func TestEngine_NonIdempotentRejected(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Registry().Register("orders.Place",
		hybrid.Policy{TTL: time.Minute, RequireIdempotent: true}, NonIdempotent())

	_, err := GetOrCreate(context.Background(), e, "orders.Place", []any{1},
		func(context.Context) (string, error) {
			t.Error("factory must not execute for a rejected call")
			return "", nil
		})
	require.ErrorIs(t, err, ErrNonIdempotentFactory)

	// Without the policy requirement the same method is cacheable.
	e.Registry().Register("orders.Preview", hybrid.Policy{TTL: time.Minute}, NonIdempotent())
	v, err := GetOrCreate(context.Background(), e, "orders.Preview", []any{1},
		func(context.Context) (string, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

// A resident value of the wrong shape is treated as a miss: purge, then
// recompute. The caller never sees an error for it.
func TestEngine_TypeMismatchIsMiss(t *testing.T) {
	e, l1 := newTestEngine(t)
	pol := hybrid.Policy{TTL: time.Minute}
	e.Registry().Register("users.Count", pol)

	key, err := DefaultKeyGenerator("users.Count", []any{7}, pol)
	require.NoError(t, err)
	l1.Set(key, "not an int", time.Minute)

	var calls atomic.Int64
	v, err := GetOrCreate(context.Background(), e, "users.Count", []any{7},
		func(context.Context) (int, error) {
			calls.Add(1)
			return 99, nil
		})
	require.NoError(t, err)
	assert.Equal(t, 99, v)
	assert.EqualValues(t, 1, calls.Load())

	// The recomputed value replaced the foreign one.
	got, ok := l1.Get(key)
	require.True(t, ok)
	assert.Equal(t, 99, got)
}

func TestEngine_Invalidate(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Registry().Register("users.Get", hybrid.Policy{TTL: time.Minute})

	var calls atomic.Int64
	factory := func(context.Context) (string, error) {
		calls.Add(1)
		return "v", nil
	}

	_, err := GetOrCreate(context.Background(), e, "users.Get", []any{1}, factory)
	require.NoError(t, err)
	require.NoError(t, e.Invalidate(context.Background(), "users.Get", 1))

	_, err = GetOrCreate(context.Background(), e, "users.Get", []any{1}, factory)
	require.NoError(t, err)
	assert.EqualValues(t, 2, calls.Load(), "invalidation must force a recompute")
}

func TestEngine_InvalidateTags(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Registry().Register("users.Get", hybrid.Policy{TTL: time.Minute, Tags: []string{"users"}})
	e.Registry().Register("plans.List", hybrid.Policy{TTL: time.Minute, Tags: []string{"plans"}})

	var userCalls, planCalls atomic.Int64
	getUser := func(context.Context) (string, error) { userCalls.Add(1); return "u", nil }
	getPlans := func(context.Context) (string, error) { planCalls.Add(1); return "p", nil }

	_, err := GetOrCreate(context.Background(), e, "users.Get", []any{1}, getUser)
	require.NoError(t, err)
	_, err = GetOrCreate(context.Background(), e, "plans.List", nil, getPlans)
	require.NoError(t, err)

	require.NoError(t, e.InvalidateTags(context.Background(), "users"))

	_, err = GetOrCreate(context.Background(), e, "users.Get", []any{1}, getUser)
	require.NoError(t, err)
	_, err = GetOrCreate(context.Background(), e, "plans.List", nil, getPlans)
	require.NoError(t, err)

	assert.EqualValues(t, 2, userCalls.Load())
	assert.EqualValues(t, 1, planCalls.Load(), "other tags must be untouched")
}

// GetOrCreateWithPolicy skips the registry: unregistered methods work with
// an explicit policy record.
func TestEngine_GetOrCreateWithPolicy(t *testing.T) {
	e, _ := newTestEngine(t)

	v, err := GetOrCreateWithPolicy(context.Background(), e, "adhoc.Call", []any{"x"},
		hybrid.Policy{TTL: time.Minute},
		func(context.Context) (int, error) { return 5, nil })
	require.NoError(t, err)
	assert.Equal(t, 5, v)

	st := e.Stats()
	assert.EqualValues(t, 1, st.FactoryCalls)
}
