package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTier(t *testing.T) (*Tier, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	tier, err := New(&Config{Address: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = tier.Close() })
	return tier, mr
}

func TestTier_RoundTrip(t *testing.T) {
	tier, _ := newTestTier(t)
	ctx := context.Background()

	require.NoError(t, tier.Set(ctx, "k", []byte("payload"), time.Minute))

	data, hit, err := tier.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []byte("payload"), data)
}

func TestTier_MissIsNotAnError(t *testing.T) {
	tier, _ := newTestTier(t)

	data, hit, err := tier.Get(context.Background(), "absent")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Nil(t, data)
}

func TestTier_KeyPrefixIsolation(t *testing.T) {
	tier, mr := newTestTier(t)
	ctx := context.Background()

	require.NoError(t, tier.Set(ctx, "k", []byte("v"), 0))

	assert.True(t, mr.Exists("methodcache:k"), "keys must carry the prefix in Redis")
	assert.False(t, mr.Exists("k"))
}

func TestTier_Remove(t *testing.T) {
	tier, _ := newTestTier(t)
	ctx := context.Background()

	require.NoError(t, tier.Set(ctx, "k", []byte("v"), 0))
	require.NoError(t, tier.Remove(ctx, "k"))

	_, hit, err := tier.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, hit)

	// Removing an absent key is a no-op.
	require.NoError(t, tier.Remove(ctx, "k"))
}

func TestTier_RemoveByTag(t *testing.T) {
	tier, mr := newTestTier(t)
	ctx := context.Background()

	require.NoError(t, tier.Set(ctx, "a", []byte("1"), 0, "users", "orders"))
	require.NoError(t, tier.Set(ctx, "b", []byte("2"), 0, "users"))
	require.NoError(t, tier.Set(ctx, "c", []byte("3"), 0, "orders"))

	require.NoError(t, tier.RemoveByTag(ctx, "users"))

	for key, want := range map[string]bool{"a": false, "b": false, "c": true} {
		_, hit, err := tier.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, want, hit, "key %s", key)
	}
	assert.False(t, mr.Exists("methodcache:tag:users"), "the tag set itself must be deleted")
	assert.True(t, mr.Exists("methodcache:tag:orders"))

	// An empty or absent tag is a no-op.
	require.NoError(t, tier.RemoveByTag(ctx, "nope"))
}

func TestTier_TTL(t *testing.T) {
	tier, mr := newTestTier(t)
	ctx := context.Background()

	require.NoError(t, tier.Set(ctx, "k", []byte("v"), 50*time.Millisecond))
	mr.FastForward(100 * time.Millisecond)

	_, hit, err := tier.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, hit, "entry must expire server-side")
}

func TestTier_HealthCheck(t *testing.T) {
	tier, mr := newTestTier(t)

	require.NoError(t, tier.HealthCheck(context.Background()))

	mr.Close()
	assert.Error(t, tier.HealthCheck(context.Background()))
}

func TestNewWithClient_DoesNotOwnClient(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	tier := NewWithClient(client, "")
	require.NoError(t, tier.Set(context.Background(), "k", []byte("v"), 0))
	require.NoError(t, tier.Close())

	// The shared client survives the tier's Close.
	_, hit, err := tier.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestNew_ConnectFailure(t *testing.T) {
	_, err := New(&Config{Address: "127.0.0.1:1"})
	require.Error(t, err)

	_, err = New(nil)
	require.Error(t, err)
}
