// Package redis adapts a Redis server to the remote.Tier contract.
// Tag memberships are kept in per-tag Redis sets so RemoveByTag is native:
// one SMEMBERS plus a bulk DEL.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/methodcache/methodcache/remote"
)

// Config holds connection settings for the Redis tier.
type Config struct {
	Address  string
	Password string
	DB       int
	PoolSize int
	// KeyPrefix isolates this cache's keyspace ("methodcache:" by default).
	KeyPrefix string
}

// Tier is the Redis-backed remote tier.
type Tier struct {
	rdb    *redis.Client
	prefix string
	owned  bool // whether Close should close the client
}

// New connects to Redis and verifies the connection with a ping.
func New(cfg *Config) (*Tier, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis: config is required")
	}
	if cfg.Address == "" {
		cfg.Address = "localhost:6379"
	}
	if cfg.PoolSize == 0 {
		cfg.PoolSize = 10
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "methodcache:"
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: connect %s: %w", cfg.Address, err)
	}

	return &Tier{rdb: rdb, prefix: cfg.KeyPrefix, owned: true}, nil
}

// NewWithClient wraps an existing client (shared pools, tests).
// Close will not close the client.
func NewWithClient(client *redis.Client, keyPrefix string) *Tier {
	if keyPrefix == "" {
		keyPrefix = "methodcache:"
	}
	return &Tier{rdb: client, prefix: keyPrefix}
}

// Get implements remote.Tier.
func (t *Tier) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := t.rdb.Get(ctx, t.prefix+key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis: get: %w", err)
	}
	return data, true, nil
}

// Set implements remote.Tier. The value write and every tag-set update go
// out in one pipeline.
func (t *Tier) Set(ctx context.Context, key string, value []byte, ttl time.Duration, tags ...string) error {
	if ttl < 0 {
		ttl = 0
	}
	pipe := t.rdb.Pipeline()
	pipe.Set(ctx, t.prefix+key, value, ttl)
	for _, tag := range tags {
		pipe.SAdd(ctx, t.tagKey(tag), key)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set: %w", err)
	}
	return nil
}

// Remove implements remote.Tier. Stale tag-set members left behind are
// harmless: RemoveByTag deletes absent keys as a no-op.
func (t *Tier) Remove(ctx context.Context, key string) error {
	if err := t.rdb.Del(ctx, t.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis: remove: %w", err)
	}
	return nil
}

// RemoveByTag implements remote.Tier.
func (t *Tier) RemoveByTag(ctx context.Context, tag string) error {
	members, err := t.rdb.SMembers(ctx, t.tagKey(tag)).Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("redis: remove by tag: %w", err)
	}
	keys := make([]string, 0, len(members)+1)
	for _, m := range members {
		keys = append(keys, t.prefix+m)
	}
	keys = append(keys, t.tagKey(tag))
	if err := t.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis: remove by tag: %w", err)
	}
	return nil
}

// HealthCheck implements remote.Tier.
func (t *Tier) HealthCheck(ctx context.Context) error {
	if err := t.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: ping: %w", err)
	}
	return nil
}

// Close implements remote.Tier.
func (t *Tier) Close() error {
	if !t.owned {
		return nil
	}
	return t.rdb.Close()
}

func (t *Tier) tagKey(tag string) string {
	return t.prefix + "tag:" + tag
}

var _ remote.Tier = (*Tier)(nil)
