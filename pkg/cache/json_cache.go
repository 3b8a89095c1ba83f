package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// tombstone marks a key recently invalidated by a write. Get reports it as a
// miss and Fill does not overwrite it until it expires.
const tombstone = "\x00tombstone"

// JSONCache stores values of T as JSON strings under "{prefix}:{id}".
// A miss (absent, expired or tombstoned key) is reported as redis.Nil so
// callers can distinguish it with errors.Is.
type JSONCache[T any] struct {
	client *RedisClient
	prefix string
	ttl    time.Duration
}

// NewJSONCache returns a JSONCache writing keys under prefix with the given TTL.
func NewJSONCache[T any](client *RedisClient, prefix string, ttl time.Duration) *JSONCache[T] {
	return &JSONCache[T]{client: client, prefix: prefix, ttl: ttl}
}

// Get returns the cached value for id.
func (c *JSONCache[T]) Get(ctx context.Context, id string) (*T, error) {
	raw, err := c.client.Client().Get(ctx, c.Key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, redis.Nil
		}
		return nil, fmt.Errorf("cache get %s: %w", c.prefix, err)
	}
	if string(raw) == tombstone {
		return nil, redis.Nil
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("cache decode %s: %w", c.prefix, err)
	}
	return &v, nil
}

// Set writes v for id with the cache TTL.
func (c *JSONCache[T]) Set(ctx context.Context, id string, v *T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", c.prefix, err)
	}
	if err := c.client.Client().Set(ctx, c.Key(id), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", c.prefix, err)
	}
	return nil
}

// Fill writes v for id only when the key is absent, so a read-through fill
// never replaces a newer value or a tombstone. It reports whether v was stored.
func (c *JSONCache[T]) Fill(ctx context.Context, id string, v *T) (bool, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return false, fmt.Errorf("cache encode %s: %w", c.prefix, err)
	}
	ok, err := c.client.Client().SetNX(ctx, c.Key(id), raw, c.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("cache fill %s: %w", c.prefix, err)
	}
	return ok, nil
}

// Invalidate replaces the cached value for id with a tombstone held for hold.
// Read-through fills started before the write cannot repopulate the key
// while the tombstone lives.
func (c *JSONCache[T]) Invalidate(ctx context.Context, id string, hold time.Duration) error {
	if err := c.client.Client().Set(ctx, c.Key(id), tombstone, hold).Err(); err != nil {
		return fmt.Errorf("cache invalidate %s: %w", c.prefix, err)
	}
	return nil
}

// Delete removes the cached value for id. Deleting a missing key is not an error.
func (c *JSONCache[T]) Delete(ctx context.Context, id string) error {
	if err := c.client.Client().Del(ctx, c.Key(id)).Err(); err != nil {
		return fmt.Errorf("cache delete %s: %w", c.prefix, err)
	}
	return nil
}

// Key builds the Redis key for id.
func (c *JSONCache[T]) Key(id string) string {
	return c.prefix + ":" + id
}
