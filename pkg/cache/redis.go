package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"

	"github.com/secondlife-exchange/exchange/pkg/config"
)

// RedisClient is the shared, instrumented connection pool behind the
// read-model caches and the session store.
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient dials cfg.RedisURL with OTel tracing and metrics attached
// and fails fast when the server does not answer a ping.
func NewRedisClient(cfg *config.Config) (*RedisClient, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	applyPoolConfig(opts, cfg)

	rdb := redis.NewClient(opts)
	if err := instrument(rdb); err != nil {
		_ = rdb.Close()
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(context.Background(), opts.DialTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisClient{client: rdb}, nil
}

// applyPoolConfig overrides the URL's pool settings with configured values.
// Zero values keep go-redis defaults.
func applyPoolConfig(opts *redis.Options, cfg *config.Config) {
	if cfg.RedisPoolSize > 0 {
		opts.PoolSize = cfg.RedisPoolSize
		opts.MinIdleConns = max(1, cfg.RedisPoolSize/5)
	}
	timeout := cfg.RedisTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	opts.MaxRetries = 3
	opts.DialTimeout = 2 * timeout
	opts.ReadTimeout = timeout
	opts.WriteTimeout = timeout
	opts.PoolTimeout = timeout + time.Second
}

func instrument(rdb *redis.Client) error {
	if err := redisotel.InstrumentTracing(rdb); err != nil {
		return fmt.Errorf("instrument redis tracing: %w", err)
	}
	if err := redisotel.InstrumentMetrics(rdb); err != nil {
		return fmt.Errorf("instrument redis metrics: %w", err)
	}
	return nil
}

// Ping checks the Redis connection health.
func (r *RedisClient) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Close gracefully shuts down the Redis connection pool.
func (r *RedisClient) Close() error {
	if r.client == nil {
		return nil
	}
	if err := r.client.Close(); err != nil {
		return fmt.Errorf("redis close: %w", err)
	}
	return nil
}

// Client returns the underlying redis.Client for direct use.
func (r *RedisClient) Client() *redis.Client {
	return r.client
}
