package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/secondlife-exchange/exchange/pkg/config"
)

func newTestConfig(url string) *config.Config {
	return &config.Config{
		RedisURL: url,
	}
}

func TestNewRedisClient_InvalidURL(t *testing.T) {
	_, err := NewRedisClient(newTestConfig("not-a-valid-url"))
	if err == nil {
		t.Fatal("expected error for invalid URL, got nil")
	}
}

func TestNewRedisClient_UnreachableHost(t *testing.T) {
	_, err := NewRedisClient(newTestConfig("redis://localhost:19999"))
	if err == nil {
		t.Fatal("expected error when Redis is unreachable, got nil")
	}
}

// Integration tests: skipped unless REDIS_URL is set.
func TestRedisIntegration(t *testing.T) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		t.Skip("REDIS_URL not set; skipping integration tests")
	}

	t.Run("NewRedisClient_Success", func(t *testing.T) {
		rc, err := NewRedisClient(newTestConfig(redisURL))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer rc.Close() //nolint:errcheck
	})

	t.Run("Ping_Success", func(t *testing.T) {
		rc, err := NewRedisClient(newTestConfig(redisURL))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer rc.Close() //nolint:errcheck

		if err := rc.Ping(context.Background()); err != nil {
			t.Fatalf("Ping failed: %v", err)
		}
	})

	t.Run("Close_Idempotent", func(t *testing.T) {
		rc, err := NewRedisClient(newTestConfig(redisURL))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := rc.Close(); err != nil {
			t.Fatalf("first Close failed: %v", err)
		}
	})

	t.Run("Client_NotNil", func(t *testing.T) {
		rc, err := NewRedisClient(newTestConfig(redisURL))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer rc.Close() //nolint:errcheck

		if rc.Client() == nil {
			t.Fatal("expected non-nil underlying client")
		}
	})
}

func TestApplyPoolConfig(t *testing.T) {
	tests := []struct {
		name        string
		cfg         config.Config
		wantPool    int
		wantIdle    int
		wantTimeout time.Duration
	}{
		{"defaults", config.Config{}, 0, 0, 3 * time.Second},
		{"configured", config.Config{RedisPoolSize: 20, RedisTimeout: time.Second}, 20, 4, time.Second},
		{"small pool keeps one idle", config.Config{RedisPoolSize: 3}, 3, 1, 3 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := &redis.Options{}
			applyPoolConfig(opts, &tt.cfg)
			if opts.PoolSize != tt.wantPool || opts.MinIdleConns != tt.wantIdle {
				t.Errorf("pool=%d idle=%d, want %d/%d", opts.PoolSize, opts.MinIdleConns, tt.wantPool, tt.wantIdle)
			}
			if opts.ReadTimeout != tt.wantTimeout || opts.DialTimeout != 2*tt.wantTimeout {
				t.Errorf("read=%v dial=%v, want %v", opts.ReadTimeout, opts.DialTimeout, tt.wantTimeout)
			}
		})
	}
}

func TestCacheKeys(t *testing.T) {
	if got := NewItemCache(nil).Key("abc"); got != "item:abc" {
		t.Errorf("item key: got %q", got)
	}
	if got := NewPreferencesCache(nil).Key("u1"); got != "prefs:u1" {
		t.Errorf("prefs key: got %q", got)
	}
}

func TestJSONCacheIntegration(t *testing.T) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		t.Skip("REDIS_URL not set; skipping integration tests")
	}

	rc, err := NewRedisClient(newTestConfig(redisURL))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer rc.Close() //nolint:errcheck

	ctx := context.Background()
	c := NewPreferencesCache(rc)
	userID := uuid.New()

	if _, err := c.Get(ctx, userID.String()); !errors.Is(err, redis.Nil) {
		t.Fatalf("expected redis.Nil on miss, got %v", err)
	}

	want := &CachedPreferences{
		UserID:              userID,
		PreferredCategories: []string{"BOOKS", "ELECTRONICS"},
		PreferredConditions: []string{"NEW"},
		Country:             "FR",
		UpdatedAt:           time.Now().UTC().Truncate(time.Millisecond),
	}
	if err := c.Set(ctx, userID.String(), want); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := c.Get(ctx, userID.String())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Country != "FR" || len(got.PreferredCategories) != 2 || !got.UpdatedAt.Equal(want.UpdatedAt) {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	if err := c.Delete(ctx, userID.String()); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := c.Get(ctx, userID.String()); !errors.Is(err, redis.Nil) {
		t.Fatalf("expected redis.Nil after delete, got %v", err)
	}
}

func TestJSONCacheTombstone(t *testing.T) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		t.Skip("REDIS_URL not set; skipping integration tests")
	}

	rc, err := NewRedisClient(newTestConfig(redisURL))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer rc.Close() //nolint:errcheck

	ctx := context.Background()
	c := NewPreferencesCache(rc)
	id := uuid.NewString()
	stale := &CachedPreferences{Country: "DE"}

	if err := c.Invalidate(ctx, id, time.Second); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, err := c.Get(ctx, id); !errors.Is(err, redis.Nil) {
		t.Fatalf("expected tombstone to read as a miss, got %v", err)
	}
	if ok, err := c.Fill(ctx, id, stale); err != nil || ok {
		t.Fatalf("fill over tombstone: ok=%v err=%v, want false", ok, err)
	}

	time.Sleep(1100 * time.Millisecond)
	if ok, err := c.Fill(ctx, id, stale); err != nil || !ok {
		t.Fatalf("fill after tombstone expiry: ok=%v err=%v, want true", ok, err)
	}
	got, err := c.Get(ctx, id)
	if err != nil || got.Country != "DE" {
		t.Fatalf("get after fill: %+v, %v", got, err)
	}
	_ = c.Delete(ctx, id)
}
