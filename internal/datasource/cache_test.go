package datasource

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestCacheKey(t *testing.T) {
	a := CacheKey("orders", map[string]any{"region": "eu", "limit": 10})
	b := CacheKey("orders", map[string]any{"limit": 10, "region": "eu"})
	if a != b {
		t.Errorf("key depends on map order: %s vs %s", a, b)
	}
	if !strings.HasPrefix(a, "orders:") || len(a) != len("orders:")+32 {
		t.Errorf("unexpected key format %q", a)
	}

	if CacheKey("orders", nil) == CacheKey("users", nil) {
		t.Error("different configs share a key")
	}
	if a == CacheKey("orders", map[string]any{"region": "us", "limit": 10}) {
		t.Error("different params share a key")
	}
	if CacheKey("orders", nil) != CacheKey("orders", map[string]any{}) {
		t.Error("nil and empty params should share a key")
	}
	if k := CacheKey("orders:eu", nil); strings.HasPrefix(k, "orders:") {
		t.Errorf("key %q of orders:eu falls under the orders prefix", k)
	}
}

// cacheSuite exercises the Cache contract.
func cacheSuite(t *testing.T, c Cache, expire func(time.Duration)) {
	ctx := context.Background()
	k1 := CacheKey("orders", map[string]any{"a": 1})
	k2 := CacheKey("orders", map[string]any{"a": 2})
	k3 := CacheKey("users", nil)
	k4 := CacheKey("orders:eu", nil)
	k5 := CacheKey("orders*", nil)

	if _, ok, err := c.Get(ctx, k1); err != nil || ok {
		t.Fatalf("Get on empty cache = %v, %v", ok, err)
	}

	for _, k := range []string{k1, k2, k3, k4, k5} {
		if err := c.Set(ctx, k, []byte(`{"v":1}`), time.Minute); err != nil {
			t.Fatalf("Set: %v", err)
		}
	}
	v, ok, err := c.Get(ctx, k1)
	if err != nil || !ok || string(v) != `{"v":1}` {
		t.Fatalf("Get = %q, %v, %v", v, ok, err)
	}

	if err := c.Invalidate(ctx, "orders"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	for _, k := range []string{k1, k2} {
		if _, ok, _ := c.Get(ctx, k); ok {
			t.Errorf("%s survived invalidation", k)
		}
	}
	for _, k := range []string{k3, k4, k5} {
		if _, ok, _ := c.Get(ctx, k); !ok {
			t.Errorf("invalidation dropped another config's entry %s", k)
		}
	}

	if err := c.Set(ctx, k1, []byte(`1`), time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}
	expire(2 * time.Second)
	if _, ok, _ := c.Get(ctx, k1); ok {
		t.Error("entry survived its TTL")
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Hour)
	defer c.Close()

	now := time.Now()
	c.now = func() time.Time { return now }

	cacheSuite(t, c, func(d time.Duration) { now = now.Add(d) })
}

func TestRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := NewRedisCacheWithClient(client, "compass:")
	defer c.Close()

	cacheSuite(t, c, mr.FastForward)

	if err := c.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestNewRedisCache_BadURL(t *testing.T) {
	if _, err := NewRedisCache(context.Background(), "://nope", ""); err == nil {
		t.Error("expected error for malformed URL")
	}
}
