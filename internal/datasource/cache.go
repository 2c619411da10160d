package datasource

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"
)

// Cache stores encoded page data. Keys are built by CacheKey so that every
// entry of a config shares the "<escaped configKey>:" prefix.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Invalidate drops every entry of configKey.
	Invalidate(ctx context.Context, configKey string) error
}

// CacheKey derives the cache key of a data request from the config key and
// the request parameters sorted by name.
func CacheKey(configKey string, params map[string]any) string {
	names := make([]string, 0, len(params))
	for k := range params {
		names = append(names, k)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(configKey)
	for _, k := range names {
		fmt.Fprintf(&b, "|%s=%v", k, params[k])
	}

	sum := md5.Sum([]byte(b.String()))
	return keyPrefix(configKey) + hex.EncodeToString(sum[:])
}

// keyPrefix escapes configKey so that no other key's prefix can start with
// it: "a:" never matches the entries of "a:b".
func keyPrefix(configKey string) string {
	return url.QueryEscape(configKey) + ":"
}

type cacheItem struct {
	value      []byte
	expiration time.Time
}

// MemoryCache is an in-process TTL cache.
type MemoryCache struct {
	mu    sync.RWMutex
	items map[string]*cacheItem
	now   func() time.Time

	stopCh chan struct{}
}

// NewMemoryCache creates a MemoryCache that drops expired entries every
// cleanupInterval.
func NewMemoryCache(cleanupInterval time.Duration) *MemoryCache {
	c := &MemoryCache{
		items:  make(map[string]*cacheItem),
		now:    time.Now,
		stopCh: make(chan struct{}),
	}
	go c.cleanupExpired(cleanupInterval)
	return c
}

// Get returns the live value of key.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()

	if !ok || c.now().After(item.expiration) {
		return nil, false, nil
	}
	return item.value, true, nil
}

// Set stores value for ttl.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = &cacheItem{
		value:      value,
		expiration: c.now().Add(ttl),
	}
	return nil
}

// Invalidate drops every entry of configKey.
func (c *MemoryCache) Invalidate(_ context.Context, configKey string) error {
	prefix := keyPrefix(configKey)

	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.items {
		if strings.HasPrefix(k, prefix) {
			delete(c.items, k)
		}
	}
	return nil
}

// Len returns the number of stored entries, expired or not.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *MemoryCache) cleanupExpired(interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := c.now()
			c.mu.Lock()
			for k, item := range c.items {
				if now.After(item.expiration) {
					delete(c.items, k)
				}
			}
			c.mu.Unlock()
		case <-c.stopCh:
			return
		}
	}
}

// Close stops the cleanup goroutine.
func (c *MemoryCache) Close() error {
	close(c.stopCh)
	return nil
}
