// Package memory provides process-local adapters for single-instance deployments.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/custodia-labs/phonematch-core/internal/core/domain"
	"github.com/custodia-labs/phonematch-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.SearchCache = (*SearchCache)(nil)

const defaultMaxEntries = 1000

// SearchCacheConfig configures the in-memory cache
type SearchCacheConfig struct {
	// MaxEntries bounds the cache; the least recently used entry is evicted first
	MaxEntries int

	// DisableJanitor stops the background expiry loop from starting
	DisableJanitor bool

	// Clock decides entry expiry on lookup. Defaults to the system clock.
	Clock driven.Clock
}

// SearchCache is a size-bounded TTL cache backed by ttlcache.
// Expiry on lookup follows the injected clock; the janitor reclaims memory
// on wall-clock time.
type SearchCache struct {
	cache *ttlcache.Cache[string, *domain.CacheEntry]
	clock driven.Clock

	started  bool
	stopOnce sync.Once
}

// NewSearchCache creates an in-memory SearchCache and starts its janitor
func NewSearchCache(cfg SearchCacheConfig) *SearchCache {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = defaultMaxEntries
	}
	if cfg.Clock == nil {
		cfg.Clock = driven.SystemClock{}
	}

	c := &SearchCache{
		cache: ttlcache.New[string, *domain.CacheEntry](
			ttlcache.WithCapacity[string, *domain.CacheEntry](uint64(cfg.MaxEntries)),
			ttlcache.WithDisableTouchOnHit[string, *domain.CacheEntry](),
		),
		clock: cfg.Clock,
	}
	if !cfg.DisableJanitor {
		c.started = true
		go c.cache.Start()
	}
	return c
}

// Get returns the entry for key, or nil when absent or expired
func (c *SearchCache) Get(ctx context.Context, key string) (*domain.CacheEntry, error) {
	item := c.cache.Get(key)
	if item == nil {
		return nil, nil
	}
	entry := item.Value()
	if entry.IsExpired(c.clock.Now()) {
		c.cache.Delete(key)
		return nil, nil
	}
	return entry, nil
}

// Set stores a copy of entry expiring ttl from now
func (c *SearchCache) Set(ctx context.Context, entry *domain.CacheEntry, ttl time.Duration) error {
	if entry == nil {
		return errors.New("cache entry is required")
	}
	if ttl <= 0 {
		return nil
	}

	stored := *entry
	stored.ExpiresAt = c.clock.Now().Add(ttl)
	c.cache.Set(entry.Key, &stored, ttl)
	return nil
}

// Flush drops every entry
func (c *SearchCache) Flush(ctx context.Context) error {
	c.cache.DeleteAll()
	return nil
}

// Ping always succeeds
func (c *SearchCache) Ping(ctx context.Context) error {
	return nil
}

// Len returns the number of stored entries
func (c *SearchCache) Len() int {
	return c.cache.Len()
}

// RemoveExpired deletes every entry expired at the clock's now and returns how many were removed
func (c *SearchCache) RemoveExpired() int {
	now := c.clock.Now()
	removed := 0
	for key, item := range c.cache.Items() {
		if item.Value().IsExpired(now) {
			c.cache.Delete(key)
			removed++
		}
	}
	return removed
}

// Close stops the janitor
func (c *SearchCache) Close() error {
	c.stopOnce.Do(func() {
		if c.started {
			c.cache.Stop()
		}
	})
	return nil
}
