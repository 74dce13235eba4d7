package redis

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/blake2b"

	"github.com/custodia-labs/phonematch-core/internal/core/domain"
	"github.com/custodia-labs/phonematch-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.SearchCache = (*SearchCache)(nil)

const (
	// searchCachePrefix namespaces cached search results
	searchCachePrefix = "phonematch:search:"

	flushBatchSize = 500
)

// SearchCache implements driven.SearchCache using Redis.
// Entries use Redis TTL for expiration; keys are blake2b digests of the
// canonical request key so arbitrary query text never reaches the keyspace.
type SearchCache struct {
	client *redis.Client
}

// NewSearchCache creates a new Redis-backed SearchCache
func NewSearchCache(client *redis.Client) *SearchCache {
	return &SearchCache{client: client}
}

// redisKey maps a canonical cache key to its Redis key
func redisKey(key string) string {
	sum := blake2b.Sum256([]byte(key))
	return searchCachePrefix + hex.EncodeToString(sum[:])
}

// Get retrieves the entry for key; a missing key is a miss, not an error
func (c *SearchCache) Get(ctx context.Context, key string) (*domain.CacheEntry, error) {
	data, err := c.client.Get(ctx, redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get search cache entry: %w", err)
	}

	var entry domain.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal search cache entry: %w", err)
	}
	return &entry, nil
}

// Set stores the entry with TTL
func (c *SearchCache) Set(ctx context.Context, entry *domain.CacheEntry, ttl time.Duration) error {
	if entry == nil {
		return errors.New("cache entry is required")
	}
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal search cache entry: %w", err)
	}

	if err := c.client.Set(ctx, redisKey(entry.Key), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set search cache entry: %w", err)
	}
	return nil
}

// Flush deletes every search cache key
func (c *SearchCache) Flush(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, searchCachePrefix+"*", flushBatchSize).Iterator()

	batch := make([]string, 0, flushBatchSize)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == flushBatchSize {
			if err := c.client.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("failed to flush search cache: %w", err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan search cache: %w", err)
	}

	if len(batch) > 0 {
		if err := c.client.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("failed to flush search cache: %w", err)
		}
	}
	return nil
}

// Ping checks if the Redis backend is healthy
func (c *SearchCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
