package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/phonematch-core/internal/core/domain"
)

// SearchCache stores merged search results keyed by the canonical request key.
// Implementations can use Redis (shared) or process memory (single instance).
type SearchCache interface {
	// Get returns the entry for key.
	// Returns nil, nil on a miss or when the entry has expired.
	Get(ctx context.Context, key string) (*domain.CacheEntry, error)

	// Set stores the entry, replacing any previous value for its key.
	// The entry expires ttl after insertion.
	Set(ctx context.Context, entry *domain.CacheEntry, ttl time.Duration) error

	// Flush drops every cached entry
	Flush(ctx context.Context) error

	// Ping checks if the cache backend is healthy
	Ping(ctx context.Context) error
}
