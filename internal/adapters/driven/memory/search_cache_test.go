package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/phonematch-core/internal/core/domain"
	"github.com/custodia-labs/phonematch-core/internal/core/ports/driven/mocks"
)

func newTestCache(t *testing.T, max int) (*SearchCache, *mocks.FakeClock) {
	clock := mocks.NewFakeClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	c := NewSearchCache(SearchCacheConfig{MaxEntries: max, DisableJanitor: true, Clock: clock})
	t.Cleanup(func() { _ = c.Close() })
	return c, clock
}

func entry(key string) *domain.CacheEntry {
	return &domain.CacheEntry{
		Key:     key,
		Results: domain.NewResultItems(domain.CategoryFound, []*domain.Record{{ID: 9, Email: "a@b.c"}}),
		Meta:    domain.SearchMeta{FoundCount: 1},
	}
}

func TestSearchCache_RoundTripAndTTL(t *testing.T) {
	c, clock := newTestCache(t, 10)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, entry("k"), 10*time.Minute))

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(9), got.Results[0].ID)
	assert.Equal(t, 1, got.Meta.FoundCount)

	clock.Advance(10*time.Minute - time.Second)
	got, _ = c.Get(ctx, "k")
	assert.NotNil(t, got)

	clock.Advance(time.Second)
	got, _ = c.Get(ctx, "k")
	assert.Nil(t, got, "lookup at expiry is a miss")
}

func TestSearchCache_Miss(t *testing.T) {
	c, _ := newTestCache(t, 10)
	got, err := c.Get(context.Background(), "none")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestSearchCache_ReplaceWholesale(t *testing.T) {
	c, _ := newTestCache(t, 10)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, entry("k"), time.Minute))
	replacement := entry("k")
	replacement.Meta.FoundCount = 5
	require.NoError(t, c.Set(ctx, replacement, time.Minute))

	got, _ := c.Get(ctx, "k")
	assert.Equal(t, 5, got.Meta.FoundCount)
	assert.Equal(t, 1, c.Len())
}

func TestSearchCache_Eviction(t *testing.T) {
	c, clock := newTestCache(t, 2)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, entry("a"), time.Minute))
	clock.Advance(time.Second)
	require.NoError(t, c.Set(ctx, entry("b"), time.Minute))
	got, _ := c.Get(ctx, "a")
	require.NotNil(t, got)
	require.NoError(t, c.Set(ctx, entry("c"), time.Minute))

	assert.Equal(t, 2, c.Len())
	got, _ = c.Get(ctx, "b")
	assert.Nil(t, got, "least recently used entry is evicted")
	got, _ = c.Get(ctx, "a")
	assert.NotNil(t, got)
}

func TestSearchCache_RemoveExpiredAndFlush(t *testing.T) {
	c, clock := newTestCache(t, 10)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, entry("short"), time.Second))
	require.NoError(t, c.Set(ctx, entry("long"), time.Hour))
	clock.Advance(time.Minute)

	assert.Equal(t, 1, c.RemoveExpired())
	assert.Equal(t, 1, c.Len())

	require.NoError(t, c.Flush(ctx))
	assert.Equal(t, 0, c.Len())
}

func TestSearchCache_Concurrent(t *testing.T) {
	c, _ := newTestCache(t, 50)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i%5)
			_ = c.Set(ctx, entry(key), time.Minute)
			_, _ = c.Get(ctx, key)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 5, c.Len())
}

func TestSearchCache_Janitor(t *testing.T) {
	c := NewSearchCache(SearchCacheConfig{})
	defer c.Close()

	require.NoError(t, c.Set(context.Background(), entry("k"), time.Millisecond))
	assert.Eventually(t, func() bool { return c.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestSearchCache_ExpiredLookupDropsEntry(t *testing.T) {
	c, clock := newTestCache(t, 10)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, entry("k"), time.Minute))
	clock.Advance(2 * time.Minute)

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, 0, c.Len())
}

func TestSearchCache_CloseWithoutJanitor(t *testing.T) {
	c := NewSearchCache(SearchCacheConfig{DisableJanitor: true})
	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}
