package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/phonematch-core/internal/core/domain"
)

// MockSearchCache is a map-backed SearchCache
type MockSearchCache struct {
	mu      sync.RWMutex
	entries map[string]*domain.CacheEntry
	getErr  error
	setErr  error
	sets    int
}

// NewMockSearchCache creates a new MockSearchCache
func NewMockSearchCache() *MockSearchCache {
	return &MockSearchCache{entries: make(map[string]*domain.CacheEntry)}
}

// SetErrors makes Get and Set fail
func (m *MockSearchCache) SetErrors(getErr, setErr error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getErr, m.setErr = getErr, setErr
}

// Len returns the number of stored entries
func (m *MockSearchCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Sets returns the number of successful writes
func (m *MockSearchCache) Sets() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sets
}

func (m *MockSearchCache) Get(ctx context.Context, key string) (*domain.CacheEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.entries[key], nil
}

func (m *MockSearchCache) Set(ctx context.Context, entry *domain.CacheEntry, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.entries[entry.Key] = entry
	m.sets++
	return nil
}

func (m *MockSearchCache) Flush(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]*domain.CacheEntry)
	return nil
}

func (m *MockSearchCache) Ping(ctx context.Context) error {
	return nil
}
