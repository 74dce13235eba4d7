package mocks

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/phonematch-core/internal/core/domain"
)

// MockRecordStore is an in-memory RecordStore that evaluates predicates directly
type MockRecordStore struct {
	mu      sync.RWMutex
	records map[domain.Category][]*domain.Record
	errs    map[domain.Category]error
	calls   map[domain.Category]int
}

// NewMockRecordStore creates a new MockRecordStore
func NewMockRecordStore() *MockRecordStore {
	return &MockRecordStore{
		records: make(map[domain.Category][]*domain.Record),
		errs:    make(map[domain.Category]error),
		calls:   make(map[domain.Category]int),
	}
}

// Add stores records under category
func (m *MockRecordStore) Add(category domain.Category, records ...*domain.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[category] = append(m.records[category], records...)
}

// FailOn makes every scan of category return err
func (m *MockRecordStore) FailOn(category domain.Category, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[category] = err
}

// Calls returns how many scans hit category
func (m *MockRecordStore) Calls(category domain.Category) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls[category]
}

func (m *MockRecordStore) Scan(ctx context.Context, category domain.Category, pred domain.Predicate, order domain.Order, limit int) ([]*domain.Record, error) {
	if !category.IsValid() {
		return nil, fmt.Errorf("%w: unknown category %q", domain.ErrInvalidInput, category)
	}
	m.mu.Lock()
	m.calls[category]++
	err := m.errs[category]
	all := m.records[category]
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var out []*domain.Record
	for _, r := range all {
		if pred == nil || pred.Matches(r) {
			out = append(out, r)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return less(out[i], out[j], order)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockRecordStore) Ping(ctx context.Context) error {
	return nil
}

func less(a, b *domain.Record, order domain.Order) bool {
	for _, key := range order {
		c := compare(a, b, key.Field)
		if c == 0 {
			continue
		}
		if key.Desc {
			return c > 0
		}
		return c < 0
	}
	return false
}

func compare(a, b *domain.Record, f domain.Field) int {
	if ta, ok := a.TimeValue(f); ok {
		tb, _ := b.TimeValue(f)
		return ta.Compare(tb)
	}
	if fa, ok := a.FloatValue(f); ok {
		fb, _ := b.FloatValue(f)
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}
	return strings.Compare(strings.ToLower(a.StringValue(f)), strings.ToLower(b.StringValue(f)))
}
