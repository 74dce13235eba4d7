package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/phonematch-core/internal/core/domain"
)

// MockAnalyticsSink records every event it receives
type MockAnalyticsSink struct {
	mu     sync.Mutex
	events []*domain.SearchEvent
	err    error
	notify chan struct{}
	gate   <-chan struct{}
}

// NewMockAnalyticsSink creates a new MockAnalyticsSink
func NewMockAnalyticsSink() *MockAnalyticsSink {
	return &MockAnalyticsSink{notify: make(chan struct{}, 64)}
}

// SetError makes Record fail after storing the event
func (m *MockAnalyticsSink) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// HoldUntil makes Record wait for gate to close (or ctx to end) before storing
func (m *MockAnalyticsSink) HoldUntil(gate <-chan struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gate = gate
}

func (m *MockAnalyticsSink) Record(ctx context.Context, event *domain.SearchEvent) error {
	m.mu.Lock()
	gate := m.gate
	m.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	m.mu.Lock()
	m.events = append(m.events, event)
	err := m.err
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
	return err
}

// Save lets the mock stand in for an AnalyticsStore
func (m *MockAnalyticsSink) Save(ctx context.Context, event *domain.SearchEvent) error {
	return m.Record(ctx, event)
}

// Events returns a copy of the recorded events
func (m *MockAnalyticsSink) Events() []*domain.SearchEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.SearchEvent, len(m.events))
	copy(out, m.events)
	return out
}

// Notify signals once per recorded event
func (m *MockAnalyticsSink) Notify() <-chan struct{} {
	return m.notify
}
