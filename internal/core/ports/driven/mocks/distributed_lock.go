package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/phonematch-core/internal/core/ports/driven"
)

var _ driven.DistributedLock = (*MockDistributedLock)(nil)

// MockDistributedLock is an in-memory DistributedLock. Expiry follows Clock,
// which defaults to the wall clock.
type MockDistributedLock struct {
	mu      sync.Mutex
	expiry  map[string]time.Time
	history []string

	Clock driven.Clock

	// AcquireFn overrides Acquire when set
	AcquireFn func(name string, ttl time.Duration) (bool, error)
	// PingErr is returned by Ping
	PingErr error
}

// NewMockDistributedLock creates an empty lock table
func NewMockDistributedLock() *MockDistributedLock {
	return &MockDistributedLock{
		expiry: make(map[string]time.Time),
		Clock:  driven.SystemClock{},
	}
}

func (m *MockDistributedLock) Acquire(_ context.Context, name string, ttl time.Duration) (bool, error) {
	if m.AcquireFn != nil {
		return m.AcquireFn(name, ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.Clock.Now()
	if until, ok := m.expiry[name]; ok && now.Before(until) {
		return false, nil
	}
	m.expiry[name] = now.Add(ttl)
	m.history = append(m.history, name)
	return true, nil
}

func (m *MockDistributedLock) Release(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.expiry, name)
	return nil
}

func (m *MockDistributedLock) Extend(_ context.Context, name string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.Clock.Now()
	until, ok := m.expiry[name]
	if !ok || !now.Before(until) {
		return fmt.Errorf("lock %s not held", name)
	}
	m.expiry[name] = now.Add(ttl)
	return nil
}

func (m *MockDistributedLock) Ping(context.Context) error {
	return m.PingErr
}

// IsHeld reports whether name is locked and unexpired
func (m *MockDistributedLock) IsHeld(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	until, ok := m.expiry[name]
	return ok && m.Clock.Now().Before(until)
}

// SetLockHeld marks name as held by another instance for ttl
func (m *MockDistributedLock) SetLockHeld(name string, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expiry[name] = m.Clock.Now().Add(ttl)
}

// Acquisitions returns the names of every successful Acquire, in order
func (m *MockDistributedLock) Acquisitions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.history...)
}
