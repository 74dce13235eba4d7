package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/custodia-labs/phonematch-core/internal/core/ports/driven"
)

const retentionLockName = "analytics-retention"

// RetentionScheduler periodically purges search events older than the
// retention window.
//
// For multi-worker deployments, configure a DistributedLock so only one
// instance purges per cycle.
type RetentionScheduler struct {
	store  driven.AnalyticsRetention
	lock   driven.DistributedLock
	clock  driven.Clock
	logger *slog.Logger

	// Internal state
	mu       sync.RWMutex
	running  bool
	stopCh   chan struct{}
	doneCh   chan struct{}
	interval time.Duration

	retention time.Duration
	lockTTL   time.Duration
}

// RetentionSchedulerConfig holds configuration for the retention scheduler.
type RetentionSchedulerConfig struct {
	Store     driven.AnalyticsRetention
	Lock      driven.DistributedLock // Optional: distributed lock for multi-instance coordination
	Clock     driven.Clock           // Optional: defaults to the system clock
	Logger    *slog.Logger
	Retention time.Duration // Age after which events are purged (default: 90 days)
	Interval  time.Duration // How often to purge (default: 1h)
	LockTTL   time.Duration // TTL for the distributed lock (default: 5m)
}

// NewRetentionScheduler creates a new retention scheduler.
func NewRetentionScheduler(cfg RetentionSchedulerConfig) *RetentionScheduler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	clock := cfg.Clock
	if clock == nil {
		clock = driven.SystemClock{}
	}

	interval := cfg.Interval
	if interval == 0 {
		interval = time.Hour
	}

	retention := cfg.Retention
	if retention == 0 {
		retention = 90 * 24 * time.Hour
	}

	lockTTL := cfg.LockTTL
	if lockTTL == 0 {
		lockTTL = 5 * time.Minute
	}

	return &RetentionScheduler{
		store:     cfg.Store,
		lock:      cfg.Lock,
		clock:     clock,
		logger:    logger,
		interval:  interval,
		retention: retention,
		lockTTL:   lockTTL,
	}
}

// Start begins the purge loop.
// It runs until Stop is called or context is cancelled.
func (s *RetentionScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	s.logger.Info("retention scheduler starting", "interval", s.interval, "retention", s.retention)

	go s.run(ctx)

	return nil
}

// Stop gracefully stops the scheduler.
func (s *RetentionScheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	close(s.stopCh)
	s.mu.Unlock()

	<-s.doneCh

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	s.logger.Info("retention scheduler stopped")
}

// IsRunning returns whether the scheduler loop is active.
func (s *RetentionScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

func (s *RetentionScheduler) run(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Run immediately on start
	s.PurgeOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("retention scheduler context cancelled")
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.PurgeOnce(ctx)
		}
	}
}

// PurgeOnce deletes events older than the retention window.
// It returns the number of deleted events; a cycle skipped because another
// instance holds the lock returns 0.
func (s *RetentionScheduler) PurgeOnce(ctx context.Context) int64 {
	if s.lock != nil {
		acquired, err := s.lock.Acquire(ctx, retentionLockName, s.lockTTL)
		if err != nil {
			s.logger.Warn("failed to acquire retention lock", "error", err)
			return 0
		}
		if !acquired {
			s.logger.Debug("retention lock held by another instance, skipping cycle")
			return 0
		}
		defer func() {
			if err := s.lock.Release(ctx, retentionLockName); err != nil {
				s.logger.Warn("failed to release retention lock", "error", err)
			}
		}()
	}

	cutoff := s.clock.Now().Add(-s.retention)
	deleted, err := s.store.PurgeBefore(ctx, cutoff)
	if err != nil {
		s.logger.Error("failed to purge search events", "cutoff", cutoff, "error", err)
		return 0
	}
	if deleted > 0 {
		s.logger.Info("purged search events", "deleted", deleted, "cutoff", cutoff)
	}
	return deleted
}
