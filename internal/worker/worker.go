package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/custodia-labs/phonematch-core/internal/core/ports/driven"
	"github.com/custodia-labs/phonematch-core/internal/core/services"
)

// Worker drains the analytics queue into the analytics store.
// Events that fail to persist stay pending on the queue and are reclaimed later.
type Worker struct {
	queue     driven.AnalyticsQueue
	store     driven.AnalyticsStore
	scheduler *services.RetentionScheduler
	logger    *slog.Logger

	// Configuration
	concurrency    int
	dequeueTimeout int // seconds

	// Internal state
	mu      sync.RWMutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// WorkerConfig holds configuration for the worker.
type WorkerConfig struct {
	Queue          driven.AnalyticsQueue
	Store          driven.AnalyticsStore
	Scheduler      *services.RetentionScheduler // Optional: purges old events
	Logger         *slog.Logger
	Concurrency    int // Number of concurrent event processors
	DequeueTimeout int // Seconds to wait for an event before checking again
}

// NewWorker creates a new analytics worker.
func NewWorker(cfg WorkerConfig) *Worker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	dequeueTimeout := cfg.DequeueTimeout
	if dequeueTimeout <= 0 {
		dequeueTimeout = 5
	}

	return &Worker{
		queue:          cfg.Queue,
		store:          cfg.Store,
		scheduler:      cfg.Scheduler,
		logger:         logger,
		concurrency:    concurrency,
		dequeueTimeout: dequeueTimeout,
	}
}

// Start begins the worker loop.
// It runs until Stop is called or context is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	w.logger.Info("worker starting",
		"concurrency", w.concurrency,
		"dequeue_timeout", w.dequeueTimeout,
	)

	if w.scheduler != nil {
		if err := w.scheduler.Start(ctx); err != nil {
			w.logger.Error("failed to start retention scheduler", "error", err)
		}
	}

	var wg sync.WaitGroup
	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			w.processLoop(ctx, workerID)
		}(i)
	}

	go func() {
		wg.Wait()
		close(w.doneCh)
	}()

	return nil
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	close(w.stopCh)
	w.mu.Unlock()

	if w.scheduler != nil {
		w.scheduler.Stop()
	}

	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("worker stopped")
}

// Wait blocks until the worker stops.
func (w *Worker) Wait() {
	<-w.doneCh
}

func (w *Worker) processLoop(ctx context.Context, workerID int) {
	logger := w.logger.With("worker_id", workerID)
	logger.Info("worker goroutine started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("worker context cancelled")
			return
		case <-w.stopCh:
			logger.Info("worker stop signal received")
			return
		default:
		}

		queued, err := w.queue.DequeueWithTimeout(ctx, w.dequeueTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			logger.Error("failed to dequeue event", "error", err)
			w.backoff(ctx)
			continue
		}

		if queued == nil {
			continue
		}

		w.processEvent(ctx, queued, logger)
	}
}

// processEvent persists one event and acks it.
func (w *Worker) processEvent(ctx context.Context, queued *driven.QueuedEvent, logger *slog.Logger) {
	logger = logger.With("message_id", queued.MessageID, "event_id", queued.Event.ID)

	if err := w.store.Save(ctx, queued.Event); err != nil {
		logger.Error("failed to persist search event", "error", err)
		return
	}

	if err := w.queue.Ack(ctx, queued.MessageID); err != nil {
		logger.Error("failed to ack search event", "ack_error", err)
		return
	}

	logger.Debug("search event persisted")
}

func (w *Worker) backoff(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-w.stopCh:
	case <-time.After(time.Second):
	}
}

// Health reports the worker state.
type Health struct {
	Running     bool   `json:"running"`
	QueueHealth bool   `json:"queue_health"`
	Error       string `json:"error,omitempty"`
}

// Health returns the health status of the worker.
func (w *Worker) Health(ctx context.Context) Health {
	w.mu.RLock()
	running := w.running
	w.mu.RUnlock()

	health := Health{
		Running: running,
	}

	if err := w.queue.Ping(ctx); err != nil {
		health.QueueHealth = false
		health.Error = err.Error()
	} else {
		health.QueueHealth = true
	}

	return health
}
