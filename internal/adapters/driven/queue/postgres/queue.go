package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/phonematch-core/internal/core/domain"
	"github.com/custodia-labs/phonematch-core/internal/core/ports/driven"
)

// Ensure Queue implements AnalyticsQueue
var _ driven.AnalyticsQueue = (*Queue)(nil)

const (
	// How long a claimed event stays invisible to other workers
	defaultClaimTimeout = 5 * time.Minute

	// Poll interval while waiting for events
	pollInterval = 250 * time.Millisecond
)

// Config configures the PostgreSQL analytics queue
type Config struct {
	// RatePerSec and Burst bound how many events Record accepts.
	// RatePerSec <= 0 disables the limit.
	RatePerSec float64
	Burst      int

	// ClaimTimeout is how long a dequeued event may stay unacknowledged
	// before another worker picks it up again
	ClaimTimeout time.Duration
}

// Queue implements AnalyticsQueue using PostgreSQL with SKIP LOCKED.
// This is the fallback queue when Redis is not available.
type Queue struct {
	db           *sql.DB
	limiter      *rate.Limiter
	claimTimeout time.Duration
}

// NewQueue creates a new PostgreSQL-backed analytics queue.
// Call EnsureSchema before first use.
func NewQueue(db *sql.DB, cfg Config) *Queue {
	if cfg.ClaimTimeout <= 0 {
		cfg.ClaimTimeout = defaultClaimTimeout
	}
	limit := rate.Inf
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = max(1, int(cfg.RatePerSec))
	}
	return &Queue{
		db:           db,
		limiter:      rate.NewLimiter(limit, burst),
		claimTimeout: cfg.ClaimTimeout,
	}
}

// EnsureSchema creates the queue table. Safe to run multiple times.
func (q *Queue) EnsureSchema(ctx context.Context) error {
	if _, err := q.db.ExecContext(ctx, CreateQueueTableSQL); err != nil {
		return fmt.Errorf("create analytics queue table: %w", err)
	}
	return nil
}

// Record enqueues an event. Events over the rate budget are dropped.
func (q *Queue) Record(ctx context.Context, event *domain.SearchEvent) error {
	if event == nil {
		return errors.New("event is required")
	}
	if !q.limiter.Allow() {
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	_, err = q.db.ExecContext(ctx,
		`INSERT INTO analytics_queue (payload, visible_at) VALUES ($1, NOW())`,
		payload,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// DequeueWithTimeout retrieves the next event, polling up to timeout seconds.
// Returns nil, nil if no event becomes available in time.
func (q *Queue) DequeueWithTimeout(ctx context.Context, timeout int) (*driven.QueuedEvent, error) {
	deadline := time.Now().Add(time.Duration(timeout) * time.Second)
	for {
		ev, err := q.dequeue(ctx)
		if err != nil || ev != nil {
			return ev, err
		}
		if !time.Now().Before(deadline) {
			return nil, nil
		}

		select {
		case <-ctx.Done():
			return nil, nil
		case <-time.After(pollInterval):
		}
	}
}

// dequeue claims one visible event. A claimed event becomes visible again
// after the claim timeout unless it is acknowledged first.
func (q *Queue) dequeue(ctx context.Context) (*driven.QueuedEvent, error) {
	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var id int64
	var payload []byte
	err = tx.QueryRowContext(ctx, `
		SELECT id, payload
		FROM analytics_queue
		WHERE visible_at <= NOW()
		ORDER BY id ASC
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	`).Scan(&id, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select event: %w", err)
	}

	var event domain.SearchEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		// Malformed rows would be redelivered forever
		if _, err := tx.ExecContext(ctx, `DELETE FROM analytics_queue WHERE id = $1`, id); err != nil {
			return nil, fmt.Errorf("drop malformed event: %w", err)
		}
		return nil, tx.Commit()
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE analytics_queue
		SET visible_at = NOW() + $1::double precision * INTERVAL '1 millisecond', attempts = attempts + 1
		WHERE id = $2
	`, q.claimTimeout.Milliseconds(), id)
	if err != nil {
		return nil, fmt.Errorf("claim event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return &driven.QueuedEvent{MessageID: strconv.FormatInt(id, 10), Event: &event}, nil
}

// Ack deletes a processed event
func (q *Queue) Ack(ctx context.Context, messageID string) error {
	id, err := strconv.ParseInt(messageID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid message id %q: %w", messageID, err)
	}

	result, err := q.db.ExecContext(ctx, `DELETE FROM analytics_queue WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Len returns the number of queued events, claimed ones included
func (q *Queue) Len(ctx context.Context) (int64, error) {
	var n int64
	if err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM analytics_queue`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

// Ping checks database connectivity
func (q *Queue) Ping(ctx context.Context) error {
	return q.db.PingContext(ctx)
}

// Close is a no-op for the Postgres queue (db connection managed externally)
func (q *Queue) Close() error {
	return nil
}

// CreateQueueTableSQL creates the analytics queue table
const CreateQueueTableSQL = `
CREATE TABLE IF NOT EXISTS analytics_queue (
    id          BIGSERIAL PRIMARY KEY,
    payload     JSONB NOT NULL,
    attempts    INTEGER NOT NULL DEFAULT 0,
    visible_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_analytics_queue_visible ON analytics_queue (visible_at, id);
`
