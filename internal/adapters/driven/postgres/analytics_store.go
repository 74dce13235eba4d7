package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/custodia-labs/phonematch-core/internal/core/domain"
	"github.com/custodia-labs/phonematch-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.AnalyticsStore = (*AnalyticsStore)(nil)

// AnalyticsStore persists search events into search_analytics
type AnalyticsStore struct {
	db *DB
}

// NewAnalyticsStore creates a new AnalyticsStore
func NewAnalyticsStore(db *DB) *AnalyticsStore {
	return &AnalyticsStore{db: db}
}

// Save inserts an event. Saving the same event twice is a no-op.
func (s *AnalyticsStore) Save(ctx context.Context, event *domain.SearchEvent) error {
	filtersJSON, err := json.Marshal(event.Filters)
	if err != nil {
		return fmt.Errorf("failed to marshal filters: %w", err)
	}

	query := `
		INSERT INTO search_analytics (id, query_text, search_type, filters, result_count, response_time_ms, cache_hit, caller_ip, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING
	`

	_, err = s.db.ExecContext(ctx, query,
		event.ID,
		event.QueryText,
		string(event.SearchType),
		filtersJSON,
		event.ResultCount,
		event.ResponseTimeMs,
		event.CacheHit,
		NullString(event.CallerIP),
		NullString(event.UserAgent),
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save search event: %w", err)
	}
	return nil
}

// PurgeBefore deletes events created before cutoff and returns how many were removed
func (s *AnalyticsStore) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM search_analytics WHERE created_at < $1", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge search events: %w", err)
	}
	return res.RowsAffected()
}

// Count returns the number of stored events
func (s *AnalyticsStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM search_analytics").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count search events: %w", err)
	}
	return n, nil
}
