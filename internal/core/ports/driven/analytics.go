package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/phonematch-core/internal/core/domain"
)

// AnalyticsSink receives search events. Failures never affect the search response.
type AnalyticsSink interface {
	Record(ctx context.Context, event *domain.SearchEvent) error
}

// QueuedEvent is an analytics event read from the queue
type QueuedEvent struct {
	// MessageID identifies the queue entry for Ack
	MessageID string

	Event *domain.SearchEvent
}

// AnalyticsQueue buffers search events until a worker persists them (Redis streams)
type AnalyticsQueue interface {
	AnalyticsSink

	// DequeueWithTimeout retrieves the next event, waiting up to timeout seconds.
	// Returns nil, nil if timeout is reached with no events available.
	DequeueWithTimeout(ctx context.Context, timeout int) (*QueuedEvent, error)

	// Ack removes a processed event from the pending list
	Ack(ctx context.Context, messageID string) error

	// Ping checks if the queue backend is healthy
	Ping(ctx context.Context) error

	// Close cleans up resources
	Close() error
}

// AnalyticsStore persists search events (search_analytics table)
type AnalyticsStore interface {
	Save(ctx context.Context, event *domain.SearchEvent) error
}

// AnalyticsRetention deletes old search events
type AnalyticsRetention interface {
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
