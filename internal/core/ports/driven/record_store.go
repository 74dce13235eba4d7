package driven

import (
	"context"

	"github.com/custodia-labs/phonematch-core/internal/core/domain"
)

// RecordStore reads lost and found reports from the relational store.
// The store translates logical fields to the category's physical columns.
type RecordStore interface {
	// Scan returns up to limit records of category that satisfy pred,
	// sorted by order. A limit <= 0 means no limit.
	Scan(ctx context.Context, category domain.Category, pred domain.Predicate, order domain.Order, limit int) ([]*domain.Record, error)

	// Ping checks if the store is reachable
	Ping(ctx context.Context) error
}
