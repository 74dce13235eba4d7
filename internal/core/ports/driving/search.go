package driving

import (
	"context"

	"github.com/custodia-labs/phonematch-core/internal/core/domain"
)

// SearchService handles lost and found phone search
type SearchService interface {
	// Search runs one search across both categories.
	// Returns *domain.ValidationError for invalid filters and
	// domain.ErrCriteriaRequired when the request has nothing to search by.
	Search(ctx context.Context, req *domain.SearchRequest) (*domain.SearchResponse, error)

	// FlushCache drops every cached search result
	FlushCache(ctx context.Context) error

	// Drain waits until every analytics event already emitted has been handed
	// to the sink. Returns ctx.Err() if ctx ends first.
	Drain(ctx context.Context) error
}
