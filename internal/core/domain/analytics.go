package domain

import (
	"time"

	"github.com/google/uuid"
)

// SearchEvent records one executed search for analytics
type SearchEvent struct {
	ID             uuid.UUID  `json:"id"`
	QueryText      string     `json:"query_text"`
	SearchType     SearchType `json:"search_type"`
	Filters        FilterSet  `json:"filters"`
	ResultCount    int        `json:"result_count"`
	ResponseTimeMs float64    `json:"response_time_ms"`
	CacheHit       bool       `json:"cache_hit"`
	CallerIP       string     `json:"caller_ip,omitempty"`
	UserAgent      string     `json:"user_agent,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// NewSearchEvent builds an event for a finished search
func NewSearchEvent(req *SearchRequest, info *SearchInfo, now time.Time) *SearchEvent {
	return &SearchEvent{
		ID:             uuid.New(),
		QueryText:      req.Query,
		SearchType:     info.Type,
		Filters:        req.Filters,
		ResultCount:    info.Performance.ResultCount,
		ResponseTimeMs: info.Performance.ExecutionTimeMs,
		CacheHit:       info.Performance.FromCache,
		CallerIP:       req.CallerIP,
		UserAgent:      req.UserAgent,
		CreatedAt:      now,
	}
}
