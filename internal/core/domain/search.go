package domain

import (
	"strings"
	"time"
)

// SearchType selects how the free-text query is interpreted
type SearchType string

const (
	SearchTypePhone   SearchType = "phone"
	SearchTypeIMEI    SearchType = "imei"
	SearchTypeEmail   SearchType = "email"
	SearchTypeGeneral SearchType = "general"
)

// ParseSearchType returns the search type for s; ok is false for unknown values
func ParseSearchType(s string) (SearchType, bool) {
	switch SearchType(strings.ToLower(strings.TrimSpace(s))) {
	case SearchTypePhone:
		return SearchTypePhone, true
	case SearchTypeIMEI:
		return SearchTypeIMEI, true
	case SearchTypeEmail:
		return SearchTypeEmail, true
	case SearchTypeGeneral:
		return SearchTypeGeneral, true
	}
	return "", false
}

// Named relative date windows
const (
	DateRangeToday       = "today"
	DateRangeLastWeek    = "last_week"
	DateRangeLastMonth   = "last_month"
	DateRangeLast3Months = "last_3_months"
	DateRangeLast6Months = "last_6_months"
	DateRangeLastYear    = "last_year"
)

// DateLayout is the wire format of explicit date bounds
const DateLayout = "2006-01-02"

// FilterSet holds the structured filters of a search request
type FilterSet struct {
	Statuses    []string `json:"status,omitempty" validate:"omitempty,dive,oneof=lost found returned claimed"`
	DeviceTypes []string `json:"device_type,omitempty"`
	Brands      []string `json:"brand,omitempty"`

	DateFrom  string `json:"date_from,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DateTo    string `json:"date_to,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DateRange string `json:"date_range,omitempty"`

	Country string `json:"country,omitempty"`
	Region  string `json:"region,omitempty"`
	City    string `json:"city,omitempty"`

	IMEI        string `json:"imei,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

// HasLocation reports whether any plain location filter is set
func (f FilterSet) HasLocation() bool {
	return f.Country != "" || f.Region != "" || f.City != ""
}

// HasDate reports whether any date filter is set
func (f FilterSet) HasDate() bool {
	return f.DateFrom != "" || f.DateTo != "" || f.DateRange != ""
}

// HasAdvanced reports whether any non-location filter is set
func (f FilterSet) HasAdvanced() bool {
	return len(f.Statuses) > 0 || len(f.DeviceTypes) > 0 || len(f.Brands) > 0 ||
		f.HasDate() || f.IMEI != "" || f.PhoneNumber != ""
}

// WithoutLocation returns a copy with the plain location filters cleared
func (f FilterSet) WithoutLocation() FilterSet {
	f.Country, f.Region, f.City = "", "", ""
	return f
}

// SearchRequest is the single input of the search operation
type SearchRequest struct {
	Query string     `json:"query"`
	Type  SearchType `json:"type,omitempty"`

	Fuzzy     bool     `json:"fuzzy"`
	Phonetic  bool     `json:"phonetic"`
	Threshold *float64 `json:"threshold,omitempty"`

	Latitude  *float64 `json:"lat,omitempty"`
	Longitude *float64 `json:"lon,omitempty"`
	RadiusKm  *float64 `json:"radius,omitempty"`

	Filters FilterSet `json:"filters"`

	Page     int `json:"page"`
	PageSize int `json:"page_size"`

	// SkipCache bypasses both cache lookup and cache write
	SkipCache bool `json:"skip_cache,omitempty"`

	// Caller metadata, used for analytics only
	CallerIP  string `json:"-"`
	UserAgent string `json:"-"`
}

// Center returns the search center when both coordinates are present
func (r *SearchRequest) Center() (Coordinates, bool) {
	if r.Latitude == nil || r.Longitude == nil {
		return Coordinates{}, false
	}
	return Coordinates{Lat: *r.Latitude, Lon: *r.Longitude}, true
}

// IsGeospatial reports whether the request carries a search center
func (r *SearchRequest) IsGeospatial() bool {
	_, ok := r.Center()
	return ok
}

// Pagination describes the page returned to the caller
type Pagination struct {
	CurrentPage  int  `json:"current_page"`
	PageSize     int  `json:"page_size"`
	TotalItems   int  `json:"total_items"`
	TotalPages   int  `json:"total_pages"`
	NextPage     *int `json:"next_page"`
	PreviousPage *int `json:"previous_page"`
	HasNext      bool `json:"has_next"`
	HasPrevious  bool `json:"has_previous"`
}

// Performance carries per-request observability data
type Performance struct {
	ExecutionTimeMs float64 `json:"execution_time_ms"`
	ResultCount     int     `json:"result_count"`
	FromCache       bool    `json:"from_cache"`
}

// Filter complexity classes
const (
	ComplexitySimple   = "simple"
	ComplexityModerate = "moderate"
	ComplexityComplex  = "complex"
)

// FilterSummary describes the active filters of a request
type FilterSummary struct {
	ActiveFilterCount int      `json:"active_filter_count"`
	FilterNames       []string `json:"filter_names"`
	Complexity        string   `json:"complexity"`
}

// SearchInfo echoes the effective parameters and reports metrics
type SearchInfo struct {
	Query     string     `json:"query"`
	Type      SearchType `json:"type"`
	Fuzzy     bool       `json:"fuzzy"`
	Phonetic  bool       `json:"phonetic"`
	Threshold float64    `json:"threshold"`

	Geospatial bool     `json:"geospatial"`
	Latitude   *float64 `json:"lat,omitempty"`
	Longitude  *float64 `json:"lon,omitempty"`
	RadiusKm   *float64 `json:"radius,omitempty"`

	Filters       FilterSet     `json:"filters"`
	FilterSummary FilterSummary `json:"filter_summary"`
	Performance   Performance   `json:"performance"`

	// Partial is set when only the lost category could be scanned
	Partial  bool     `json:"partial,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// SearchResponse is the output of the search operation
type SearchResponse struct {
	Data       []*SearchResultItem `json:"data"`
	Pagination Pagination          `json:"pagination"`
	SearchInfo SearchInfo          `json:"search_info"`
}

// SearchMeta is stored next to cached results
type SearchMeta struct {
	LostCount   int       `json:"lost_count"`
	FoundCount  int       `json:"found_count"`
	GeneratedAt time.Time `json:"generated_at"`
}

// CacheEntry holds the full merged, unpaginated result set of one request
type CacheEntry struct {
	Key       string              `json:"key"`
	Results   []*SearchResultItem `json:"results"`
	Meta      SearchMeta          `json:"meta"`
	CreatedAt time.Time           `json:"created_at"`
	ExpiresAt time.Time           `json:"expires_at"`
}

// IsExpired reports whether the entry is stale at now
func (e *CacheEntry) IsExpired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}
