// Package optimizer normalizes search requests, derives cache keys and paginates results.
package optimizer

import (
	"math"
	"strings"

	"github.com/custodia-labs/phonematch-core/internal/core/domain"
)

// Request defaults and bounds
const (
	DefaultThreshold = 70.0
	MinThreshold     = 0.0
	MaxThreshold     = 100.0

	DefaultRadiusKm = 10.0
	MinRadiusKm     = 0.1
	MaxRadiusKm     = 1000.0

	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Normalize returns a copy of req with defaults applied and values clamped.
// The coordinate pair is dropped unless both halves are present and valid;
// the radius is kept only alongside a coordinate pair.
func Normalize(req domain.SearchRequest) domain.SearchRequest {
	req.Query = strings.ToLower(strings.TrimSpace(req.Query))
	if t, ok := domain.ParseSearchType(string(req.Type)); ok {
		req.Type = t
	} else {
		req.Type = ""
	}

	threshold := DefaultThreshold
	if req.Threshold != nil && !math.IsNaN(*req.Threshold) {
		threshold = clamp(*req.Threshold, MinThreshold, MaxThreshold)
	}
	req.Threshold = &threshold

	center, ok := req.Center()
	if ok && center.Valid() {
		lat, lon := center.Lat, center.Lon
		radius := DefaultRadiusKm
		if req.RadiusKm != nil && !math.IsNaN(*req.RadiusKm) {
			radius = clamp(*req.RadiusKm, MinRadiusKm, MaxRadiusKm)
		}
		req.Latitude, req.Longitude, req.RadiusKm = &lat, &lon, &radius
	} else {
		req.Latitude, req.Longitude, req.RadiusKm = nil, nil, nil
	}

	req.Filters.Country = strings.TrimSpace(req.Filters.Country)
	req.Filters.Region = strings.TrimSpace(req.Filters.Region)
	req.Filters.City = strings.TrimSpace(req.Filters.City)
	req.Filters.IMEI = strings.TrimSpace(req.Filters.IMEI)
	req.Filters.PhoneNumber = strings.TrimSpace(req.Filters.PhoneNumber)
	req.Filters.DateRange = strings.ToLower(strings.TrimSpace(req.Filters.DateRange))

	if req.Page < 1 {
		req.Page = DefaultPage
	}
	req.PageSize = ClampPageSize(req.PageSize)
	return req
}

// ClampPageSize applies the default page size to zero and clamps to [1, MaxPageSize]
func ClampPageSize(size int) int {
	if size == 0 {
		return DefaultPageSize
	}
	return max(1, min(size, MaxPageSize))
}

// HasCriteria reports whether a normalized request has anything to search by
func HasCriteria(req *domain.SearchRequest) bool {
	return req.Query != "" || req.Filters.HasLocation() || req.IsGeospatial() || req.Filters.HasAdvanced()
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
