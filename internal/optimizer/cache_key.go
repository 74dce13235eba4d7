package optimizer

import (
	"encoding/json"
	"slices"
	"strings"

	"github.com/custodia-labs/phonematch-core/internal/core/domain"
)

// CacheKeyPrefix starts every search cache key
const CacheKeyPrefix = "search:v1:"

type canonicalRequest struct {
	Query     string   `json:"q"`
	Type      string   `json:"t"`
	Fuzzy     bool     `json:"fz"`
	Phonetic  bool     `json:"ph"`
	Threshold float64  `json:"th"`
	Lat       *float64 `json:"lat"`
	Lon       *float64 `json:"lon"`
	Radius    *float64 `json:"r"`
	Country   string   `json:"co"`
	Region    string   `json:"re"`
	City      string   `json:"ci"`
	Statuses  []string `json:"st"`
	Devices   []string `json:"dt"`
	Brands    []string `json:"br"`
	DateFrom  string   `json:"df"`
	DateTo    string   `json:"dto"`
	DateRange string   `json:"dr"`
	IMEI      string   `json:"imei"`
	Phone     string   `json:"pn"`
	Page      int      `json:"p"`
	PageSize  int      `json:"ps"`
}

// CacheKey derives a deterministic key from a normalized request.
// Requests that differ only in spelling of set values, their order or
// case of text filters share a key. Caller metadata is excluded.
func CacheKey(req domain.SearchRequest) string {
	c := canonicalRequest{
		Query:     req.Query,
		Type:      string(req.Type),
		Fuzzy:     req.Fuzzy,
		Phonetic:  req.Phonetic,
		Threshold: DefaultThreshold,
		Lat:       req.Latitude,
		Lon:       req.Longitude,
		Radius:    req.RadiusKm,
		Country:   lower(req.Filters.Country),
		Region:    lower(req.Filters.Region),
		City:      lower(req.Filters.City),
		Statuses:  canonicalSet(req.Filters.Statuses),
		Devices:   canonicalSet(req.Filters.DeviceTypes),
		Brands:    canonicalSet(req.Filters.Brands),
		DateFrom:  req.Filters.DateFrom,
		DateTo:    req.Filters.DateTo,
		DateRange: req.Filters.DateRange,
		IMEI:      domain.Compact(req.Filters.IMEI),
		Phone:     domain.DigitsOnly(req.Filters.PhoneNumber),
		Page:      req.Page,
		PageSize:  req.PageSize,
	}
	if req.Threshold != nil {
		c.Threshold = *req.Threshold
	}

	// every field is a string, number, bool or []string so Marshal cannot fail
	b, _ := json.Marshal(c)
	return CacheKeyPrefix + string(b)
}

func canonicalSet(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = lower(v); v != "" {
			out = append(out, v)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func lower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
