package domain

import (
	"testing"
	"time"
)

func TestParseSearchType(t *testing.T) {
	tests := []struct {
		in   string
		want SearchType
		ok   bool
	}{
		{"phone", SearchTypePhone, true},
		{" IMEI ", SearchTypeIMEI, true},
		{"Email", SearchTypeEmail, true},
		{"general", SearchTypeGeneral, true},
		{"fax", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseSearchType(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseSearchType(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestFilterSet_Flags(t *testing.T) {
	var empty FilterSet
	if empty.HasLocation() || empty.HasDate() || empty.HasAdvanced() {
		t.Error("expected empty filter set to report no active filters")
	}

	loc := FilterSet{City: "Manila"}
	if !loc.HasLocation() {
		t.Error("expected city to count as location filter")
	}
	if loc.HasAdvanced() {
		t.Error("location alone should not count as advanced filter")
	}

	adv := FilterSet{DateRange: DateRangeLastWeek}
	if !adv.HasDate() || !adv.HasAdvanced() {
		t.Error("expected date range to count as date and advanced filter")
	}

	ident := FilterSet{IMEI: "3569"}
	if !ident.HasAdvanced() {
		t.Error("expected IMEI filter to count as advanced filter")
	}
}

func TestFilterSet_WithoutLocation(t *testing.T) {
	f := FilterSet{Country: "PH", Region: "NCR", City: "Manila", Brands: []string{"apple"}}
	stripped := f.WithoutLocation()

	if stripped.HasLocation() {
		t.Error("expected location filters to be cleared")
	}
	if len(stripped.Brands) != 1 {
		t.Error("expected other filters to be kept")
	}
	if f.City != "Manila" {
		t.Error("expected original filter set to be unchanged")
	}
}

func TestSearchRequest_Center(t *testing.T) {
	lat, lon := 14.6, 120.98

	req := SearchRequest{Latitude: &lat}
	if req.IsGeospatial() {
		t.Error("expected latitude alone not to be geospatial")
	}

	req.Longitude = &lon
	center, ok := req.Center()
	if !ok {
		t.Fatal("expected center with both coordinates")
	}
	if center.Lat != lat || center.Lon != lon {
		t.Errorf("unexpected center %+v", center)
	}
}

func TestCacheEntry_IsExpired(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	entry := &CacheEntry{CreatedAt: now, ExpiresAt: now.Add(10 * time.Minute)}

	if entry.IsExpired(now.Add(9 * time.Minute)) {
		t.Error("entry should be fresh before TTL")
	}
	if !entry.IsExpired(now.Add(10 * time.Minute)) {
		t.Error("entry should be expired at TTL")
	}
}

func TestNewSearchEvent(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	req := &SearchRequest{Query: "iphone", CallerIP: "10.0.0.1", UserAgent: "curl/8"}
	info := &SearchInfo{
		Type:        SearchTypeGeneral,
		Performance: Performance{ExecutionTimeMs: 12.5, ResultCount: 3, FromCache: true},
	}

	ev := NewSearchEvent(req, info, now)
	if ev.ID.String() == "" {
		t.Error("expected event id")
	}
	if ev.QueryText != "iphone" || ev.SearchType != SearchTypeGeneral {
		t.Errorf("unexpected event %+v", ev)
	}
	if ev.ResultCount != 3 || !ev.CacheHit || ev.ResponseTimeMs != 12.5 {
		t.Errorf("unexpected metrics %+v", ev)
	}
	if ev.CallerIP != "10.0.0.1" || !ev.CreatedAt.Equal(now) {
		t.Errorf("unexpected caller metadata %+v", ev)
	}
}
