package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/phonematch-core/internal/core/domain"
	"github.com/custodia-labs/phonematch-core/internal/core/ports/driven/mocks"
)

var testNow = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

type searchFixture struct {
	store     *mocks.MockRecordStore
	cache     *mocks.MockSearchCache
	analytics *mocks.MockAnalyticsSink
	clock     *mocks.FakeClock
	svc       *searchService
}

func newSearchFixture() *searchFixture {
	f := &searchFixture{
		store:     mocks.NewMockRecordStore(),
		cache:     mocks.NewMockSearchCache(),
		analytics: mocks.NewMockAnalyticsSink(),
		clock:     mocks.NewFakeClock(testNow),
	}
	f.svc = newSearchService(SearchServiceConfig{
		Records:   f.store,
		Cache:     f.cache,
		Analytics: f.analytics,
		Clock:     f.clock,
	})
	return f
}

func ptr(v float64) *float64 { return &v }

func record(id int64, age time.Duration, mutate func(r *domain.Record)) *domain.Record {
	r := &domain.Record{
		ID:          id,
		ContactName: "Reporter",
		Status:      domain.StatusLost,
		Date:        testNow.Add(-age),
		CreatedAt:   testNow.Add(-age),
	}
	mutate(r)
	return r
}

func ids(items []*domain.SearchResultItem) []int64 {
	out := make([]int64, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID)
	}
	return out
}

func seedPhones(f *searchFixture) {
	f.store.Add(domain.CategoryLost,
		record(1, time.Hour, func(r *domain.Record) { r.PhoneNumber = "555-123-4567"; r.Brand = "Samsung" }),
		record(2, 2*time.Hour, func(r *domain.Record) { r.PhoneNumber = "5551234568"; r.Brand = "Apple" }),
	)
	f.store.Add(domain.CategoryFound,
		record(3, 3*time.Hour, func(r *domain.Record) {
			r.PhoneNumber = "09998887777"
			r.Brand = "Nokia"
			r.Status = domain.StatusFound
		}),
	)
}

func TestNewSearchService_Defaults(t *testing.T) {
	s := newSearchService(SearchServiceConfig{Records: mocks.NewMockRecordStore()})

	assert.Equal(t, defaultCacheTTL, s.cacheTTL)
	assert.Equal(t, defaultScanLimit, s.scanLimit)
	assert.Equal(t, defaultPhoneRegion, s.phoneRegion)
	assert.Equal(t, defaultAnalyticsTimeout, s.analyticsTimeout)
	assert.NotNil(t, s.clock)
	assert.NotNil(t, s.logger)
}

func TestSearchService_FuzzyPhone(t *testing.T) {
	tests := []struct {
		name      string
		threshold float64
		want      []int64
	}{
		{name: "strict threshold keeps the exact match", threshold: 90, want: []int64{1}},
		{name: "lower threshold admits the near miss", threshold: 70, want: []int64{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSearchFixture()
			seedPhones(f)

			resp, err := f.svc.Search(context.Background(), &domain.SearchRequest{
				Query:     "5551234567",
				Type:      domain.SearchTypePhone,
				Fuzzy:     true,
				Threshold: ptr(tt.threshold),
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(resp.Data))
			assert.Equal(t, 100.0, *resp.Data[0].SimilarityScore)
			assert.Equal(t, string(domain.FieldPhoneNumber), resp.Data[0].MatchedField)
			assert.Equal(t, tt.threshold, resp.SearchInfo.Threshold)
		})
	}
}

func TestSearchService_ExactPhoneIgnoresFormatting(t *testing.T) {
	f := newSearchFixture()
	seedPhones(f)

	resp, err := f.svc.Search(context.Background(), &domain.SearchRequest{
		Query: "555 123 4567",
		Type:  domain.SearchTypePhone,
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids(resp.Data))
	assert.Nil(t, resp.Data[0].SimilarityScore)
}

func TestSearchService_DetectsType(t *testing.T) {
	f := newSearchFixture()
	f.store.Add(domain.CategoryLost,
		record(1, time.Hour, func(r *domain.Record) { r.Email = "Juan@Example.com" }),
		record(2, time.Hour, func(r *domain.Record) { r.IMEI = "35-209900-176148-1" }),
	)

	resp, err := f.svc.Search(context.Background(), &domain.SearchRequest{Query: "juan@example.com"})
	require.NoError(t, err)
	assert.Equal(t, domain.SearchTypeEmail, resp.SearchInfo.Type)
	assert.Equal(t, []int64{1}, ids(resp.Data))

	resp, err = f.svc.Search(context.Background(), &domain.SearchRequest{Query: "352099001761481"})
	require.NoError(t, err)
	assert.Equal(t, domain.SearchTypeIMEI, resp.SearchInfo.Type)
	assert.Equal(t, []int64{2}, ids(resp.Data))
}

func TestSearchService_GeneralQuery(t *testing.T) {
	f := newSearchFixture()
	f.store.Add(domain.CategoryLost,
		record(1, 2*time.Hour, func(r *domain.Record) { r.Email = "a@b.c"; r.Brand = "Samsung"; r.Model = "Galaxy S21" }),
		record(2, time.Hour, func(r *domain.Record) { r.Email = "d@e.f"; r.Brand = "Apple"; r.Description = "black galaxy case" }),
		record(3, time.Hour, func(r *domain.Record) { r.Email = "g@h.i"; r.Brand = "Nokia" }),
	)

	resp, err := f.svc.Search(context.Background(), &domain.SearchRequest{Query: "Galaxy"})
	require.NoError(t, err)
	assert.Equal(t, domain.SearchTypeGeneral, resp.SearchInfo.Type)
	assert.Equal(t, "galaxy", resp.SearchInfo.Query)
	// newest first
	assert.Equal(t, []int64{2, 1}, ids(resp.Data))
}

func TestSearchService_Phonetic(t *testing.T) {
	f := newSearchFixture()
	f.store.Add(domain.CategoryLost,
		record(1, time.Hour, func(r *domain.Record) { r.Email = "a@b.c"; r.Brand = "Samsung" }),
		record(2, time.Hour, func(r *domain.Record) { r.Email = "d@e.f"; r.Brand = "Apple" }),
	)

	resp, err := f.svc.Search(context.Background(), &domain.SearchRequest{
		Query:    "samsang",
		Type:     domain.SearchTypeGeneral,
		Phonetic: true,
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids(resp.Data))
}

func TestSearchService_Geospatial(t *testing.T) {
	f := newSearchFixture()
	f.store.Add(domain.CategoryLost,
		record(1, time.Hour, func(r *domain.Record) {
			r.Email = "a@b.c"
			r.City = "Manila"
			r.Latitude, r.Longitude = ptr(14.5995), ptr(120.9842)
		}),
		record(2, time.Hour, func(r *domain.Record) {
			r.Email = "d@e.f"
			r.City = "Cebu"
			r.Latitude, r.Longitude = ptr(10.3157), ptr(123.8854)
		}),
		record(3, time.Hour, func(r *domain.Record) { r.Email = "g@h.i" }),
	)

	resp, err := f.svc.Search(context.Background(), &domain.SearchRequest{
		Latitude:  ptr(14.60),
		Longitude: ptr(120.98),
		RadiusKm:  ptr(5),
		// superseded by the search circle
		Filters: domain.FilterSet{City: "Cebu"},
	})
	require.NoError(t, err)
	require.Equal(t, []int64{1}, ids(resp.Data))
	assert.InDelta(t, 0.6, *resp.Data[0].DistanceKm, 0.3)
	assert.True(t, resp.SearchInfo.Geospatial)
	assert.Empty(t, resp.SearchInfo.Filters.City)

	resp, err = f.svc.Search(context.Background(), &domain.SearchRequest{
		Latitude:  ptr(14.60),
		Longitude: ptr(120.98),
		RadiusKm:  ptr(0.1),
	})
	require.NoError(t, err)
	assert.Empty(t, resp.Data)
}

func TestSearchService_GeospatialOrdersByDistance(t *testing.T) {
	f := newSearchFixture()
	f.store.Add(domain.CategoryLost,
		record(1, time.Minute, func(r *domain.Record) { r.Email = "a@b.c"; r.Latitude, r.Longitude = ptr(14.62), ptr(120.98) }),
	)
	f.store.Add(domain.CategoryFound,
		record(2, time.Hour, func(r *domain.Record) { r.Email = "d@e.f"; r.Latitude, r.Longitude = ptr(14.601), ptr(120.98) }),
	)

	resp, err := f.svc.Search(context.Background(), &domain.SearchRequest{
		Latitude:  ptr(14.60),
		Longitude: ptr(120.98),
		RadiusKm:  ptr(10),
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 1}, ids(resp.Data))
	assert.Equal(t, domain.CategoryFound, resp.Data[0].Source)
}

func TestSearchService_FilterValidation(t *testing.T) {
	f := newSearchFixture()
	seedPhones(f)

	_, err := f.svc.Search(context.Background(), &domain.SearchRequest{
		Query: "samsung",
		Filters: domain.FilterSet{
			DateFrom: "2025-01-01",
			DateTo:   "2024-01-01",
		},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Violations, "Date from cannot be later than date to")

	assert.Zero(t, f.store.Calls(domain.CategoryLost))
	assert.Zero(t, f.store.Calls(domain.CategoryFound))
}

func TestSearchService_CriteriaRequired(t *testing.T) {
	f := newSearchFixture()

	_, err := f.svc.Search(context.Background(), &domain.SearchRequest{Query: "   "})
	assert.ErrorIs(t, err, domain.ErrCriteriaRequired)
	assert.Zero(t, f.store.Calls(domain.CategoryLost))

	_, err = f.svc.Search(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSearchService_FiltersOnly(t *testing.T) {
	f := newSearchFixture()
	f.store.Add(domain.CategoryLost,
		record(1, time.Hour, func(r *domain.Record) { r.Email = "a@b.c"; r.Brand = "Samsung" }),
		record(2, 40*24*time.Hour, func(r *domain.Record) { r.Email = "d@e.f"; r.Brand = "Samsung" }),
		record(3, time.Hour, func(r *domain.Record) { r.Email = "g@h.i"; r.Brand = "Apple" }),
	)

	resp, err := f.svc.Search(context.Background(), &domain.SearchRequest{
		Filters: domain.FilterSet{Brands: []string{"samsung"}, DateRange: domain.DateRangeLastWeek},
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids(resp.Data))
	assert.Equal(t, 2, resp.SearchInfo.FilterSummary.ActiveFilterCount)
	assert.Equal(t, domain.ComplexitySimple, resp.SearchInfo.FilterSummary.Complexity)
}

func TestSearchService_Cache(t *testing.T) {
	f := newSearchFixture()
	seedPhones(f)
	req := &domain.SearchRequest{Query: "5551234567", Type: domain.SearchTypePhone}

	first, err := f.svc.Search(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, first.SearchInfo.Performance.FromCache)
	assert.Equal(t, 1, f.cache.Sets())

	second, err := f.svc.Search(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, second.SearchInfo.Performance.FromCache)
	assert.Equal(t, ids(first.Data), ids(second.Data))
	assert.Equal(t, 1, f.store.Calls(domain.CategoryLost))

	// expired entries are ignored
	f.clock.Advance(defaultCacheTTL)
	third, err := f.svc.Search(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, third.SearchInfo.Performance.FromCache)
	assert.Equal(t, 2, f.store.Calls(domain.CategoryLost))
}

func TestSearchService_SkipCache(t *testing.T) {
	f := newSearchFixture()
	seedPhones(f)
	req := &domain.SearchRequest{Query: "5551234567", Type: domain.SearchTypePhone, SkipCache: true}

	_, err := f.svc.Search(context.Background(), req)
	require.NoError(t, err)
	_, err = f.svc.Search(context.Background(), req)
	require.NoError(t, err)

	assert.Zero(t, f.cache.Sets())
	assert.Equal(t, 2, f.store.Calls(domain.CategoryLost))
}

func TestSearchService_CacheFailuresAreNotFatal(t *testing.T) {
	f := newSearchFixture()
	seedPhones(f)
	f.cache.SetErrors(errors.New("cache down"), errors.New("cache down"))

	resp, err := f.svc.Search(context.Background(), &domain.SearchRequest{Query: "5551234567", Type: domain.SearchTypePhone})
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids(resp.Data))
}

func TestSearchService_NoCache(t *testing.T) {
	store := mocks.NewMockRecordStore()
	svc := NewSearchService(SearchServiceConfig{Records: store})

	_, err := svc.Search(context.Background(), &domain.SearchRequest{Query: "samsung"})
	require.NoError(t, err)
	assert.NoError(t, svc.FlushCache(context.Background()))
}

func TestSearchService_FoundScanFailure(t *testing.T) {
	f := newSearchFixture()
	seedPhones(f)
	f.store.FailOn(domain.CategoryFound, errors.New("found table locked"))

	resp, err := f.svc.Search(context.Background(), &domain.SearchRequest{Query: "5551234567", Type: domain.SearchTypePhone, Fuzzy: true, Threshold: ptr(70)})
	require.NoError(t, err)
	assert.True(t, resp.SearchInfo.Partial)
	assert.Equal(t, []string{partialWarning}, resp.SearchInfo.Warnings)
	assert.Equal(t, []int64{1, 2}, ids(resp.Data))
	// partial results are never cached
	assert.Zero(t, f.cache.Sets())
}

func TestSearchService_LostScanFailure(t *testing.T) {
	f := newSearchFixture()
	seedPhones(f)
	f.store.FailOn(domain.CategoryLost, errors.New("connection reset"))

	_, err := f.svc.Search(context.Background(), &domain.SearchRequest{Query: "5551234567", Type: domain.SearchTypePhone})
	assert.ErrorIs(t, err, domain.ErrStoreFailure)
	assert.Zero(t, f.cache.Sets())
}

func TestSearchService_Pagination(t *testing.T) {
	f := newSearchFixture()
	for i := int64(1); i <= 5; i++ {
		f.store.Add(domain.CategoryLost, record(i, time.Duration(i)*time.Hour, func(r *domain.Record) {
			r.Email = "owner@example.com"
			r.Brand = "Samsung"
		}))
	}

	resp, err := f.svc.Search(context.Background(), &domain.SearchRequest{Query: "samsung", Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 4}, ids(resp.Data))
	assert.Equal(t, 5, resp.Pagination.TotalItems)
	assert.Equal(t, 3, resp.Pagination.TotalPages)
	assert.True(t, resp.Pagination.HasNext)
	assert.True(t, resp.Pagination.HasPrevious)
	assert.Equal(t, 5, resp.SearchInfo.Performance.ResultCount)
}

func TestSearchService_RecordsAnalytics(t *testing.T) {
	f := newSearchFixture()
	seedPhones(f)

	_, err := f.svc.Search(context.Background(), &domain.SearchRequest{
		Query:     "5551234567",
		Type:      domain.SearchTypePhone,
		CallerIP:  "203.0.113.7",
		UserAgent: "curl/8.0",
	})
	require.NoError(t, err)
	require.NoError(t, f.svc.Drain(context.Background()))

	events := f.analytics.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "5551234567", events[0].QueryText)
	assert.Equal(t, domain.SearchTypePhone, events[0].SearchType)
	assert.Equal(t, 1, events[0].ResultCount)
	assert.Equal(t, "203.0.113.7", events[0].CallerIP)
	assert.Equal(t, testNow, events[0].CreatedAt)
	assert.False(t, events[0].CacheHit)
}

func TestSearchService_AnalyticsFailureIsNotFatal(t *testing.T) {
	f := newSearchFixture()
	seedPhones(f)
	f.analytics.SetError(errors.New("queue full"))

	ctx, cancel := context.WithCancel(context.Background())
	resp, err := f.svc.Search(ctx, &domain.SearchRequest{Query: "5551234567", Type: domain.SearchTypePhone})
	cancel()
	require.NoError(t, err)
	assert.Len(t, resp.Data, 1)

	select {
	case <-f.analytics.Notify():
	case <-time.After(time.Second):
		t.Fatal("analytics event was not delivered after the request context ended")
	}
}

func TestSearchService_FlushCache(t *testing.T) {
	f := newSearchFixture()
	seedPhones(f)

	_, err := f.svc.Search(context.Background(), &domain.SearchRequest{Query: "5551234567", Type: domain.SearchTypePhone})
	require.NoError(t, err)
	require.Equal(t, 1, f.cache.Len())

	require.NoError(t, f.svc.FlushCache(context.Background()))
	assert.Zero(t, f.cache.Len())
}

func TestSearchService_DrainWaitsForAnalytics(t *testing.T) {
	f := newSearchFixture()
	seedPhones(f)
	gate := make(chan struct{})
	f.analytics.HoldUntil(gate)

	_, err := f.svc.Search(context.Background(), &domain.SearchRequest{Query: "5551234567", Type: domain.SearchTypePhone})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, f.svc.Drain(ctx), context.DeadlineExceeded)
	assert.Empty(t, f.analytics.Events())

	close(gate)
	require.NoError(t, f.svc.Drain(context.Background()))
	assert.Len(t, f.analytics.Events(), 1)
}

func TestSearchService_DrainWithNothingPending(t *testing.T) {
	f := newSearchFixture()
	assert.NoError(t, f.svc.Drain(context.Background()))
}

func TestSearchService_IdentifierQueryWithoutContent(t *testing.T) {
	tests := []struct {
		name  string
		query string
		kind  domain.SearchType
		fuzzy bool
	}{
		{"phone without digits", "abc", domain.SearchTypePhone, false},
		{"fuzzy phone without digits", "abc", domain.SearchTypePhone, true},
		{"imei of separators only", "- -", domain.SearchTypeIMEI, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSearchFixture()
			seedPhones(f)

			_, err := f.svc.Search(context.Background(), &domain.SearchRequest{Query: tt.query, Type: tt.kind, Fuzzy: tt.fuzzy})
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.Zero(t, f.store.Calls(domain.CategoryLost), "no scan for an empty identifier")
		})
	}
}
