package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/phonematch-core/internal/core/domain"
	"github.com/custodia-labs/phonematch-core/internal/core/ports/driven"
	"github.com/custodia-labs/phonematch-core/internal/core/ports/driving"
	"github.com/custodia-labs/phonematch-core/internal/filters"
	"github.com/custodia-labs/phonematch-core/internal/geo"
	"github.com/custodia-labs/phonematch-core/internal/optimizer"
	"github.com/custodia-labs/phonematch-core/internal/similarity"
)

// Ensure searchService implements SearchService
var _ driving.SearchService = (*searchService)(nil)

const (
	defaultCacheTTL         = 10 * time.Minute
	defaultScanLimit        = 1000
	defaultPhoneRegion      = "PH"
	defaultAnalyticsTimeout = 5 * time.Second

	partialWarning = "found reports are unavailable; showing lost reports only"
)

// Descriptive fields matched by free text and fuzzy ranking
var generalFields = []domain.Field{
	domain.FieldBrand,
	domain.FieldModel,
	domain.FieldColor,
	domain.FieldDeviceType,
	domain.FieldDescription,
	domain.FieldLocation,
}

// Descriptive fields compared by sound
var phoneticFields = []domain.Field{
	domain.FieldBrand,
	domain.FieldModel,
	domain.FieldColor,
	domain.FieldDescription,
}

// SearchServiceConfig holds the collaborators of the search service
type SearchServiceConfig struct {
	Records   driven.RecordStore
	Cache     driven.SearchCache   // Optional: nil disables result caching
	Analytics driven.AnalyticsSink // Optional: nil disables analytics events
	Clock     driven.Clock         // Optional: defaults to the system clock
	Logger    *slog.Logger

	CacheTTL         time.Duration // default: 10m
	ScanLimit        int           // Rows read per category (default: 1000)
	PhoneRegion      string        // Region for numbers without a country code (default: PH)
	AnalyticsTimeout time.Duration // default: 5s
}

// searchService implements the SearchService interface
type searchService struct {
	records   driven.RecordStore
	cache     driven.SearchCache
	analytics driven.AnalyticsSink
	clock     driven.Clock
	logger    *slog.Logger

	cacheTTL         time.Duration
	scanLimit        int
	phoneRegion      string
	analyticsTimeout time.Duration

	// in-flight analytics goroutines
	pending sync.WaitGroup
}

// NewSearchService creates a new SearchService
func NewSearchService(cfg SearchServiceConfig) driving.SearchService {
	return newSearchService(cfg)
}

func newSearchService(cfg SearchServiceConfig) *searchService {
	s := &searchService{
		records:          cfg.Records,
		cache:            cfg.Cache,
		analytics:        cfg.Analytics,
		clock:            cfg.Clock,
		logger:           cfg.Logger,
		cacheTTL:         cfg.CacheTTL,
		scanLimit:        cfg.ScanLimit,
		phoneRegion:      cfg.PhoneRegion,
		analyticsTimeout: cfg.AnalyticsTimeout,
	}
	if s.clock == nil {
		s.clock = driven.SystemClock{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.cacheTTL <= 0 {
		s.cacheTTL = defaultCacheTTL
	}
	if s.scanLimit <= 0 {
		s.scanLimit = defaultScanLimit
	}
	if s.phoneRegion == "" {
		s.phoneRegion = defaultPhoneRegion
	}
	if s.analyticsTimeout <= 0 {
		s.analyticsTimeout = defaultAnalyticsTimeout
	}
	return s
}

// Search runs one search across the lost and found reports
func (s *searchService) Search(ctx context.Context, req *domain.SearchRequest) (*domain.SearchResponse, error) {
	timer := optimizer.StartTimer()
	if req == nil {
		return nil, domain.ErrInvalidInput
	}
	now := s.clock.Now()

	if err := filters.Validate(req.Filters, now); err != nil {
		return nil, err
	}

	params := optimizer.Normalize(*req)
	if !optimizer.HasCriteria(&params) {
		return nil, domain.ErrCriteriaRequired
	}
	if params.Type == "" {
		params.Type = optimizer.DetectSearchType(params.Query, s.phoneRegion)
	}
	if err := validateQuery(&params); err != nil {
		return nil, err
	}
	if params.IsGeospatial() {
		// the search circle supersedes the plain location filters
		params.Filters = params.Filters.WithoutLocation()
	}

	key := optimizer.CacheKey(params)
	useCache := s.cache != nil && !params.SkipCache

	var (
		results   []*domain.SearchResultItem
		fromCache bool
		partial   bool
	)

	if useCache {
		entry, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			s.logger.Warn("search cache read failed", "error", err)
		case entry != nil && !entry.IsExpired(now):
			results = entry.Results
			fromCache = true
		}
	}

	if !fromCache {
		var meta domain.SearchMeta
		var err error
		results, meta, partial, err = s.execute(ctx, &params, now)
		if err != nil {
			return nil, err
		}

		if useCache && !partial {
			entry := &domain.CacheEntry{
				Key:       key,
				Results:   results,
				Meta:      meta,
				CreatedAt: now,
				ExpiresAt: now.Add(s.cacheTTL),
			}
			if err := s.cache.Set(ctx, entry, s.cacheTTL); err != nil {
				s.logger.Warn("search cache write failed", "error", err)
			}
		}
	}

	data, pagination := optimizer.Paginate(results, params.Page, params.PageSize)

	info := domain.SearchInfo{
		Query:         params.Query,
		Type:          params.Type,
		Fuzzy:         params.Fuzzy,
		Phonetic:      params.Phonetic,
		Threshold:     *params.Threshold,
		Geospatial:    params.IsGeospatial(),
		Latitude:      params.Latitude,
		Longitude:     params.Longitude,
		RadiusKm:      params.RadiusKm,
		Filters:       params.Filters,
		FilterSummary: filters.Summarize(params.Filters),
		Partial:       partial,
	}
	if partial {
		info.Warnings = []string{partialWarning}
	}
	info.Performance = timer.Performance(len(results), fromCache)

	s.logger.Debug("search completed",
		"type", info.Type,
		"results", len(results),
		"from_cache", fromCache,
		"partial", partial,
		"execution_time_ms", info.Performance.ExecutionTimeMs,
	)

	s.emit(ctx, domain.NewSearchEvent(&params, &info, now))

	return &domain.SearchResponse{
		Data:       data,
		Pagination: pagination,
		SearchInfo: info,
	}, nil
}

// FlushCache drops every cached search result
func (s *searchService) FlushCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Flush(ctx); err != nil {
		return fmt.Errorf("flush search cache: %w", err)
	}
	s.logger.Info("search cache flushed")
	return nil
}

// execute scans both categories and post-filters, merges and sorts the results.
// A failed lost scan fails the search; a failed found scan degrades to lost-only results.
func (s *searchService) execute(ctx context.Context, req *domain.SearchRequest, now time.Time) ([]*domain.SearchResultItem, domain.SearchMeta, bool, error) {
	pred, order := buildPredicate(req, now)

	var (
		lost, found []*domain.Record
		foundErr    error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		records, err := s.records.Scan(gctx, domain.CategoryLost, pred, order, s.scanLimit)
		if err != nil {
			return fmt.Errorf("%w: scan lost: %w", domain.ErrStoreFailure, err)
		}
		lost = records
		return nil
	})
	g.Go(func() error {
		records, err := s.records.Scan(gctx, domain.CategoryFound, pred, order, s.scanLimit)
		if err != nil {
			foundErr = err
			return nil
		}
		found = records
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, domain.SearchMeta{}, false, err
	}

	partial := foundErr != nil
	if partial {
		s.logger.Warn("found scan failed, returning lost results only", "error", foundErr)
	}

	lostItems := postFilter(req, domain.NewResultItems(domain.CategoryLost, lost))
	foundItems := postFilter(req, domain.NewResultItems(domain.CategoryFound, found))

	merged := make([]*domain.SearchResultItem, 0, len(lostItems)+len(foundItems))
	merged = append(merged, lostItems...)
	merged = append(merged, foundItems...)
	sortMerged(merged, req)

	meta := domain.SearchMeta{
		LostCount:   len(lostItems),
		FoundCount:  len(foundItems),
		GeneratedAt: now,
	}
	return merged, meta, partial, nil
}

// Drain implements driving.SearchService
func (s *searchService) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.pending.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// emit records the analytics event without delaying or failing the response
func (s *searchService) emit(ctx context.Context, event *domain.SearchEvent) {
	if s.analytics == nil {
		return
	}

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.analyticsTimeout)
		defer cancel()

		if err := s.analytics.Record(actx, event); err != nil {
			s.logger.Warn("failed to record search event", "event_id", event.ID, "error", err)
		}
	}()
}

// buildPredicate combines the text condition, the place condition and the advanced filters
func buildPredicate(req *domain.SearchRequest, now time.Time) (domain.Predicate, domain.Order) {
	var place domain.Predicate
	if center, ok := req.Center(); ok {
		box := geo.BoundingBoxFor(center.Lat, center.Lon, *req.RadiusKm)
		place = domain.And{
			domain.Cond{Field: domain.FieldLatitude, Op: domain.OpBetween, Value: [2]float64{box.MinLat, box.MaxLat}},
			domain.Cond{Field: domain.FieldLongitude, Op: domain.OpBetween, Value: [2]float64{box.MinLon, box.MaxLon}},
		}
	} else {
		place = filters.Location(req.Filters)
	}

	pred := filters.And(textCondition(req), place, filters.Advanced(req.Filters, now))
	return pred, filters.Ordering(req.Filters, domain.DefaultOrder)
}

// validateQuery rejects identifier queries that normalize to nothing,
// which would otherwise match every record carrying that identifier
func validateQuery(req *domain.SearchRequest) error {
	if req.Query == "" {
		return nil
	}
	switch req.Type {
	case domain.SearchTypePhone:
		if domain.DigitsOnly(req.Query) == "" {
			return domain.NewValidationError([]string{"Phone search query must contain digits"})
		}
	case domain.SearchTypeIMEI:
		if domain.Compact(req.Query) == "" {
			return domain.NewValidationError([]string{"IMEI search query must not be blank"})
		}
	}
	return nil
}

// textCondition matches the query against the fields of its type.
// Fuzzy and phonetic searches relax it to a presence check, or drop it,
// so the in-memory ranking sees near misses.
func textCondition(req *domain.SearchRequest) domain.Predicate {
	if req.Query == "" {
		return nil
	}

	relaxed := req.Fuzzy
	switch req.Type {
	case domain.SearchTypePhone:
		if relaxed {
			return domain.Cond{Field: domain.FieldPhoneNumber, Op: domain.OpNotEmpty}
		}
		return domain.Cond{Field: domain.FieldPhoneNumber, Op: domain.OpDigitsContain, Value: req.Query}
	case domain.SearchTypeIMEI:
		if relaxed {
			return domain.Cond{Field: domain.FieldIMEI, Op: domain.OpNotEmpty}
		}
		return domain.Cond{Field: domain.FieldIMEI, Op: domain.OpCompactContains, Value: req.Query}
	case domain.SearchTypeEmail:
		if relaxed {
			return domain.Cond{Field: domain.FieldEmail, Op: domain.OpNotEmpty}
		}
		return domain.Cond{Field: domain.FieldEmail, Op: domain.OpContains, Value: req.Query}
	}

	if relaxed || usesPhonetic(req) {
		return nil
	}
	or := make(domain.Or, 0, len(generalFields))
	for _, f := range generalFields {
		or = append(or, domain.Cond{Field: f, Op: domain.OpContains, Value: req.Query})
	}
	return or
}

// usesPhonetic reports whether phonetic filtering applies: it needs a
// general query with at least one codable word
func usesPhonetic(req *domain.SearchRequest) bool {
	if !req.Phonetic || req.Query == "" {
		return false
	}
	if req.Type != domain.SearchTypeGeneral && req.Type != "" {
		return false
	}
	for _, w := range similarity.Words(req.Query) {
		if similarity.PhoneticCode(w) != "" {
			return true
		}
	}
	return false
}

// postFilter applies fuzzy ranking, phonetic matching and proximity to one category
func postFilter(req *domain.SearchRequest, items []*domain.SearchResultItem) []*domain.SearchResultItem {
	if req.Query != "" && req.Fuzzy {
		threshold := *req.Threshold
		switch req.Type {
		case domain.SearchTypePhone:
			items = similarity.RankIdentifiers(items, domain.SearchTypePhone, domain.FieldPhoneNumber, req.Query, threshold)
		case domain.SearchTypeIMEI:
			items = similarity.RankIdentifiers(items, domain.SearchTypeIMEI, domain.FieldIMEI, req.Query, threshold)
		case domain.SearchTypeEmail:
			items = similarity.RankIdentifiers(items, domain.SearchTypeEmail, domain.FieldEmail, req.Query, threshold)
		default:
			items = similarity.MultiFieldRank(items, req.Query, generalFields, threshold)
		}
	}

	if usesPhonetic(req) {
		kept := items[:0:0]
		for _, item := range items {
			for _, f := range phoneticFields {
				if similarity.PhoneticMatchAny(req.Query, item.StringValue(f)) {
					kept = append(kept, item)
					break
				}
			}
		}
		items = kept
	}

	if center, ok := req.Center(); ok {
		items = geo.FilterByProximity(items, center.Lat, center.Lon, *req.RadiusKm)
	}
	return items
}

// sortMerged orders merged results: nearest first for geospatial searches,
// best score first for fuzzy searches, newest first otherwise
func sortMerged(items []*domain.SearchResultItem, req *domain.SearchRequest) {
	switch {
	case req.IsGeospatial():
		sort.SliceStable(items, func(i, j int) bool {
			return *items[i].DistanceKm < *items[j].DistanceKm
		})
	case req.Fuzzy && req.Query != "":
		sort.SliceStable(items, func(i, j int) bool {
			si, sj := score(items[i]), score(items[j])
			if si != sj {
				return si > sj
			}
			return items[i].CreatedAt.After(items[j].CreatedAt)
		})
	default:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		})
	}
}

func score(item *domain.SearchResultItem) float64 {
	if item.SimilarityScore == nil {
		return 0
	}
	return *item.SimilarityScore
}
