package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/custodia-labs/phonematch-core/internal/core/domain"
)

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error   string   `json:"error" example:"validation failed"`
	Details []string `json:"details,omitempty" example:"Date from cannot be later than date to"`
}

// StatusResponse represents a simple status response
// @Description Simple status response
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// VersionResponse represents the API version response
// @Description API version response
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
}

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns the health status of the API
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Checks the database and, when configured, Redis
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Failure      503  {object}  ErrorResponse  "A dependency is unreachable"
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	var failures []string
	if s.db != nil {
		if err := s.db.Ping(r.Context()); err != nil {
			failures = append(failures, "database: "+err.Error())
		}
	}
	if s.redisClient != nil {
		if err := s.redisClient.Ping(r.Context()); err != nil {
			failures = append(failures, "redis: "+err.Error())
		}
	}

	if len(failures) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "not ready", Details: failures})
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ready"})
}

// handleVersion godoc
// @Summary      Get API version
// @Description  Returns the current API version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{Version: s.version})
}

// Search endpoints

// handleSearch godoc
// @Summary      Search lost and found reports
// @Description  Free-text, fuzzy, phonetic and proximity search across lost and found reports
// @Tags         Search
// @Produce      json
// @Param        q            query     string   false  "Search text"
// @Param        type         query     string   false  "phone, imei, email or general"
// @Param        fuzzy        query     boolean  false  "Rank by edit-distance similarity"
// @Param        phonetic     query     boolean  false  "Match descriptive fields by sound"
// @Param        threshold    query     number   false  "Similarity threshold (0-100)"
// @Param        lat          query     number   false  "Search center latitude"
// @Param        lon          query     number   false  "Search center longitude"
// @Param        radius       query     number   false  "Search radius in km"
// @Param        status       query     string   false  "Comma-separated statuses"
// @Param        device_type  query     string   false  "Comma-separated device types"
// @Param        brand        query     string   false  "Comma-separated brands"
// @Param        date_from    query     string   false  "YYYY-MM-DD"
// @Param        date_to      query     string   false  "YYYY-MM-DD"
// @Param        date_range   query     string   false  "today, last_week, last_month, last_3_months, last_6_months, last_year"
// @Param        page         query     int      false  "Page number"
// @Param        page_size    query     int      false  "Page size (max 100)"
// @Success      200  {object}  domain.SearchResponse
// @Failure      400  {object}  ErrorResponse  "Invalid parameters or missing criteria"
// @Failure      500  {object}  ErrorResponse  "Search failed"
// @Router       /api/v1/search [get]
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	req, err := parseSearchRequest(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.CallerIP = clientIP(r)
	req.UserAgent = r.UserAgent()

	resp, err := s.searchService.Search(r.Context(), req)
	if err != nil {
		s.writeSearchError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleFlushCache godoc
// @Summary      Flush search cache
// @Description  Drops every cached search result
// @Tags         Search
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Failure      500  {object}  ErrorResponse  "Flush failed"
// @Router       /api/v1/search/cache [delete]
func (s *Server) handleFlushCache(w http.ResponseWriter, r *http.Request) {
	if err := s.searchService.FlushCache(r.Context()); err != nil {
		s.logger.Error("cache flush failed", "error", err)
		writeError(w, http.StatusInternalServerError, "cache flush failed")
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "flushed"})
}

func (s *Server) writeSearchError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: verr.Violations})
	case errors.Is(err, domain.ErrCriteriaRequired):
		writeError(w, http.StatusBadRequest, domain.ErrCriteriaRequired.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("search failed", "error", err)
		writeError(w, http.StatusInternalServerError, "search failed")
	}
}

// parseSearchRequest reads the query-string form of a search request
func parseSearchRequest(q url.Values) (*domain.SearchRequest, error) {
	req := &domain.SearchRequest{
		Query: first(q, "q", "query"),
		Type:  domain.SearchType(q.Get("type")),
		Filters: domain.FilterSet{
			Statuses:    list(q, "status"),
			DeviceTypes: list(q, "device_type"),
			Brands:      list(q, "brand"),
			DateFrom:    first(q, "date_from", "dateFrom"),
			DateTo:      first(q, "date_to", "dateTo"),
			DateRange:   first(q, "date_range", "dateRange"),
			Country:     q.Get("country"),
			Region:      q.Get("region"),
			City:        q.Get("city"),
			IMEI:        q.Get("imei"),
			PhoneNumber: first(q, "phone_number", "phoneNumber"),
		},
	}

	var err error
	if req.Fuzzy, err = parseBool(q, "fuzzy"); err != nil {
		return nil, err
	}
	if req.Phonetic, err = parseBool(q, "phonetic"); err != nil {
		return nil, err
	}
	if req.SkipCache, err = parseBool(q, "skip_cache"); err != nil {
		return nil, err
	}
	if req.Threshold, err = parseFloat(q, "threshold"); err != nil {
		return nil, err
	}
	if req.Latitude, err = parseFloat(q, "lat"); err != nil {
		return nil, err
	}
	if req.Longitude, err = parseFloat(q, "lon", "lng"); err != nil {
		return nil, err
	}
	if req.RadiusKm, err = parseFloat(q, "radius"); err != nil {
		return nil, err
	}
	if req.Page, err = parseInt(q, "page"); err != nil {
		return nil, err
	}
	if req.PageSize, err = parseInt(q, "page_size", "limit"); err != nil {
		return nil, err
	}

	return req, nil
}

// first returns the first non-empty value among the given keys
func first(q url.Values, keys ...string) string {
	for _, k := range keys {
		if v := q.Get(k); v != "" {
			return v
		}
	}
	return ""
}

// list accepts both repeated keys and comma-separated values
func list(q url.Values, key string) []string {
	var out []string
	for _, raw := range q[key] {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

func parseBool(q url.Values, key string) (bool, error) {
	v := q.Get(key)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %q", key, v)
	}
	return b, nil
}

func parseFloat(q url.Values, keys ...string) (*float64, error) {
	v := first(q, keys...)
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %q", keys[0], v)
	}
	return &f, nil
}

func parseInt(q url.Values, keys ...string) (int, error) {
	v := first(q, keys...)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", keys[0], v)
	}
	return n, nil
}

// clientIP prefers proxy headers over the socket address
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		ip, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(ip)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return strings.TrimSpace(ip)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Helper functions

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
