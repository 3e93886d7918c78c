// Package testutil provides testing utilities for the restaurant feed: a
// mock consumer API and a step-wise dispatcher.
package testutil

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Mock API paths.
const (
	RestaurantsPath = "/consumer/v2/restaurants"
	restaurantPath  = RestaurantsPath + "/"
)

// DefaultPageLimit is the page size the mock applies when limit is absent.
const DefaultPageLimit = 30

// Venue is a restaurant fixture served by MockAPI. Attributes are written
// as the API's attribute object.
type Venue struct {
	ID         string
	RegionID   string
	Attributes map[string]any
}

// Name returns the venue's name attribute.
func (v Venue) Name() string {
	name, _ := v.Attributes["name"].(string)
	return name
}

// NewVenue returns a fully populated fixture named "Restaurant <id>".
func NewVenue(id, regionID string) Venue {
	return Venue{
		ID:       id,
		RegionID: regionID,
		Attributes: map[string]any{
			"name":                               "Restaurant " + id,
			"price_level":                        2,
			"phone":                              "+971 4 000 0000",
			"menu_url":                           "https://example.com/menu/" + id,
			"require_booking_preference_enabled": false,
			"difficult":                          false,
			"cuisine":                            "Italian",
			"image_url":                          "https://example.com/img/" + id + ".jpg",
			"latitude":                           25.2,
			"longitude":                          55.27,
			"address_line_1":                     id + " Marina Walk",
			"ratings_average":                    "4.5",
			"ratings_count":                      120,
			"labels":                             []string{"Romantic", "Good for Dinner"},
			"alcohol":                            true,
			"description":                        "Fixture restaurant " + id,
			"establishment_type":                 "Casual Dining",
			"neighborhood_name":                  "Dubai Marina",
			"operating_hours":                    "6:00pm-2:00am;6:00pm-2:00am;6:00pm-2:00am;6:00pm-2:00am;6:00pm-2:00am;6:00pm-2:00am;6:00pm-2:00am",
			"outdoor_seating":                    true,
			"postal_code":                        "00000",
			"province":                           "Dubai",
			"city":                               "Dubai",
			"smoking":                            false,
			"valet":                              true,
		},
	}
}

// Venues returns n fixtures with ids "1".."n" in regionID.
func Venues(n int, regionID string) []Venue {
	out := make([]Venue, n)
	for i := range out {
		out[i] = NewVenue(strconv.Itoa(i+1), regionID)
	}
	return out
}

// MockResponse defines the behavior for a canned mock API response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockAPI is a configurable mock of the consumer restaurant API. List and
// detail endpoints are served from the venue fixtures with pagination,
// region and fuzzy name search, ETags and 304s.
type MockAPI struct {
	server   *httptest.Server
	mu       sync.RWMutex
	venues   []Venue
	handlers map[string]http.HandlerFunc
	failures []MockResponse
	delay    time.Duration

	// Tracking
	RequestCount      int
	ConditionalCount  int
	LastRequestHeader http.Header
	requests          []string
}

// NewMockAPI starts a mock API serving venues.
func NewMockAPI(venues ...Venue) *MockAPI {
	mock := &MockAPI{
		venues:   venues,
		handlers: make(map[string]http.HandlerFunc),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.LastRequestHeader = r.Header.Clone()
		mock.requests = append(mock.requests, r.URL.RequestURI())
		if r.Header.Get("If-None-Match") != "" || r.Header.Get("If-Modified-Since") != "" {
			mock.ConditionalCount++
		}
		var failure *MockResponse
		if len(mock.failures) > 0 {
			failure = &mock.failures[0]
			mock.failures = mock.failures[1:]
		}
		handler, exists := mock.handlers[r.URL.Path]
		delay := mock.delay
		mock.mu.Unlock()

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}

		switch {
		case failure != nil:
			writeCanned(w, *failure)
		case exists:
			handler(w, r)
		default:
			mock.route(w, r)
		}
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockAPI) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockAPI) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.ConditionalCount = 0
	m.LastRequestHeader = nil
	m.requests = nil
}

// SetVenues replaces the fixtures.
func (m *MockAPI) SetVenues(venues ...Venue) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.venues = venues
}

// SetDelay delays every response by d (or until the request is cancelled).
func (m *MockAPI) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// SetHandler overrides the handler for a specific path.
func (m *MockAPI) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a canned response for a path.
func (m *MockAPI) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		writeCanned(w, resp)
	})
}

// FailNext answers the next requests with resps, in order, whatever their
// path.
func (m *MockAPI) FailNext(resps ...MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, resps...)
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockAPI) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetConditionalCount returns the number of conditional requests.
func (m *MockAPI) GetConditionalCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ConditionalCount
}

// Requests returns the request URIs received, in order.
func (m *MockAPI) Requests() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.requests...)
}

func (m *MockAPI) route(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}
	switch {
	case r.URL.Path == RestaurantsPath:
		m.serveList(w, r)
	case strings.HasPrefix(r.URL.Path, restaurantPath):
		m.serveDetail(w, r, strings.TrimPrefix(r.URL.Path, restaurantPath))
	default:
		writeError(w, http.StatusNotFound, "Not Found")
	}
}

func (m *MockAPI) serveList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := positiveParam(q.Get("limit"), DefaultPageLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}
	page, err := positiveParam(q.Get("page"), 1)
	if err != nil {
		writeError(w, http.StatusBadRequest, "page must be a positive integer")
		return
	}

	matches := m.filter(q.Get("region_id"), q.Get("search"))
	total := len(matches)
	totalPages := (total + limit - 1) / limit

	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	data := make([]map[string]any, 0, end-start)
	for _, v := range matches[start:end] {
		data = append(data, resource(v))
	}

	writeDocument(w, r, map[string]any{
		"data": data,
		"meta": map[string]any{
			"limit":        limit,
			"total_pages":  totalPages,
			"total_count":  total,
			"current_page": page,
		},
	})
}

func (m *MockAPI) serveDetail(w http.ResponseWriter, r *http.Request, id string) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, v := range m.venues {
		if v.ID == id {
			writeDocument(w, r, map[string]any{"data": resource(v)})
			return
		}
	}
	writeError(w, http.StatusNotFound, fmt.Sprintf("Restaurant %s not found", id))
}

func (m *MockAPI) filter(regionID, search string) []Venue {
	m.mu.RLock()
	defer m.mu.RUnlock()

	search = strings.TrimSpace(search)
	out := make([]Venue, 0, len(m.venues))
	for _, v := range m.venues {
		if regionID != "" && v.RegionID != regionID {
			continue
		}
		if search != "" && !fuzzy.MatchNormalizedFold(search, v.Name()) {
			continue
		}
		out = append(out, v)
	}
	return out
}

func resource(v Venue) map[string]any {
	return map[string]any{
		"id":         v.ID,
		"type":       "restaurants",
		"attributes": v.Attributes,
		"relationships": map[string]any{
			"region": map[string]any{
				"data": map[string]any{"id": v.RegionID, "type": "regions"},
			},
		},
	}
}

// writeDocument writes doc with an ETag derived from its bytes and answers
// a matching If-None-Match with 304.
func writeDocument(w http.ResponseWriter, r *http.Request, doc any) {
	body, err := json.Marshal(doc)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h := fnv.New64a()
	h.Write(body)
	etag := fmt.Sprintf(`"%x"`, h.Sum64())

	w.Header().Set("Cache-Control", "max-age=60")
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.api+json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	body, _ := json.Marshal(map[string]any{
		"errors": []map[string]string{{
			"status": strconv.Itoa(status),
			"title":  http.StatusText(status),
			"detail": detail,
		}},
	})
	w.Header().Set("Content-Type", "application/vnd.api+json")
	w.WriteHeader(status)
	w.Write(body)
}

func writeCanned(w http.ResponseWriter, resp MockResponse) {
	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}
	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	w.WriteHeader(resp.StatusCode)
	if resp.Body != "" {
		w.Write([]byte(resp.Body))
	}
}

func positiveParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, fmt.Errorf("invalid value %q", raw)
	}
	return v, nil
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"errors":[{"status":"500","title":"Internal Server Error"}]}`,
		Headers:    map[string]string{"Content-Type": "application/vnd.api+json"},
	}
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse(retryAfter int) MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"errors":[{"status":"429","title":"Too Many Requests"}]}`,
		Headers: map[string]string{
			"Content-Type": "application/vnd.api+json",
			"Retry-After":  strconv.Itoa(retryAfter),
		},
	}
}

// NewMalformedResponse creates a 200 whose body is not valid JSON.
func NewMalformedResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{"data": [`,
		Headers:    map[string]string{"Content-Type": "application/vnd.api+json"},
	}
}
