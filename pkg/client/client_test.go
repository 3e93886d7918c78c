package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Sternrassler/restaurant-feed/pkg/ratelimit"
	"github.com/rs/zerolog"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()

	cfg := DefaultConfig(baseURL, "RestaurantFeedTest/1.0 (test@example.com)")
	cfg.Retry = fastRetry()
	cfg.RateLimit = ratelimit.Config{}
	logger := zerolog.Nop()
	cfg.Logger = &logger

	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestNew_Validation(t *testing.T) {
	valid := DefaultConfig("https://api.example.com", "TestApp/1.0.0 (test@example.com)")

	tests := []struct {
		name     string
		mutate   func(*Config)
		errorMsg string
	}{
		{
			name:   "valid config",
			mutate: func(*Config) {},
		},
		{
			name:     "missing base url",
			mutate:   func(c *Config) { c.BaseURL = "" },
			errorMsg: "base url is required",
		},
		{
			name:     "unsupported scheme",
			mutate:   func(c *Config) { c.BaseURL = "ftp://api.example.com" },
			errorMsg: `base url must be http or https (got "ftp://api.example.com")`,
		},
		{
			name:     "empty user agent",
			mutate:   func(c *Config) { c.UserAgent = "" },
			errorMsg: "user-agent is required",
		},
		{
			name:     "no attempts",
			mutate:   func(c *Config) { c.Retry.MaxAttempts = 0 },
			errorMsg: "retry max attempts must be >= 1 (got 0)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			client, err := New(cfg)

			if tt.errorMsg != "" {
				if err == nil {
					t.Fatalf("Expected error %q but got nil", tt.errorMsg)
				}
				if err.Error() != tt.errorMsg {
					t.Errorf("Error message = %q, want %q", err.Error(), tt.errorMsg)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if client == nil {
				t.Fatal("Expected client but got nil")
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("https://api.example.com", "TestApp/1.0.0")

	if cfg.BaseURL != "https://api.example.com" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.Timeout)
	}
	if !cfg.CacheEnabled {
		t.Error("CacheEnabled = false, want true")
	}
	if cfg.Retry.MaxAttempts != 3 {
		t.Errorf("Retry.MaxAttempts = %d, want 3", cfg.Retry.MaxAttempts)
	}
	if cfg.RateLimit.RequestsPerSecond != ratelimit.DefaultRequestsPerSecond {
		t.Errorf("RateLimit.RequestsPerSecond = %v", cfg.RateLimit.RequestsPerSecond)
	}
}

func TestDo_HeadersSet(t *testing.T) {
	var gotUA, gotAccept, gotRequestID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		gotRequestID = r.Header.Get(RequestIDHeader)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	resp, err := c.Get(context.Background(), "/consumer/v2/restaurants", nil)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	resp.Body.Close()

	if gotUA != "RestaurantFeedTest/1.0 (test@example.com)" {
		t.Errorf("User-Agent = %q", gotUA)
	}
	if gotAccept != "application/json" {
		t.Errorf("Accept = %q", gotAccept)
	}
	if len(gotRequestID) != 36 {
		t.Errorf("X-Request-ID = %q, want a UUID", gotRequestID)
	}
}

func TestGet_ResolvesAgainstBaseURL(t *testing.T) {
	var gotPath, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
	}))
	defer server.Close()

	c := newTestClient(t, server.URL+"/api/")
	resp, err := c.Get(context.Background(), "consumer/v2/restaurants", url.Values{"page": {"2"}, "limit": {"10"}})
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	resp.Body.Close()

	if gotPath != "/api/consumer/v2/restaurants" {
		t.Errorf("path = %q", gotPath)
	}
	if gotQuery != "limit=10&page=2" {
		t.Errorf("query = %q", gotQuery)
	}
}

func TestDo_ConditionalRequestAnd304(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.Header().Set("Cache-Control", "max-age=120")
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		w.Header().Set("Cache-Control", "max-age=60")
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"data":{"id":"1"}}`)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	ctx := context.Background()

	var first struct{ Data struct{ ID string } }
	if err := c.GetJSON(ctx, "/consumer/v2/restaurants/1", nil, &first); err != nil {
		t.Fatalf("first GetJSON() error = %v", err)
	}
	if c.GetCache().Len() != 1 {
		t.Fatalf("cache Len() = %d, want 1", c.GetCache().Len())
	}

	var second struct{ Data struct{ ID string } }
	if err := c.GetJSON(ctx, "/consumer/v2/restaurants/1", nil, &second); err != nil {
		t.Fatalf("second GetJSON() error = %v", err)
	}

	if second.Data.ID != "1" {
		t.Errorf("304 body = %+v, want cached body", second)
	}
	if calls.Load() != 2 {
		t.Errorf("server calls = %d, want 2", calls.Load())
	}
}

func TestDo_NoCacheWithoutValidators(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{}`)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	var out map[string]any
	if err := c.GetJSON(context.Background(), "/x", nil, &out); err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}
	if c.GetCache().Len() != 0 {
		t.Errorf("cache Len() = %d, want 0", c.GetCache().Len())
	}
}

func TestDo_RetryOnServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, `{"ok":true}`)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	var out struct{ OK bool }
	if err := c.GetJSON(context.Background(), "/x", nil, &out); err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}
	if !out.OK || calls.Load() != 3 {
		t.Errorf("out = %+v after %d calls, want ok after 3", out, calls.Load())
	}
}

func TestDo_NoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"errors":[{"title":"Bad Request","detail":"region_id is invalid"}]}`)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	err := c.GetJSON(context.Background(), "/x", nil, &struct{}{})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected *APIError, got %v", err)
	}
	if apiErr.Class != ErrorClassClient || apiErr.Message != "region_id is invalid" {
		t.Errorf("APIError = %+v", apiErr)
	}
	if calls.Load() != 1 {
		t.Errorf("server calls = %d, want 1", calls.Load())
	}
}

func TestGetJSON_NotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	c := newTestClient(t, server.URL)
	err := c.GetJSON(context.Background(), "/consumer/v2/restaurants/999", nil, &struct{}{})

	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestGetJSON_Decoding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data": [`)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	err := c.GetJSON(context.Background(), "/x", nil, &struct{}{})

	if !errors.Is(err, ErrDecoding) {
		t.Errorf("Expected ErrDecoding, got %v", err)
	}
}

func TestDo_RetryOnRateLimit(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		io.WriteString(w, `{}`)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	if err := c.GetJSON(context.Background(), "/x", nil, &struct{}{}); err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("server calls = %d, want 2", calls.Load())
	}
}

func TestDo_RetryExhausted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	_, err := c.Get(context.Background(), "/x", nil)

	if !errors.Is(err, ErrRetryExhausted) {
		t.Fatalf("Expected ErrRetryExhausted, got %v", err)
	}
	if ClassOf(err) != ErrorClassServer {
		t.Errorf("ClassOf() = %q, want server", ClassOf(err))
	}
}

func TestDo_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	baseURL := server.URL
	server.Close()

	c := newTestClient(t, baseURL)
	_, err := c.Get(context.Background(), "/x", nil)

	if ClassOf(err) != ErrorClassNetwork {
		t.Errorf("ClassOf() = %q, want network (err = %v)", ClassOf(err), err)
	}
}

func TestDo_ContextCancelled(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	c := newTestClient(t, server.URL)
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	_, err := c.Get(ctx, "/x", nil)
	if !errors.Is(err, ErrContextCancelled) || !errors.Is(err, context.Canceled) {
		t.Errorf("Expected ErrContextCancelled wrapping context.Canceled, got %v", err)
	}
}

func TestEndpointLabel(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/consumer/v2/restaurants", "/consumer/v2/restaurants"},
		{"/consumer/v2/restaurants/42", "/consumer/v2/restaurants/{id}"},
		{"/consumer/v2/restaurants/abc-1f", "/consumer/v2/restaurants/{id}"},
		{"/health", "/health"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := endpointLabel(tt.path); got != tt.want {
				t.Errorf("endpointLabel(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}
