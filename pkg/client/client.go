// Package client provides the HTTP client for the restaurant API with rate
// limiting, conditional-request caching, retries and error classification.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/restaurant-feed/pkg/cache"
	"github.com/Sternrassler/restaurant-feed/pkg/logging"
	"github.com/Sternrassler/restaurant-feed/pkg/ratelimit"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for restaurant API client operations.
var (
	apiRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "restaurant_api_requests_total",
		Help: "Total restaurant API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	apiRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "restaurant_api_request_duration_seconds",
		Help:    "Restaurant API request duration in seconds by endpoint",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	apiErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "restaurant_api_errors_total",
		Help: "Total restaurant API errors by class",
	}, []string{"class"})

	apiDecodeErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "restaurant_api_decode_errors_total",
		Help: "Total malformed restaurant API payloads by endpoint",
	}, []string{"endpoint"})
)

// RequestIDHeader carries a per-request id for server-side correlation.
const RequestIDHeader = "X-Request-ID"

// Client is the restaurant API client. It is safe for concurrent use.
type Client struct {
	httpClient  *http.Client
	baseURL     *url.URL
	rateLimiter *ratelimit.Tracker
	cache       *cache.Manager
	config      Config
	logger      zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the restaurant API, e.g. "https://api.example.com" (REQUIRED)
	BaseURL string

	// User-Agent header (REQUIRED)
	// Format: "AppName/Version (contact@example.com)"
	UserAgent string

	// Timeout per HTTP attempt
	Timeout time.Duration

	// Rate Limiting
	RateLimit ratelimit.Config

	// Caching
	CacheEnabled    bool
	CacheMaxEntries int

	// Retry
	Retry RetryConfig

	// HTTPClient overrides the transport (for testing). Timeout is ignored
	// when set.
	HTTPClient *http.Client

	// Logger overrides the component logger.
	Logger *zerolog.Logger
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(baseURL, userAgent string) Config {
	return Config{
		BaseURL:         baseURL,
		UserAgent:       userAgent,
		Timeout:         30 * time.Second,
		RateLimit:       ratelimit.DefaultConfig(),
		CacheEnabled:    true,
		CacheMaxEntries: cache.DefaultMaxEntries,
		Retry:           DefaultRetryConfig(),
	}
}

// New creates a new restaurant API client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http or https (got %q)", cfg.BaseURL)
	}

	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.Retry.MaxAttempts < 1 {
		return nil, fmt.Errorf("retry max attempts must be >= 1 (got %d)", cfg.Retry.MaxAttempts)
	}

	logger := logging.NewLogger("api-client")
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	var cacheManager *cache.Manager
	if cfg.CacheEnabled {
		cacheManager = cache.NewManager(cfg.CacheMaxEntries)
	}

	return &Client{
		httpClient:  httpClient,
		baseURL:     base,
		rateLimiter: ratelimit.NewTracker(cfg.RateLimit, logger),
		cache:       cacheManager,
		config:      cfg,
		logger:      logger,
	}, nil
}

// Do performs an HTTP request with rate limiting, caching, and error handling.
// Responses with status >= 400 that are not retried are returned to the
// caller with a nil error.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	endpoint := endpointLabel(req.URL.Path)

	startTime := time.Now()
	defer func() {
		apiRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	// Step 1: Check Cache
	cacheKey := cache.Key{
		Endpoint: req.URL.Path,
		Query:    req.URL.Query(),
	}

	var cachedEntry *cache.Entry
	if c.cache != nil && req.Method == http.MethodGet {
		entry, err := c.cache.Get(cacheKey)
		if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Cache get error")
		}
		cachedEntry = entry
	}

	// Step 2: Set headers
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")
	if req.Header.Get(RequestIDHeader) == "" {
		req.Header.Set(RequestIDHeader, uuid.NewString())
	}

	// Step 3: Make Conditional Request if cache hit
	if cachedEntry != nil && cache.ShouldMakeConditionalRequest(cachedEntry) {
		cache.AddConditionalHeaders(req, cachedEntry)
		cache.ConditionalRequestsSent.Inc()
		c.logger.Debug().
			Str("endpoint", endpoint).
			Str("etag", cachedEntry.ETag).
			Msg("Making conditional request")
	}

	c.logger.Debug().
		Str("endpoint", req.URL.Path).
		Str("method", req.Method).
		Str("request_id", req.Header.Get(RequestIDHeader)).
		Msg("Executing restaurant API request")

	// Step 4: Execute HTTP Request with Retry Logic
	var resp *http.Response
	retryErr := retryWithBackoff(ctx, c.config.Retry, c.logger, func() error {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: %w", ErrContextCancelled, err)
		}

		var reqErr error
		resp, reqErr = c.httpClient.Do(req.Clone(ctx))
		if reqErr != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("%w: %w", ErrContextCancelled, ctx.Err())
			}
			c.logger.Debug().Err(reqErr).Str("endpoint", endpoint).Msg("HTTP request failed")
			apiErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			apiRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
			return &APIError{Class: ErrorClassNetwork, Message: "request failed", Err: reqErr}
		}

		c.rateLimiter.UpdateFromResponse(resp)
		apiRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

		if resp.StatusCode < 400 {
			return nil
		}

		errClass := classifyStatus(resp.StatusCode)
		apiErrorsTotal.WithLabelValues(string(errClass)).Inc()
		c.logger.Debug().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Str("error_class", string(errClass)).
			Msg("Restaurant API request error")

		if shouldRetry(errClass) {
			apiErr := statusError(resp, "")
			resp.Body.Close()
			resp = nil
			return apiErr
		}

		// Client errors are handed to the caller
		return nil
	})

	if retryErr != nil {
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		return nil, retryErr
	}

	// Step 5: Handle 304 Not Modified
	if resp.StatusCode == http.StatusNotModified && cachedEntry != nil {
		c.logger.Debug().Str("endpoint", endpoint).Msg("304 Not Modified - using cache")
		cache.NotModifiedResponses.Inc()

		if newExpires, ok := cache.RefreshedExpiry(resp.Header, time.Now()); ok {
			if err := c.cache.UpdateTTL(cacheKey, newExpires); err != nil {
				c.logger.Warn().Err(err).Msg("Failed to update cache TTL")
			}
		}

		resp.Body.Close()
		return cache.EntryToResponse(cachedEntry), nil
	}

	// Step 6: Update Cache on success
	if c.cache != nil && resp.StatusCode == http.StatusOK {
		entry, err := cache.ResponseToEntry(resp)
		if err != nil {
			c.logger.Warn().Err(err).Msg("Failed to create cache entry")
		} else if entry.Cacheable() {
			if err := c.cache.Set(cacheKey, entry); err != nil {
				c.logger.Warn().Err(err).Msg("Failed to cache response")
			} else {
				c.logger.Debug().
					Str("endpoint", endpoint).
					Dur("ttl", entry.TTL()).
					Msg("Cached response")
			}
		}
	}

	return resp, nil
}

// Get performs a GET request to an endpoint relative to the base URL.
func (c *Client) Get(ctx context.Context, endpoint string, query url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolve(endpoint, query), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	return c.Do(req)
}

// GetJSON performs a GET and decodes a 200 body into out. Error statuses
// become an *APIError; a 404 wraps ErrNotFound. A body that does not decode
// into out wraps ErrDecoding.
func (c *Client) GetJSON(ctx context.Context, endpoint string, query url.Values, out any) error {
	resp, err := c.Get(ctx, endpoint, query)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{StatusCode: resp.StatusCode, Class: ErrorClassNetwork, Message: "read body", Err: err}
	}

	if resp.StatusCode >= 400 {
		return statusError(resp, errorMessage(body, resp.Status))
	}

	if err := json.Unmarshal(body, out); err != nil {
		apiDecodeErrorsTotal.WithLabelValues(endpointLabel(endpoint)).Inc()
		return fmt.Errorf("%w: %s: %v", ErrDecoding, endpoint, err)
	}
	return nil
}

// Close closes the client and releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// GetCache returns the cache manager, nil when caching is disabled (for testing).
func (c *Client) GetCache() *cache.Manager {
	return c.cache
}

// RateLimiter returns the rate limit tracker.
func (c *Client) RateLimiter() *ratelimit.Tracker {
	return c.rateLimiter
}

func (c *Client) resolve(endpoint string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + strings.TrimPrefix(endpoint, "/")
	u.RawQuery = query.Encode()
	return u.String()
}

// errorMessage extracts a message from a JSON:API style error body.
func errorMessage(body []byte, fallback string) string {
	var payload struct {
		Errors []struct {
			Title  string `json:"title"`
			Detail string `json:"detail"`
		} `json:"errors"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) != nil {
		return fallback
	}
	if len(payload.Errors) > 0 {
		if payload.Errors[0].Detail != "" {
			return payload.Errors[0].Detail
		}
		if payload.Errors[0].Title != "" {
			return payload.Errors[0].Title
		}
	}
	if payload.Message != "" {
		return payload.Message
	}
	return fallback
}

// endpointLabel collapses id segments so metric labels stay bounded:
// "/consumer/v2/restaurants/42" becomes "/consumer/v2/restaurants/{id}".
func endpointLabel(path string) string {
	segments := strings.Split(path, "/")
	for i, s := range segments {
		if i > 0 && strings.ContainsAny(s, "0123456789") && !isVersion(s) {
			segments[i] = "{id}"
		}
	}
	return strings.Join(segments, "/")
}

func isVersion(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}
	_, err := strconv.Atoi(s[1:])
	return err == nil
}
