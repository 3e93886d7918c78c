// Package metrics provides the Prometheus registry reference for the
// restaurant feed. All metrics are defined in their respective packages
// (client, cache, ratelimit, feed) to maintain modularity and avoid
// circular dependencies.
//
// This package documents the available metrics and serves them over HTTP.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the feed.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Handler serves the default registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Metrics Documentation
//
// Controller Metrics (pkg/feed):
//   - restaurant_feed_fetches_total{controller, operation, outcome} (Counter): Applied fetch results
//   - restaurant_feed_fetch_duration_seconds{controller, operation} (Histogram): Issue-to-apply latency
//   - restaurant_feed_stale_results_total{controller} (Counter): Results dropped after being superseded
//   - restaurant_feed_refresh_fallbacks_total{controller} (Counter): Failed refreshes that kept loaded data
//   - restaurant_feed_dropped_refreshes_total{controller} (Counter): Refresh triggers ignored while busy
//
// Request Metrics (pkg/client):
//   - restaurant_api_requests_total{endpoint, status} (Counter): Requests by endpoint and HTTP status
//   - restaurant_api_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - restaurant_api_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network)
//   - restaurant_api_decode_errors_total{endpoint} (Counter): Malformed payloads
//
// Retry Metrics (pkg/client):
//   - restaurant_api_retries_total{error_class} (Counter): Retry attempts by error class
//   - restaurant_api_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - restaurant_api_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Cache Metrics (pkg/cache):
//   - restaurant_api_cache_hits_total (Counter): Cache hits
//   - restaurant_api_cache_misses_total (Counter): Cache misses
//   - restaurant_api_cache_entries (Gauge): Entries currently held
//   - restaurant_api_304_responses_total (Counter): 304 Not Modified responses
//   - restaurant_api_conditional_requests_total (Counter): Requests sent with If-None-Match / If-Modified-Since
//
// Rate Limit Metrics (pkg/ratelimit):
//   - restaurant_api_rate_limit_wait_seconds (Histogram): Time spent waiting on the client-side limiter
//   - restaurant_api_rate_limit_blocks_total (Counter): 429 responses that opened a back-off window
//   - restaurant_api_rate_limit_blocked (Gauge): 1 while a Retry-After window holds requests back
//
// Example Prometheus Queries:
//
//   # Share of results dropped as stale
//   sum(rate(restaurant_feed_stale_results_total[5m])) /
//   sum(rate(restaurant_feed_fetches_total[5m]))
//
//   # Silent refresh failures
//   rate(restaurant_feed_refresh_fallbacks_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(restaurant_api_request_duration_seconds_bucket[5m]))
