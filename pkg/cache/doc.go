// Package cache provides the in-memory conditional-request cache used by the
// restaurant API client.
//
// The cache never answers a request on its own: the client always goes to
// the network, and a cached entry only lets it revalidate with
// If-None-Match / If-Modified-Since. A 304 Not Modified answer is then
// served from the entry. Refreshes therefore always reflect the server,
// while unchanged pages cost no payload.
//
// Entries live for the process lifetime at most; nothing is written to
// disk.
//
// # Basic Usage
//
//	manager := cache.NewManager(256)
//
//	key := cache.Key{
//		Endpoint: "/consumer/v2/restaurants",
//		Query:    url.Values{"page": []string{"1"}},
//	}
//
//	entry, err := manager.Get(key)
//	if err == cache.ErrCacheMiss {
//		// plain request
//	} else if cache.ShouldMakeConditionalRequest(entry) {
//		cache.AddConditionalHeaders(req, entry)
//	}
//
// # HTTP Response Caching
//
//	entry, err := cache.ResponseToEntry(resp)
//	if err == nil && entry.Cacheable() {
//		_ = manager.Set(key, entry)
//	}
//
// # Metrics
//
//   - restaurant_api_cache_hits_total - Cache hits
//   - restaurant_api_cache_misses_total - Cache misses
//   - restaurant_api_cache_entries - Entries currently held
//   - restaurant_api_304_responses_total - Conditional request successes
//   - restaurant_api_conditional_requests_total - Conditional requests sent
package cache
