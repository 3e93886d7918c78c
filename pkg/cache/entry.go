package cache

import (
	"net/http"
	"time"
)

// Entry is a cached API response.
type Entry struct {
	// Data is the response body
	Data []byte

	// ETag for conditional requests (If-None-Match)
	ETag string

	// Expires is when the entry is dropped (Expires / Cache-Control max-age)
	Expires time.Time

	// LastModified is when the data was last modified (Last-Modified header)
	LastModified time.Time

	// StatusCode is the HTTP status code of the cached response
	StatusCode int

	// Headers are the response headers
	Headers http.Header

	// CachedAt is when we cached this response
	CachedAt time.Time

	// NoStore is set when the server forbade storing the response.
	NoStore bool
}

// IsExpired returns true if the entry has expired.
func (e *Entry) IsExpired() bool {
	return time.Now().After(e.Expires)
}

// TTL returns the time until expiration.
// Returns 0 if already expired.
func (e *Entry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}

// Cacheable reports whether the entry may be stored: a 200 that the server
// did not mark no-store and that can be revalidated.
func (e *Entry) Cacheable() bool {
	return e.StatusCode == http.StatusOK && !e.NoStore && ShouldMakeConditionalRequest(e) && e.TTL() > 0
}
