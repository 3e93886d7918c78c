// Package ratelimit gates outgoing restaurant API requests. A client-side
// token bucket paces requests, and a 429 response with Retry-After blocks
// every request until the server's window has passed.
package ratelimit

import (
	"net/http"
	"strconv"
	"time"
)

// Defaults for the client-side token bucket.
const (
	// DefaultRequestsPerSecond is the sustained request rate.
	DefaultRequestsPerSecond = 10

	// DefaultBurst is the number of requests allowed at once.
	DefaultBurst = 20

	// DefaultBackoff applies when a 429 carries no usable Retry-After.
	DefaultBackoff = 30 * time.Second

	// MaxBackoff caps a server-provided Retry-After.
	MaxBackoff = 5 * time.Minute
)

// State is a snapshot of the limiter.
type State struct {
	// Tokens available in the bucket right now.
	Tokens float64 `json:"tokens"`

	// BlockedUntil is set after a 429; no request is sent before it.
	BlockedUntil time.Time `json:"blocked_until"`

	// LastUpdate is when BlockedUntil was last set.
	LastUpdate time.Time `json:"last_update"`
}

// IsBlocked returns true while a Retry-After window is open.
func (s *State) IsBlocked() bool {
	if s.BlockedUntil.IsZero() {
		return false
	}
	return time.Now().Before(s.BlockedUntil)
}

// BlockedFor returns how long the Retry-After window stays open.
// Returns 0 if not blocked.
func (s *State) BlockedFor() time.Duration {
	if s.BlockedUntil.IsZero() {
		return 0
	}
	d := time.Until(s.BlockedUntil)
	if d < 0 {
		return 0
	}
	return d
}

// ParseRetryAfter reads a Retry-After header given either as delta seconds
// or as an HTTP date. The result is capped at MaxBackoff. ok is false when
// the header is missing or malformed.
func ParseRetryAfter(headers http.Header, now time.Time) (time.Duration, bool) {
	value := headers.Get("Retry-After")
	if value == "" {
		return 0, false
	}

	var d time.Duration
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		d = time.Duration(seconds) * time.Second
	} else if at, err := http.ParseTime(value); err == nil {
		d = at.Sub(now)
		if d < 0 {
			d = 0
		}
	} else {
		return 0, false
	}

	if d > MaxBackoff {
		d = MaxBackoff
	}
	return d, true
}
