package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Prometheus metrics for rate limit tracking.
var (
	rateLimitWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "restaurant_api_rate_limit_wait_seconds",
		Help:    "Time requests spent waiting on the client-side rate limiter",
		Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
	})

	rateLimitBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "restaurant_api_rate_limit_blocks_total",
		Help: "Total number of 429 responses that opened a back-off window",
	})

	rateLimitBlocked = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "restaurant_api_rate_limit_blocked",
		Help: "1 while requests are held back by a Retry-After window",
	})
)

// Config configures a Tracker.
type Config struct {
	// RequestsPerSecond is the sustained rate (0 disables pacing).
	RequestsPerSecond float64

	// Burst is the bucket size (default: DefaultBurst).
	Burst int
}

// DefaultConfig returns the default limiter configuration.
func DefaultConfig() Config {
	return Config{
		RequestsPerSecond: DefaultRequestsPerSecond,
		Burst:             DefaultBurst,
	}
}

// Tracker paces requests and honors server back-off. It is safe for
// concurrent use.
type Tracker struct {
	limiter *rate.Limiter
	logger  zerolog.Logger

	mu           sync.Mutex
	blockedUntil time.Time
	lastUpdate   time.Time
}

// NewTracker creates a new rate limit tracker.
func NewTracker(cfg Config, logger zerolog.Logger) *Tracker {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultBurst
	}
	return &Tracker{
		limiter: rate.NewLimiter(limit, cfg.Burst),
		logger:  logger,
	}
}

// GetState returns the current limiter state.
func (t *Tracker) GetState() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return State{
		Tokens:       t.limiter.Tokens(),
		BlockedUntil: t.blockedUntil,
		LastUpdate:   t.lastUpdate,
	}
}

// Wait blocks until a request may be sent: first until any Retry-After
// window has passed, then until the token bucket admits it. It returns the
// context error if ctx ends first.
func (t *Tracker) Wait(ctx context.Context) error {
	start := time.Now()
	defer func() {
		rateLimitWaitSeconds.Observe(time.Since(start).Seconds())
	}()

	state := t.GetState()
	if wait := state.BlockedFor(); wait > 0 {
		t.logger.Warn().
			Dur("wait_duration", wait).
			Msg("Restaurant API back-off active - delaying request")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		rateLimitBlocked.Set(0)
	}

	if err := t.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("rate limiter: %w", err)
	}
	return nil
}

// UpdateFromResponse opens a back-off window when resp is a 429. It returns
// the window length, or 0 when resp did not limit us.
func (t *Tracker) UpdateFromResponse(resp *http.Response) time.Duration {
	if resp == nil || resp.StatusCode != http.StatusTooManyRequests {
		return 0
	}

	now := time.Now()
	backoff, ok := ParseRetryAfter(resp.Header, now)
	if !ok {
		backoff = DefaultBackoff
	}

	t.mu.Lock()
	until := now.Add(backoff)
	if until.After(t.blockedUntil) {
		t.blockedUntil = until
	}
	t.lastUpdate = now
	t.mu.Unlock()

	rateLimitBlocksTotal.Inc()
	rateLimitBlocked.Set(1)

	t.logger.Warn().
		Dur("retry_after", backoff).
		Bool("header_present", ok).
		Msg("Restaurant API rate limit hit - backing off")

	return backoff
}
