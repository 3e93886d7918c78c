package feed

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation labels.
const (
	opFirstPage = "first_page"
	opRefresh   = "refresh"
	opLoadMore  = "load_more"
	opDetails   = "details"
)

// Prometheus metrics for controller activity.
var (
	feedFetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "restaurant_feed_fetches_total",
		Help: "Fetches applied by controllers, by controller, operation and outcome",
	}, []string{"controller", "operation", "outcome"})

	feedFetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "restaurant_feed_fetch_duration_seconds",
		Help:    "Time from issuing a fetch to applying its result",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"controller", "operation"})

	feedStaleResultsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "restaurant_feed_stale_results_total",
		Help: "Results discarded because a newer generation superseded them",
	}, []string{"controller"})

	feedRefreshFallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "restaurant_feed_refresh_fallbacks_total",
		Help: "Failed refreshes that kept the previously loaded data",
	}, []string{"controller"})

	feedDroppedRefreshesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "restaurant_feed_dropped_refreshes_total",
		Help: "Refresh triggers ignored because a load or refresh was in progress",
	}, []string{"controller"})
)

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
