// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Sync metrics
	SyncRunsTotal     *prometheus.CounterVec
	SyncDuration      prometheus.Histogram
	ActivitiesFetched prometheus.Counter
	SalesUpserted     prometheus.Counter

	// API metrics
	LeaderboardRequests *prometheus.CounterVec
	VolumeRequests      prometheus.Counter
	RequestDuration     *prometheus.HistogramVec

	// Upstream metrics
	MarketplaceCallLatency prometheus.Histogram
	MarketplaceCallErrors  prometheus.Counter

	// Health metrics
	LastSuccessfulSync prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "knights_market"
	}

	return &Metrics{
		// Sync metrics
		SyncRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "runs_total",
			Help:      "Total number of sync runs by status",
		}, []string{"status"}),
		SyncDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "duration_seconds",
			Help:      "Sync run duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
		}),
		ActivitiesFetched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "activities_fetched_total",
			Help:      "Total number of marketplace activities fetched",
		}),
		SalesUpserted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "sales_upserted_total",
			Help:      "Total number of sale records submitted for upsert",
		}),

		// API metrics
		LeaderboardRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "leaderboard_requests_total",
			Help:      "Total number of leaderboard requests by timeframe",
		}, []string{"timeframe"}),
		VolumeRequests: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "volume_requests_total",
			Help:      "Total number of wallet volume requests",
		}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "API request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),

		// Upstream metrics
		MarketplaceCallLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "marketplace",
			Name:      "call_latency_seconds",
			Help:      "Marketplace API call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		MarketplaceCallErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "marketplace",
			Name:      "call_errors_total",
			Help:      "Total number of failed marketplace API calls",
		}),

		// Health metrics
		LastSuccessfulSync: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_sync_timestamp",
			Help:      "Unix timestamp of last successful sync run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordSyncRun records a completed sync run.
func RecordSyncRun(status string, durationSeconds float64) {
	DefaultMetrics.SyncRunsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.SyncDuration.Observe(durationSeconds)
}

// RecordSyncCounts records the fetch and upsert totals of a sync run.
func RecordSyncCounts(activitiesFetched, salesUpserted int) {
	DefaultMetrics.ActivitiesFetched.Add(float64(activitiesFetched))
	DefaultMetrics.SalesUpserted.Add(float64(salesUpserted))
}

// RecordLeaderboardRequest increments the leaderboard request counter.
func RecordLeaderboardRequest(timeframe string) {
	DefaultMetrics.LeaderboardRequests.WithLabelValues(timeframe).Inc()
}

// RecordVolumeRequest increments the wallet volume request counter.
func RecordVolumeRequest() {
	DefaultMetrics.VolumeRequests.Inc()
}

// RecordRequestDuration records API request latency.
func RecordRequestDuration(endpoint string, seconds float64) {
	DefaultMetrics.RequestDuration.WithLabelValues(endpoint).Observe(seconds)
}

// RecordMarketplaceCall records marketplace call metrics.
func RecordMarketplaceCall(seconds float64, err error) {
	DefaultMetrics.MarketplaceCallLatency.Observe(seconds)
	if err != nil {
		DefaultMetrics.MarketplaceCallErrors.Inc()
	}
}

// MarkSyncSuccess sets the last successful sync timestamp.
func MarkSyncSuccess(unixSeconds int64) {
	DefaultMetrics.LastSuccessfulSync.Set(float64(unixSeconds))
}
