// Package metrics holds the Prometheus collectors for the service.
//
// Collectors are registered on the default registry through promauto, so
// importing the package is enough for them to appear on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts counts register and login calls by outcome
	// ("success", "duplicate_email", "unknown_email", "bad_password", "error").
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movieflix_auth_attempts_total",
			Help: "Total number of registration and login attempts",
		},
		[]string{"operation", "outcome"},
	)

	// FavoriteOperations counts favorites list/add/remove calls by outcome.
	FavoriteOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movieflix_favorite_operations_total",
			Help: "Total number of favorites operations",
		},
		[]string{"operation", "outcome"},
	)

	StoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "movieflix_store_query_duration_seconds",
			Help:    "Duration of store transactions in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "operation"},
	)
)

// ObserveQuery records the time elapsed since start for a store operation.
//
//	defer metrics.ObserveQuery("neo4j", "add_favorite", time.Now())
func ObserveQuery(backend, operation string, start time.Time) {
	StoreQueryDuration.WithLabelValues(backend, operation).Observe(time.Since(start).Seconds())
}

// RecordAuth increments AuthAttempts.
func RecordAuth(operation, outcome string) {
	AuthAttempts.WithLabelValues(operation, outcome).Inc()
}

// RecordFavorite increments FavoriteOperations.
func RecordFavorite(operation, outcome string) {
	FavoriteOperations.WithLabelValues(operation, outcome).Inc()
}
