package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// 比较结果来源：ledger / inferred / asked
	ComparisonsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "songrank_comparisons_total",
			Help: "Total number of pairwise comparisons resolved, by outcome",
		},
		[]string{"outcome"},
	)

	SessionsStartedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "songrank_sessions_started_total",
			Help: "Total number of ranking sessions started or resumed",
		},
	)

	SessionsCompletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "songrank_sessions_completed_total",
			Help: "Total number of ranking sessions that produced a final order",
		},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "songrank_active_sessions",
			Help: "Current number of in-memory ranking sessions",
		},
	)

	StoreErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "songrank_store_errors_total",
			Help: "Total number of key-value store failures, by operation",
		},
		[]string{"op"},
	)

	CatalogFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "songrank_catalog_fetch_duration_seconds",
			Help:    "Duration of playlist catalog fetches in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"driver", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "songrank_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

func RecordComparison(outcome string) {
	ComparisonsTotal.WithLabelValues(outcome).Inc()
}

func RecordStoreError(op string) {
	StoreErrorsTotal.WithLabelValues(op).Inc()
}

func RecordCatalogFetch(driver string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	CatalogFetchDuration.WithLabelValues(driver, status).Observe(duration.Seconds())
}

func RecordAPIRequest(method, route string, statusCode int, duration time.Duration) {
	APIRequestDuration.WithLabelValues(method, route, strconv.Itoa(statusCode)).Observe(duration.Seconds())
}
