package metrics

import "github.com/prometheus/client_golang/prometheus"

// Semantic search Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jobwire",
			Name:      "search_requests_total",
			Help:      "Total number of semantic search requests",
		},
		[]string{"status"},
	)

	SearchMatchesReturned = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jobwire",
			Name:      "search_matches_returned",
			Help:      "Number of matches returned per corpus",
			Buckets:   []float64{0, 1, 2, 5, 10, 20},
		},
		[]string{"corpus"},
	)

	SearchCorpusDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jobwire",
			Name:      "search_corpus_duration_seconds",
			Help:      "Vector lookup duration per corpus",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"corpus"},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers Prometheus search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchMatchesReturned)
	prometheus.MustRegister(SearchCorpusDuration)
	searchMetricsRegistered = true
}
