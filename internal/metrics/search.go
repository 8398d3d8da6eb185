package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search Prometheus metrics.
var (
	SearchQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "smartsearch",
			Name:      "search_queries_total",
			Help:      "Total number of search queries",
		},
		[]string{"index", "kind", "status"}, // kind: ask / field / suggest
	)

	SearchQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "smartsearch",
			Name:      "search_query_duration_seconds",
			Help:      "Backend search duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"index", "kind"},
	)

	AnswersResolvedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "smartsearch",
			Name:      "answers_resolved_total",
			Help:      "Total number of answer fields resolved from top hits",
		},
		[]string{"index"},
	)

	EmptyAnswersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "smartsearch",
			Name:      "empty_answers_total",
			Help:      "Queries whose top hit yielded no answer",
		},
		[]string{"index"},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers Prometheus search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchQueriesTotal)
	prometheus.MustRegister(SearchQueryDuration)
	prometheus.MustRegister(AnswersResolvedTotal)
	prometheus.MustRegister(EmptyAnswersTotal)
	searchMetricsRegistered = true
}
