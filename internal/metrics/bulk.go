package metrics

import "github.com/prometheus/client_golang/prometheus"

// Bulk loading Prometheus metrics.
var (
	BulkBatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "smartsearch",
			Name:      "bulk_batches_total",
			Help:      "Total number of submitted bulk batches",
		},
		[]string{"index", "status"},
	)

	BulkItemsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "smartsearch",
			Name:      "bulk_items_total",
			Help:      "Total number of bulk items by outcome",
		},
		[]string{"index", "status"},
	)

	BulkBatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "smartsearch",
			Name:      "bulk_batch_duration_seconds",
			Help:      "Bulk batch submission duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"index"},
	)

	BulkBatchesInFlight = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "smartsearch",
			Name:      "bulk_batches_in_flight",
			Help:      "Bulk batches currently being submitted",
		},
		[]string{"index"},
	)
)

var bulkMetricsRegistered bool

// RegisterBulkMetrics registers Prometheus bulk metrics. Must be called once from main.
func RegisterBulkMetrics() {
	if bulkMetricsRegistered {
		return
	}
	prometheus.MustRegister(BulkBatchesTotal)
	prometheus.MustRegister(BulkItemsTotal)
	prometheus.MustRegister(BulkBatchDuration)
	prometheus.MustRegister(BulkBatchesInFlight)
	bulkMetricsRegistered = true
}
