package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	storeOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_store_operation_duration_seconds",
			Help:    "Document store operation duration in seconds",
			Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"operation", "collection"},
	)

	storeOperationErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_store_operation_errors_total",
			Help: "Document store operations that returned an error",
		},
		[]string{"operation", "collection"},
	)
)

// RecordStoreOperation observes one document store call.
func RecordStoreOperation(operation, collection string, duration time.Duration, err error) {
	storeOperationDuration.WithLabelValues(operation, collection).Observe(duration.Seconds())
	if err != nil {
		storeOperationErrors.WithLabelValues(operation, collection).Inc()
	}
}
