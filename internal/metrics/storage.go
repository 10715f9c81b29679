package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StorageOperations tracks storage-engine mutations by statement kind.
	StorageOperations = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "operations_total",
			Help:      "Total number of storage engine operations",
		},
		[]string{"operation", "status"}, // create_database/create_table/insert/truncate/select/delete/update, ok/error
	)

	// StorageOperationDuration tracks table file read/mutate/write latency.
	StorageOperationDuration = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "operation_duration_seconds",
			Help:      "Storage engine operation duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms to 820ms
		},
		[]string{"operation"},
	)
)
