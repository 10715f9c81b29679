package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CommandsProcessed tracks dispatched requests by command name and outcome.
	CommandsProcessed = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "commands",
			Name:      "processed_total",
			Help:      "Total number of commands dispatched",
		},
		[]string{"command", "status"}, // initializeencryption/register/keep-alive/command/show/databaseconnect, ok/error
	)

	// CommandDuration tracks command dispatch latency.
	CommandDuration = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "commands",
			Name:      "duration_seconds",
			Help:      "Command dispatch duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12), // 0.1ms to 205ms
		},
		[]string{"command"},
	)

	// RequestSize tracks decoded request body sizes.
	RequestSize = promauto.With(Registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "commands",
			Name:      "request_size_bytes",
			Help:      "Size of decoded request bodies in bytes",
			Buckets:   prometheus.ExponentialBuckets(8, 4, 8), // 8B to 128KB
		},
	)
)
