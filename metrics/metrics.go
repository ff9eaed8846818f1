// Package metrics holds the prometheus collectors for bucket operations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	StatusSuccess  = "success"
	StatusError    = "error"
	StatusConflict = "conflict"
)

var (
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bucket_operations_total",
			Help: "Total number of bucket operations",
		},
		[]string{"operation", "status"},
	)

	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bucket_operation_duration_seconds",
			Help:    "Duration of bucket operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	ConnectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bucket_connections_total",
			Help: "Total number of bucket handles created",
		},
		[]string{"driver"},
	)

	URLResolutionFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bucket_url_resolution_failures_total",
			Help: "Writes which succeeded without a resolvable public URL",
		},
	)
)
