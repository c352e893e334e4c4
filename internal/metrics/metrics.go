// Package metrics holds the Prometheus collectors for the attachment store.
// HTTP metrics are recorded by middleware, business metrics by the service layer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attachments_http_requests_total",
			Help: "Total HTTP requests handled by the attachment service",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "attachments_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// Business metrics
var (
	// UploadsTotal counts uploads by result: created, rejected, failed.
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attachments_uploads_total",
			Help: "Upload attempts by result",
		},
		[]string{"result"},
	)

	UploadedBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "attachments_uploaded_bytes_total",
			Help: "Bytes stored by successful uploads",
		},
	)

	TransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attachments_lifecycle_transitions_total",
			Help: "Lifecycle operations by operation and result",
		},
		[]string{"operation", "result"},
	)

	// IntegrityWarningsTotal counts non-fatal integrity events: hash_failed, file_missing, digest_mismatch.
	IntegrityWarningsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attachments_integrity_warnings_total",
			Help: "Non-fatal integrity problems by kind",
		},
		[]string{"kind"},
	)
)
