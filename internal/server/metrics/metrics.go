// Package metrics declares the Prometheus collectors exported by the blog
// server on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blog",
		Name:      "http_requests_total",
		Help:      "HTTP requests by route pattern, method and status code.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "blog",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route pattern and method.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	UploadedBytes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "blog",
		Name:      "uploaded_bytes_total",
		Help:      "Bytes of image data accepted by the upload handler.",
	})

	UploadsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blog",
		Name:      "uploads_rejected_total",
		Help:      "Image uploads rejected, by reason.",
	}, []string{"reason"})

	OrphanedUploadsRemoved = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "blog",
		Name:      "orphaned_uploads_removed_total",
		Help:      "Stored images deleted because the post write that referenced them failed.",
	})
)
