// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "liveclass"

var (
	// HTTPRequests observes API request latency by route and status.
	HTTPRequests = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "API request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	// ProviderRequests counts calls to the conferencing provider API.
	ProviderRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "provider_requests_total",
		Help:      "Conferencing provider API calls by operation and HTTP status.",
	}, []string{"provider", "op", "status"})

	// DownloadAttempts counts recording download attempts per auth strategy.
	DownloadAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "recording_download_attempts_total",
		Help:      "Recording download attempts by auth strategy and result.",
	}, []string{"strategy", "result"})

	// RecordingFiles counts processed recording files by destination and outcome (stored, skipped).
	RecordingFiles = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "recording_files_total",
		Help:      "Recording files processed by destination and outcome.",
	}, []string{"destination", "outcome"})

	// EmailsSent counts invitation emails by kind and result.
	EmailsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "invite_emails_total",
		Help:      "Invitation emails by kind and result.",
	}, []string{"kind", "result"})
)
