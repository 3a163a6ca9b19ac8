// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package uniprot

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Package-level Prometheus metrics for physical API calls.
var (
	// requestDuration measures single physical calls, not logical queries.
	//
	// Labels:
	//   - operation: "search" or "fetch_sequence"
	//   - status: HTTP status code, or "error" for network failures
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "genefetch",
			Subsystem: "uniprot",
			Name:      "request_duration_seconds",
			Help:      "Duration of physical UniProt API calls in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"operation", "status"},
	)

	// requestsTotal counts physical calls by operation and status.
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "genefetch",
			Subsystem: "uniprot",
			Name:      "requests_total",
			Help:      "Total physical UniProt API calls.",
		},
		[]string{"operation", "status"},
	)

	// retriesTotal counts retry sleeps by reason.
	//
	// Labels:
	//   - operation: "search" or "fetch_sequence"
	//   - reason: "rate_limit", "server_error", "network"
	retriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "genefetch",
			Subsystem: "uniprot",
			Name:      "retries_total",
			Help:      "Total retry sleeps by reason.",
		},
		[]string{"operation", "reason"},
	)
)

func recordRequest(operation, status string, duration time.Duration) {
	requestsTotal.WithLabelValues(operation, status).Inc()
	requestDuration.WithLabelValues(operation, status).Observe(duration.Seconds())
}

func recordRetry(operation, reason string) {
	retriesTotal.WithLabelValues(operation, reason).Inc()
}
