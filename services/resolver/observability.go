// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package resolver

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Package-level Prometheus metrics for resolution outcomes.
// Auto-registered via promauto so no explicit registry wiring is needed.
var (
	// resolutionDuration measures end-to-end per-gene resolution time,
	// including every strategy attempt and transport retry.
	//
	// Labels:
	//   - outcome: "resolved", "not_found", "rate_limited",
	//     "transport_error", "invalid_input"
	resolutionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "genefetch",
			Subsystem: "resolver",
			Name:      "resolution_duration_seconds",
			Help:      "Duration of per-gene resolutions in seconds.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"outcome"},
	)

	// resolutionsTotal counts resolutions by outcome.
	resolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "genefetch",
			Subsystem: "resolver",
			Name:      "resolutions_total",
			Help:      "Total per-gene resolutions by outcome.",
		},
		[]string{"outcome"},
	)

	// strategyHitsTotal counts which waterfall step produced the selection.
	//
	// Labels:
	//   - strategy: "1".."4"
	strategyHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "genefetch",
			Subsystem: "resolver",
			Name:      "strategy_hits_total",
			Help:      "Successful resolutions by waterfall strategy index.",
		},
		[]string{"strategy"},
	)

	// ambiguousTotal counts successful resolutions that had more than one
	// candidate at the succeeding strategy.
	ambiguousTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "genefetch",
			Subsystem: "resolver",
			Name:      "ambiguous_total",
			Help:      "Successful resolutions flagged ambiguous.",
		},
	)
)

// outcomeLabel maps a result to a label-safe outcome string, mirroring the
// failure-kind taxonomy to keep label cardinality fixed.
func outcomeLabel(res ResolutionResult) string {
	if res.Resolved() {
		return "resolved"
	}
	if res.Failure != nil {
		return string(res.Failure.Kind)
	}
	return string(KindNotFound)
}

// recordResolution updates all resolution metrics for one finished gene.
func recordResolution(res ResolutionResult, duration time.Duration) {
	outcome := outcomeLabel(res)
	resolutionsTotal.WithLabelValues(outcome).Inc()
	resolutionDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	if res.Resolved() {
		strategyHitsTotal.WithLabelValues(strategyLabel(res.StrategyIndex)).Inc()
		if res.Ambiguous {
			ambiguousTotal.Inc()
		}
	}
}

func strategyLabel(index int) string {
	switch index {
	case 0:
		return "1"
	case 1:
		return "2"
	case 2:
		return "3"
	case 3:
		return "4"
	default:
		return "unknown"
	}
}
