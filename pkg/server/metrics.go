/*
Copyright © 2025 Wisecow Authors
SPDX-License-Identifier: Apache-2.0
*/
package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Connection metrics
	connectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wisecow_connections_total",
			Help: "Total number of handled connections by outcome",
		},
		[]string{"outcome"},
	)

	connectionsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wisecow_connections_in_flight",
			Help: "Current number of connections being handled",
		},
	)

	responseDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wisecow_response_duration_seconds",
			Help:    "Time from accepted connection to written response",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Generator metrics
	generatorFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wisecow_generator_failures_total",
			Help: "Total number of content generation failures by reason",
		},
		[]string{"reason"},
	)

	// Accept throttling metrics
	acceptThrottled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wisecow_accept_throttled_total",
			Help: "Total number of connections rejected by the accept throttle",
		},
	)

	// Panic recovery metrics
	panicRecoveries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wisecow_panic_recoveries_total",
			Help: "Total number of panics recovered in connection handlers",
		},
	)
)

// Connection outcome labels.
const (
	outcomeOK          = "ok"
	outcomeFallback    = "fallback"
	outcomeIdleTimeout = "idle_timeout"
	outcomeReadError   = "read_error"
	outcomeWriteError  = "write_error"
	outcomeThrottled   = "throttled"
)
