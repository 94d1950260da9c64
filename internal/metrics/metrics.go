// V-Vibe - VLiver Swipe Matching and Recommendation Service
// Copyright 2026 V-Vibe Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vvibe/vvibe

// Package metrics exposes Prometheus instrumentation for the ranking core,
// the mirroring pipeline and the HTTP surface.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Swipe and ranking metrics.
	SwipesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vvibe_swipes_total",
			Help: "Total number of swipes recorded",
		},
		[]string{"direction"}, // "like", "pass"
	)

	RankRecomputations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vvibe_rank_recomputations_total",
			Help: "Total number of deck ranking passes",
		},
	)

	RankDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vvibe_rank_duration_seconds",
			Help:    "Duration of a single deck ranking pass",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
	)

	DecksExhausted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vvibe_decks_exhausted_total",
			Help: "Total number of times a session ran out of unseen candidates",
		},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vvibe_active_sessions",
			Help: "Current number of live swipe sessions",
		},
	)

	// Collaborative score fetch metrics.
	CFFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vvibe_cf_fetches_total",
			Help: "Total number of collaborative score fetches by outcome",
		},
		[]string{"outcome"}, // "success", "failure", "stale", "breaker_open"
	)

	CFFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vvibe_cf_fetch_duration_seconds",
			Help:    "Duration of collaborative score RPC calls",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Mirror pipeline metrics.
	MirrorPublishesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vvibe_mirror_publishes_total",
			Help: "Total number of events published to the mirror pipeline",
		},
		[]string{"topic", "outcome"}, // outcome: "ok", "error"
	)

	MirrorWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vvibe_mirror_writes_total",
			Help: "Total number of mirrored database writes by outcome",
		},
		[]string{"topic", "outcome"},
	)

	// Device state metrics.
	DeviceStateErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vvibe_device_state_errors_total",
			Help: "Total number of swallowed device-state read/write failures",
		},
		[]string{"store", "operation"}, // store: "prefs", "favorites"
	)

	// HTTP metrics.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vvibe_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vvibe_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vvibe_websocket_connections",
			Help: "Current number of connected websocket clients",
		},
	)
)

// RecordSwipe increments the swipe counter for a direction.
func RecordSwipe(direction string) {
	SwipesTotal.WithLabelValues(direction).Inc()
}

// RecordRank observes one ranking pass.
func RecordRank(d time.Duration) {
	RankRecomputations.Inc()
	RankDuration.Observe(d.Seconds())
}

// RecordCFFetch records a collaborative score fetch outcome.
func RecordCFFetch(outcome string, d time.Duration) {
	CFFetchesTotal.WithLabelValues(outcome).Inc()
	if outcome == "success" || outcome == "failure" {
		CFFetchDuration.Observe(d.Seconds())
	}
}

// RecordMirrorPublish records a publish attempt on the mirror pipeline.
func RecordMirrorPublish(topic string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	MirrorPublishesTotal.WithLabelValues(topic, outcome).Inc()
}

// RecordMirrorWrite records a mirrored database write.
func RecordMirrorWrite(topic string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	MirrorWritesTotal.WithLabelValues(topic, outcome).Inc()
}

// RecordHTTPRequest records one served HTTP request.
func RecordHTTPRequest(method, route string, status int, d time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
