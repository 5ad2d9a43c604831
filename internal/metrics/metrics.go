// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "spendilog"

var (
	// RPCRequests counts every RPC by procedure and Connect code ("ok" on success).
	RPCRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rpc_requests_total",
		Help:      "RPC calls by procedure and result code.",
	}, []string{"procedure", "code"})

	// RPCDuration observes RPC latency by procedure.
	RPCDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "rpc_duration_seconds",
		Help:      "RPC latency by procedure.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"procedure"})

	// BalanceComputations counts balance computations by outcome.
	BalanceComputations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "balance_computations_total",
		Help:      "Balance computations by outcome.",
	}, []string{"result"})

	// ConversionFailures counts conversions that hit a missing rate.
	ConversionFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "conversion_failures_total",
		Help:      "Currency conversions that failed because a rate was missing.",
	}, []string{"currency"})

	// RateRefreshes counts exchange rate refresh attempts by outcome.
	RateRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_refreshes_total",
		Help:      "Exchange rate refresh attempts by outcome.",
	}, []string{"result"})

	// RateSnapshotAge reports the age of the published rate snapshot in seconds.
	RateSnapshotAge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "rate_snapshot_age_seconds",
		Help:      "Age of the published exchange rate snapshot.",
	})

	// EventsPublished counts domain events by type and outcome.
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_published_total",
		Help:      "Domain events by type and publish outcome.",
	}, []string{"type", "result"})
)
