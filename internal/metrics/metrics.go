// Package metrics holds the prometheus collectors of the sync pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pncp_upstream_requests_total",
			Help: "Upstream PNCP requests by report and HTTP status (or transport_error)",
		},
		[]string{"report", "status"},
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pncp_upstream_request_duration_seconds",
			Help:    "Duration of upstream PNCP requests",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"report"},
	)

	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pncp_circuit_breaker_state",
			Help: "Upstream circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)

	SyncCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pncp_sync_cycles_total",
			Help: "Sync cycles by report, mode (on_demand, batch) and outcome",
		},
		[]string{"report", "mode", "outcome"}, // outcome: ok, validation, upstream, storage, partial
	)

	RecordsUpserted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pncp_records_upserted_total",
			Help: "Records written by natural-key upsert",
		},
		[]string{"report"},
	)

	UpsertFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pncp_upsert_failures_total",
			Help: "Records whose upsert failed",
		},
		[]string{"report"},
	)

	BatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pncp_batch_duration_seconds",
			Help:    "Duration of background batch runs",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	BatchLastRun = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pncp_batch_last_run_timestamp",
			Help: "Unix timestamp of the last finished batch run",
		},
	)
)
