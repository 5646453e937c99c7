// Package metrics defines prometheus metrics to expose
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Quota decisions
const (
	DecisionCreated   = "created"
	DecisionIncrement = "increment"
	DecisionReset     = "reset"
	DecisionExceeded  = "exceeded"
	DecisionConflict  = "conflict"
)

var (
	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ask_api_upstream_duration_seconds",
			Help:    "Time taken by the generative language service in seconds",
			Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 15, 20, 30, 45, 60},
		},
		[]string{"model", "outcome"},
	)

	QuotaDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ask_api_quota_decisions_total",
			Help: "Daily quota decisions by kind",
		},
		[]string{"decision"},
	)

	VerifyCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ask_api_verify_cache_total",
			Help: "Verified token cache lookups",
		},
		[]string{"result"},
	)

	ErrorCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ask_api_error_count",
			Help: "Error count",
		},
		[]string{"from"},
	)

	ResponseCodes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ask_api_status_code",
			Help: "Status Codes",
		},
		[]string{"path", "status_code"},
	)
)
