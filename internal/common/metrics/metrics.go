// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PipelineRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_requests_total",
			Help: "Total number of orchestration requests processed",
		},
		[]string{"outcome"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "pipeline_stage_duration_seconds",
			Help: "Duration of each pipeline stage in seconds",
		},
		[]string{"stage"},
	)

	CapabilityFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_capability_fallbacks_total",
			Help: "Total number of capability calls that degraded to a fallback",
		},
		[]string{"capability"},
	)

	DecisionOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_decision_outcomes_total",
			Help: "Underwriting decision outcomes by decision and risk band",
		},
		[]string{"decision", "risk_band"},
	)

	OffersGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_offers_total",
			Help: "Offers generated or blocked, by gate result",
		},
		[]string{"blocked_by"},
	)
)
