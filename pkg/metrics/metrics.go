// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// LLMCompletionDuration tracks completion-service call duration.
	LLMCompletionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_completion_duration_seconds",
			Help:    "Completion service call duration",
			Buckets: []float64{.5, 1, 2, 5, 10, 20, 30, 45, 60, 90},
		},
		[]string{"model", "status"},
	)

	// LLMTokensTotal tracks total LLM tokens processed.
	LLMTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Total LLM tokens processed",
		},
		[]string{"model", "direction"},
	)

	// CoachTurnsTotal tracks coach turns by outcome.
	CoachTurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coach_turns_total",
			Help: "Coach turns by outcome",
		},
		[]string{"outcome"},
	)

	// CoachActionsTotal tracks decided actions by type and resulting status.
	CoachActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coach_actions_total",
			Help: "Coach actions by type and status",
		},
		[]string{"type", "status"},
	)

	// ActionParseTotal tracks action parser outcomes.
	ActionParseTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coach_action_parse_total",
			Help: "Action parser outcomes",
		},
		[]string{"outcome"},
	)

	// WorkerJobsTotal tracks worker jobs by outcome.
	WorkerJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coach_worker_jobs_total",
			Help: "Worker pipeline jobs by outcome",
		},
		[]string{"outcome"},
	)

	// SnapshotRefreshTotal tracks context snapshot refreshes.
	SnapshotRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coach_snapshot_refresh_total",
			Help: "Context snapshot refreshes by status",
		},
		[]string{"status"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordCompletion records metrics for a completion-service call.
func RecordCompletion(model, status string, duration float64, tokensIn, tokensOut int) {
	LLMCompletionDuration.WithLabelValues(model, status).Observe(duration)
	LLMTokensTotal.WithLabelValues(model, "in").Add(float64(tokensIn))
	LLMTokensTotal.WithLabelValues(model, "out").Add(float64(tokensOut))
}

// RecordAction records a ledger outcome for an action type.
func RecordAction(actionType, status string) {
	CoachActionsTotal.WithLabelValues(actionType, status).Inc()
}
