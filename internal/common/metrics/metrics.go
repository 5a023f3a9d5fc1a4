package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed or thrown by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	ToolInvocations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tool_invocations_total",
			Help: "Tool invocations by outcome; failures carry the error code",
		},
		[]string{"tool", "outcome", "error_code"},
	)

	ToolUpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tool_upstream_request_duration_seconds",
			Help:    "Latency of the single upstream request made per tool invocation",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"tool", "status_class"},
	)

	EndpointSelections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "endpoint_selections_total",
			Help: "Endpoint mode selections dispatched through the selector",
		},
		[]string{"mode"},
	)
)

// StatusClass buckets an HTTP status as "2xx", "4xx", ...; 0 means no
// response was received.
func StatusClass(status int) string {
	if status <= 0 {
		return "none"
	}
	return fmt.Sprintf("%dxx", status/100)
}
