package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fluxgo/internal/status"
)

var (
	// Workflow run latency histogram with percentile-friendly buckets
	workflowRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fluxgo_workflow_run_seconds",
			Help:    "Workflow attempt duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"workflow", "status"},
	)

	// Node execution latency histogram
	nodeExecutionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fluxgo_node_execution_seconds",
			Help:    "Node attempt duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"workflow", "node", "status"},
	)

	// Retry counter by scope (node or workflow)
	retriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fluxgo_retries_total",
			Help: "Total number of retries by scope",
		},
		[]string{"scope"},
	)

	// Async submissions counter
	submissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fluxgo_submissions_total",
			Help: "Total number of run submissions by endpoint",
		},
		[]string{"endpoint"},
	)

	// Currently executing runs gauge
	activeRuns = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fluxgo_active_runs",
			Help: "Current number of in-flight workflow runs",
		},
	)
)

// ObserveWorkflowRun records one finished workflow attempt.
func ObserveWorkflowRun(workflow string, code status.Code, d time.Duration) {
	workflowRunDuration.WithLabelValues(workflow, code.String()).Observe(d.Seconds())
}

// ObserveNodeExecution records one finished node attempt.
func ObserveNodeExecution(workflow, node string, code status.Code, d time.Duration) {
	nodeExecutionDuration.WithLabelValues(workflow, node, code.String()).Observe(d.Seconds())
}

// IncRetry increments the retry counter for "node" or "workflow".
func IncRetry(scope string) {
	retriesTotal.WithLabelValues(scope).Inc()
}

// IncSubmission counts an accepted async submission.
func IncSubmission(endpoint string) {
	submissionsTotal.WithLabelValues(endpoint).Inc()
}

// RunStarted / RunFinished track the in-flight gauge.
func RunStarted()  { activeRuns.Inc() }
func RunFinished() { activeRuns.Dec() }

// Handler exposes the prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
