package observability

import (
	"time"

	"github.com/Divas-Gupta30/agentflow/workflow-agent/internal/graph"
	"github.com/prometheus/client_golang/prometheus"
)

// ExecutorMetrics records workflow runs and node executions in Prometheus.
type ExecutorMetrics struct {
	runs         *prometheus.CounterVec
	runDuration  prometheus.Histogram
	nodes        *prometheus.CounterVec
	nodeDuration *prometheus.HistogramVec
}

// NewExecutorMetrics registers the executor collectors with reg.
func NewExecutorMetrics(reg prometheus.Registerer) *ExecutorMetrics {
	m := &ExecutorMetrics{
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "workflow_runs_total",
				Help: "Total number of workflow runs by final status",
			},
			[]string{"status"},
		),
		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "workflow_run_duration_seconds",
				Help:    "Workflow run duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
		),
		nodes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "workflow_node_executions_total",
				Help: "Total number of node executions by component and outcome",
			},
			[]string{"component", "outcome"},
		),
		nodeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "workflow_node_duration_seconds",
				Help:    "Node execution duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"component"},
		),
	}
	reg.MustRegister(m.runs, m.runDuration, m.nodes, m.nodeDuration)
	return m
}

// ObserveRun implements graph.Metrics.
func (m *ExecutorMetrics) ObserveRun(status graph.RunStatus, d time.Duration) {
	m.runs.WithLabelValues(string(status)).Inc()
	m.runDuration.Observe(d.Seconds())
}

// ObserveNode implements graph.Metrics.
func (m *ExecutorMetrics) ObserveNode(component graph.ComponentType, degraded bool, d time.Duration) {
	outcome := "ok"
	if degraded {
		outcome = "degraded"
	}
	m.nodes.WithLabelValues(string(component), outcome).Inc()
	m.nodeDuration.WithLabelValues(string(component)).Observe(d.Seconds())
}
