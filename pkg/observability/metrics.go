package observability

import (
	"context"

	"github.com/aretw0/jarvis/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors fed by engine hooks.
type Metrics struct {
	nodeVisits   *prometheus.CounterVec
	nodeErrors   *prometheus.CounterVec
	nodeDuration *prometheus.HistogramVec
	fanOut       prometheus.Histogram
	runs         *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		nodeVisits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jarvis_node_visits_total",
				Help: "Total number of node executions",
			},
			[]string{"node_id"},
		),
		nodeErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jarvis_node_errors_total",
				Help: "Total number of node executions that returned an error",
			},
			[]string{"node_id"},
		),
		nodeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "jarvis_node_duration_seconds",
				Help:    "Duration of node executions",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"node_id"},
		),
		fanOut: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "jarvis_superstep_fan_out",
				Help:    "Number of nodes run together in a superstep",
				Buckets: []float64{1, 2, 3, 4, 5, 8},
			},
		),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jarvis_runs_total",
				Help: "Run lifecycle transitions by outcome",
			},
			[]string{"outcome"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.nodeVisits, m.nodeErrors, m.nodeDuration, m.fanOut, m.runs)
	}
	return m
}

// Hooks returns lifecycle hooks recording into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(_ context.Context, e *domain.NodeEvent) {
			m.nodeVisits.WithLabelValues(e.NodeID).Inc()
			if e.FanOut > 0 {
				m.fanOut.Observe(float64(e.FanOut))
			}
		},
		OnNodeLeave: func(_ context.Context, e *domain.NodeEvent) {
			m.nodeDuration.WithLabelValues(e.NodeID).Observe(e.Duration.Seconds())
			if e.Err != nil {
				m.nodeErrors.WithLabelValues(e.NodeID).Inc()
			}
		},
		OnSuspend: func(context.Context, *domain.RunEvent) {
			m.runs.WithLabelValues("suspended").Inc()
		},
		OnResume: func(context.Context, *domain.RunEvent) {
			m.runs.WithLabelValues("resumed").Inc()
		},
		OnComplete: func(context.Context, *domain.RunEvent) {
			m.runs.WithLabelValues("completed").Inc()
		},
		OnFail: func(context.Context, *domain.RunEvent) {
			m.runs.WithLabelValues("failed").Inc()
		},
	}
}
