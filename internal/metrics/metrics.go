// Package metrics exposes evaluation counters and latencies to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects evaluation metrics.
//
// Usage:
//
//	registry := prometheus.NewRegistry()
//	m := metrics.New(registry)
//	m.ItemScored("baseline@1", "correct")
//	m.ObserveStage("generate", time.Since(start))
//
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// ItemsScored counts scored benchmark items.
	// Labels: config_id, outcome
	ItemsScored *prometheus.CounterVec

	// StageSeconds measures per-item stage latency in seconds.
	// Labels: stage (generate|execute|score)
	// Buckets: 0.01s, 0.05s, 0.1s, 0.5s, 1s, 2s, 5s, 10s, 30s, 60s
	StageSeconds *prometheus.HistogramVec

	// Runs counts evaluation runs by final status.
	// Labels: status (completed|cancelled|failed)
	Runs *prometheus.CounterVec

	// Accuracy holds the accuracy of the last completed run per config.
	// Labels: config_id
	Accuracy *prometheus.GaugeVec

	gatherer prometheus.Gatherer
}

// New registers the evaluation metrics with reg. Use a fresh registry per
// process or per test; registering twice on the same registry panics.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ItemsScored: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "text2cypher_items_scored_total",
				Help: "Total number of scored benchmark items by config and outcome",
			},
			[]string{"config_id", "outcome"},
		),
		StageSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "text2cypher_stage_duration_seconds",
				Help:    "Duration of per-item evaluation stages in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"stage"},
		),
		Runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "text2cypher_runs_total",
				Help: "Total number of evaluation runs by status",
			},
			[]string{"status"},
		),
		Accuracy: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "text2cypher_run_accuracy",
				Help: "Accuracy of the last completed run per generator config",
			},
			[]string{"config_id"},
		),
		gatherer: reg,
	}
}

// ItemScored records one scored item.
func (m *Metrics) ItemScored(configID, outcome string) {
	if m == nil {
		return
	}
	m.ItemsScored.WithLabelValues(configID, outcome).Inc()
}

// ObserveStage records how long a stage took.
func (m *Metrics) ObserveStage(stage string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.StageSeconds.WithLabelValues(stage).Observe(elapsed.Seconds())
}

// RunFinished records a run's final status and, when completed, its accuracy.
func (m *Metrics) RunFinished(configID, status string, accuracy float64) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(status).Inc()
	if status == "completed" {
		m.Accuracy.WithLabelValues(configID).Set(accuracy)
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
