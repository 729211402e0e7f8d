// Package metrics exposes Prometheus collectors for the paper pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/examgen/examgen-api/internal/generation"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the pipeline collectors registered on one registry.
type Metrics struct {
	registry *prometheus.Registry

	generations    *prometheus.CounterVec
	modelAttempts  *prometheus.CounterVec
	renderDuration prometheus.Histogram
	renderPages    prometheus.Histogram
}

// New creates a registry with the pipeline collectors plus the Go runtime and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		generations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "examgen_generation_total",
				Help: "Papers produced, by text source and pipeline outcome",
			},
			[]string{"source", "outcome"},
		),
		modelAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "examgen_model_attempts_total",
				Help: "Generation attempts per model candidate and result",
			},
			[]string{"model", "result"},
		),
		renderDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "examgen_render_duration_seconds",
				Help:    "Time spent rendering documents",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
		),
		renderPages: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "examgen_render_pages",
				Help:    "Page count of rendered documents",
				Buckets: []float64{1, 2, 3, 4, 6, 8, 12, 16},
			},
		),
	}
}

// ObserveGeneration counts one completed pipeline run.
func (m *Metrics) ObserveGeneration(source, outcome string) {
	m.generations.WithLabelValues(source, outcome).Inc()
}

// ObserveAttempt counts one call against a model candidate. Its signature
// matches generation.AttemptObserver.
func (m *Metrics) ObserveAttempt(c generation.Candidate, outcome string) {
	m.modelAttempts.WithLabelValues(c.String(), outcome).Inc()
}

// ObserveRender records a successful render.
func (m *Metrics) ObserveRender(d time.Duration, pages int) {
	m.renderDuration.Observe(d.Seconds())
	m.renderPages.Observe(float64(pages))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
