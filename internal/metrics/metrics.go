// Package metrics exposes Prometheus collectors for speech synthesis.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "castervoice"

// Synthesis outcomes used as the status label.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

var (
	synthesisRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "synthesis_requests_total",
			Help:      "Total number of synthesis requests",
		},
		[]string{"emotion", "status"},
	)

	synthesisDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "synthesis_duration_seconds",
			Help:      "End-to-end synthesis duration in seconds",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"emotion"},
	)

	generationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Duration of speech model generation calls in seconds",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"backend"},
	)

	generatedSamplesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generated_samples_total",
			Help:      "Total number of audio samples produced by the speech model",
		},
		[]string{"backend"},
	)
)

var allMetrics = []prometheus.Collector{
	synthesisRequestsTotal,
	synthesisDuration,
	generationDuration,
	generatedSamplesTotal,
}

// NewRegistry returns a registry holding the castervoice collectors plus Go
// runtime and process metrics.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	for _, c := range allMetrics {
		reg.MustRegister(c)
	}
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

// ObserveSynthesis records one completed synthesize call.
func ObserveSynthesis(emotion, status string, d time.Duration) {
	synthesisRequestsTotal.WithLabelValues(emotion, status).Inc()
	synthesisDuration.WithLabelValues(emotion).Observe(d.Seconds())
}

// ObserveGeneration records one successful model call.
func ObserveGeneration(backend string, d time.Duration, samples int) {
	generationDuration.WithLabelValues(backend).Observe(d.Seconds())
	generatedSamplesTotal.WithLabelValues(backend).Add(float64(samples))
}
