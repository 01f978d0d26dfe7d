// Package metrics defines prometheus collectors of solarscan.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "solarscan"

// results of training and prediction, used as "result" label.
const (
	ResultSuccess  = "success"
	ResultFailure  = "failure"
	ResultConflict = "conflict"
	ResultRejected = "rejected"
)

type Metrics struct {
	registry *prometheus.Registry

	trainingRuns     *prometheus.CounterVec
	trainingDuration prometheus.Histogram
	predictions      *prometheus.CounterVec
	detections       prometheus.Histogram
	modelLoaded      prometheus.Gauge
}

// New creates collectors registered in a registry only for them.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		trainingRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "training_runs_total",
			Help:      "Number of requested training pipeline runs, by result.",
		}, []string{"result"}),
		trainingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "training_duration_seconds",
			Help:      "Time spent for a training pipeline run.",
			Buckets:   prometheus.ExponentialBuckets(10, 2, 12),
		}),
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Number of prediction requests, by result.",
		}, []string{"result"}),
		detections: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "detections_per_image",
			Help:      "Number of objects detected in an image.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
		}),
		modelLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_loaded",
			Help:      "1 if a trained model is being served, 0 otherwise.",
		}),
	}

	m.registry.MustRegister(
		m.trainingRuns, m.trainingDuration,
		m.predictions, m.detections, m.modelLoaded,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves metrics in the exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) TrainingFinished(result string, took time.Duration) {
	m.trainingRuns.WithLabelValues(result).Inc()
	if result == ResultSuccess || result == ResultFailure {
		m.trainingDuration.Observe(took.Seconds())
	}
}

func (m *Metrics) Predicted(result string, detections int) {
	m.predictions.WithLabelValues(result).Inc()
	if result == ResultSuccess {
		m.detections.Observe(float64(detections))
	}
}

func (m *Metrics) ModelLoaded(loaded bool) {
	if loaded {
		m.modelLoaded.Set(1)
	} else {
		m.modelLoaded.Set(0)
	}
}
