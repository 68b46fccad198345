package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"TrendPredictor/internal/domain/repository"
)

var _ repository.Metrics = (*Recorder)(nil)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	predictions *prometheus.CounterVec
	fallbacks   *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	accuracy    prometheus.Gauge
	modelLoaded prometheus.Gauge
}

// New creates a recorder registered with reg. Tests pass prometheus.NewRegistry().
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		predictions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trend_predictions_total",
				Help: "Predictions served, by data source and output kind",
			},
			[]string{"source", "kind"},
		),
		fallbacks: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trend_series_fallbacks_total",
				Help: "Requests served from synthetic data after a source failed",
			},
			[]string{"source"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trend_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "trend_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		accuracy: f.NewGauge(prometheus.GaugeOpts{
			Name: "trend_training_holdout_accuracy",
			Help: "Holdout accuracy of the most recent training run",
		}),
		modelLoaded: f.NewGauge(prometheus.GaugeOpts{
			Name: "trend_model_loaded",
			Help: "1 when a model is loaded and predictions can be served",
		}),
	}
}

// RecordPrediction counts a served prediction.
func (r *Recorder) RecordPrediction(source string, probabilistic bool) {
	kind := "label"
	if probabilistic {
		kind = "probability"
	}
	r.predictions.WithLabelValues(source, kind).Inc()
}

// RecordFallback counts a synthetic fallback after source failed.
func (r *Recorder) RecordFallback(source string) {
	r.fallbacks.WithLabelValues(source).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordTrainingAccuracy sets the last holdout accuracy.
func (r *Recorder) RecordTrainingAccuracy(accuracy float64) {
	r.accuracy.Set(accuracy)
}

// RecordModelLoaded flags model readiness.
func (r *Recorder) RecordModelLoaded(loaded bool) {
	if loaded {
		r.modelLoaded.Set(1)
		return
	}
	r.modelLoaded.Set(0)
}

// Nop discards all measurements.
type Nop struct{}

var _ repository.Metrics = Nop{}

func (Nop) RecordPrediction(string, bool)  {}
func (Nop) RecordFallback(string)          {}
func (Nop) RecordError(string)             {}
func (Nop) RecordLatency(string, float64)  {}
func (Nop) RecordTrainingAccuracy(float64) {}
func (Nop) RecordModelLoaded(bool)         {}
