package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorder(t *testing.T) {
	r := New(prometheus.NewRegistry())

	r.RecordPrediction("synthetic", true)
	r.RecordPrediction("synthetic", true)
	r.RecordPrediction("yahoo", false)
	r.RecordFallback("yahoo")
	r.RecordTrainingAccuracy(0.61)
	r.RecordModelLoaded(true)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.predictions.WithLabelValues("synthetic", "probability")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.predictions.WithLabelValues("yahoo", "label")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.fallbacks.WithLabelValues("yahoo")))
	assert.Equal(t, 0.61, testutil.ToFloat64(r.accuracy))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.modelLoaded))

	r.RecordModelLoaded(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(r.modelLoaded))
}

func TestRecorderSeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
