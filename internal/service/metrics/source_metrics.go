package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	SourceLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "trend",
			Subsystem: "source",
			Name:      "fetch_seconds",
			Help:      "Latency of raw series and trend fetches",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	SourceErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trend",
			Subsystem: "source",
			Name:      "errors_total",
			Help:      "Failed fetches by source",
		},
		[]string{"source"},
	)
)

// Register adds the source collectors to reg once per process.
func Register(reg prometheus.Registerer) {
	once.Do(func() {
		reg.MustRegister(SourceLatency, SourceErrors)
	})
}

// ObserveFetch records one fetch attempt against source.
func ObserveFetch(source string, started time.Time, err error) {
	SourceLatency.WithLabelValues(source).Observe(time.Since(started).Seconds())
	if err != nil {
		SourceErrors.WithLabelValues(source).Inc()
	}
}
