package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"TrendPredictor/internal/domain/models"
	"TrendPredictor/internal/services/synthetic"
)

var testEnd = time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC)

type fakeSeriesSource struct {
	series models.Series
	err    error
	calls  int
}

func (f *fakeSeriesSource) Name() string { return "fake" }

func (f *fakeSeriesSource) FetchSeries(_ context.Context, ticker string, days int) (models.Series, error) {
	f.calls++
	if f.err != nil {
		return models.Series{}, models.NewFetchError("fake", ticker, f.err)
	}
	return f.series, nil
}

type fakeTrendSource struct {
	points []models.TrendPoint
	err    error
}

func (f *fakeTrendSource) Name() string { return "fake-trends" }

func (f *fakeTrendSource) FetchTrend(context.Context, string, int) ([]models.TrendPoint, error) {
	return f.points, f.err
}

type spyMetrics struct {
	mu          sync.Mutex
	predictions map[string]int
	fallbacks   map[string]int
	errors      map[string]int
	accuracy    float64
	loaded      bool
}

func newSpyMetrics() *spyMetrics {
	return &spyMetrics{predictions: map[string]int{}, fallbacks: map[string]int{}, errors: map[string]int{}}
}

func (m *spyMetrics) RecordPrediction(source string, _ bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictions[source]++
}

func (m *spyMetrics) RecordFallback(source string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallbacks[source]++
}

func (m *spyMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}

func (m *spyMetrics) RecordLatency(string, float64) {}

func (m *spyMetrics) RecordTrainingAccuracy(a float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accuracy = a
}

func (m *spyMetrics) RecordModelLoaded(loaded bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loaded = loaded
}

type memRunStore struct {
	runs []models.TrainingRun
	err  error
}

func (s *memRunStore) SaveRun(_ context.Context, run *models.TrainingRun) error {
	if s.err != nil {
		return s.err
	}
	s.runs = append(s.runs, *run)
	return nil
}

func (s *memRunStore) LatestRuns(_ context.Context, limit int) ([]models.TrainingRun, error) {
	out := make([]models.TrainingRun, 0, limit)
	for i := len(s.runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.runs[i])
	}
	return out, nil
}

func (s *memRunStore) Close() error { return nil }

type memSink struct {
	records []models.PredictionRecord
}

func (s *memSink) Record(_ context.Context, rec *models.PredictionRecord) error {
	s.records = append(s.records, *rec)
	return nil
}

func (s *memSink) Close() error { return nil }

type memPublisher struct {
	trained     []models.ModelTrainedEvent
	predictions int
	err         error
}

func (p *memPublisher) PublishModelTrained(_ context.Context, ev *models.ModelTrainedEvent) error {
	if p.err != nil {
		return p.err
	}
	p.trained = append(p.trained, *ev)
	return nil
}

func (p *memPublisher) PublishPrediction(context.Context, *models.PredictionRecord) error {
	if p.err != nil {
		return p.err
	}
	p.predictions++
	return nil
}

func (p *memPublisher) Close() error { return nil }

var errBoom = errors.New("boom")

func realSeries(days int) models.Series {
	return synthetic.Generate(synthetic.NewConfig(days, synthetic.WithSeed(7), synthetic.WithEnd(testEnd)))
}
