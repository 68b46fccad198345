package repository

import (
	"context"

	"TrendPredictor/internal/domain/models"
)

// SeriesSource fetches a raw daily series for a ticker. Failures are reported
// as *models.FetchError; falling back is the caller's decision.
type SeriesSource interface {
	Name() string
	FetchSeries(ctx context.Context, ticker string, days int) (models.Series, error)
}

// TrendSource fetches daily keyword interest.
type TrendSource interface {
	Name() string
	FetchTrend(ctx context.Context, keyword string, days int) ([]models.TrendPoint, error)
}

// RunStore records training runs.
type RunStore interface {
	SaveRun(ctx context.Context, run *models.TrainingRun) error
	LatestRuns(ctx context.Context, limit int) ([]models.TrainingRun, error)
	Close() error
}

// PredictionSink stores served predictions for later audit.
type PredictionSink interface {
	Record(ctx context.Context, rec *models.PredictionRecord) error
	Close() error
}

// EventPublisher announces model lifecycle and prediction events.
type EventPublisher interface {
	PublishModelTrained(ctx context.Context, ev *models.ModelTrainedEvent) error
	PublishPrediction(ctx context.Context, rec *models.PredictionRecord) error
	Close() error
}

// Metrics records service-level measurements.
type Metrics interface {
	RecordPrediction(source string, probabilistic bool)
	RecordFallback(source string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
	RecordTrainingAccuracy(accuracy float64)
	RecordModelLoaded(loaded bool)
}
