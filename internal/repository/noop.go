package repository

import (
	"context"

	"TrendPredictor/internal/domain/models"
	domrepo "TrendPredictor/internal/domain/repository"
)

// Nop implementations stand in for infrastructure that is disabled in config.

type NopRunStore struct{}

var _ domrepo.RunStore = NopRunStore{}

func (NopRunStore) SaveRun(context.Context, *models.TrainingRun) error { return nil }
func (NopRunStore) LatestRuns(context.Context, int) ([]models.TrainingRun, error) {
	return []models.TrainingRun{}, nil
}
func (NopRunStore) Close() error { return nil }

type NopPredictionSink struct{}

var _ domrepo.PredictionSink = NopPredictionSink{}

func (NopPredictionSink) Record(context.Context, *models.PredictionRecord) error { return nil }
func (NopPredictionSink) Close() error                                           { return nil }

type NopEventPublisher struct{}

var _ domrepo.EventPublisher = NopEventPublisher{}

func (NopEventPublisher) PublishModelTrained(context.Context, *models.ModelTrainedEvent) error {
	return nil
}
func (NopEventPublisher) PublishPrediction(context.Context, *models.PredictionRecord) error {
	return nil
}
func (NopEventPublisher) Close() error { return nil }
