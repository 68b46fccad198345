package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"TrendPredictor/internal/domain/models"
	domrepo "TrendPredictor/internal/domain/repository"
	"TrendPredictor/internal/services/features"
	"TrendPredictor/internal/services/forest"
	"TrendPredictor/internal/services/training"
	"TrendPredictor/pkg/logger"
)

// TrainingService runs the offline pipeline: load, features, train, save.
type TrainingService struct {
	loader  *SeriesLoader
	runs    domrepo.RunStore
	events  domrepo.EventPublisher
	metrics domrepo.Metrics
	log     *logger.Logger
	now     func() time.Time
}

func NewTrainingService(l *logger.Logger, loader *SeriesLoader, runs domrepo.RunStore, events domrepo.EventPublisher, metrics domrepo.Metrics) *TrainingService {
	return &TrainingService{
		loader:  loader,
		runs:    runs,
		events:  events,
		metrics: metrics,
		log:     l.Component("training"),
		now:     time.Now,
	}
}

type TrainParams struct {
	Ticker     string
	Days       int
	Seed       uint64
	OutputPath string
	Config     training.Config
}

// TrainOutcome is the recorded run plus how the input was obtained.
type TrainOutcome struct {
	Run      models.TrainingRun
	Fallback bool
	FetchErr error
}

// Train fits a model on fresh data and writes it to p.OutputPath. Recording
// the run and publishing the event are best effort; the artifact is the result.
func (s *TrainingService) Train(ctx context.Context, p TrainParams) (*TrainOutcome, error) {
	if p.OutputPath == "" {
		return nil, fmt.Errorf("train: empty output path")
	}
	started := s.now()

	seed := p.Seed
	loaded, err := s.loader.Load(ctx, LoadParams{Ticker: p.Ticker, Days: p.Days, Seed: &seed})
	if err != nil {
		return nil, err
	}
	table, err := features.Prepare(loaded.Series)
	if err != nil {
		return nil, fmt.Errorf("prepare features: %w", err)
	}
	s.log.Info("features prepared",
		logger.String("source", loaded.Source),
		logger.Bool("fallback", loaded.Fallback),
		logger.Uint64("seed", seed),
		logger.Int("series_rows", loaded.Series.Len()),
		logger.Int("rows", table.Len()),
		logger.Int("columns", len(table.Columns)),
	)
	s.log.Debug("feature columns", logger.Strings("columns", table.FeatureColumns()))

	model, metrics, err := training.Train(table, table.FeatureColumns(), models.LabelColumn, p.Config)
	if err != nil {
		s.metrics.RecordError("train")
		return nil, err
	}
	if err := forest.Save(model, p.OutputPath); err != nil {
		s.metrics.RecordError("save_model")
		return nil, err
	}
	s.metrics.RecordTrainingAccuracy(metrics.Accuracy)
	s.metrics.RecordLatency("train", s.now().Sub(started).Seconds())

	run := models.TrainingRun{
		ID:           uuid.NewString(),
		CreatedAt:    s.now().UTC(),
		Source:       loaded.Source,
		Ticker:       p.Ticker,
		Days:         p.Days,
		Seed:         p.Seed,
		Rows:         table.Len(),
		Accuracy:     metrics.Accuracy,
		ArtifactPath: p.OutputPath,
		Metrics:      metrics,
	}
	stats := model.Stats()
	s.log.Info("model trained",
		logger.String("run_id", run.ID),
		logger.Float64("accuracy", run.Accuracy),
		logger.Int("train_rows", metrics.TrainRows),
		logger.Int("test_rows", metrics.TestRows),
		logger.Int("trees", stats.Trees),
		logger.Int("nodes", stats.Nodes),
		logger.Int("max_depth", stats.MaxDepth),
		logger.String("path", run.ArtifactPath),
	)

	if err := s.runs.SaveRun(ctx, &run); err != nil {
		s.log.Warn("save training run", logger.String("run_id", run.ID), logger.Error(err))
	}
	if err := s.events.PublishModelTrained(ctx, &models.ModelTrainedEvent{
		RunID:        run.ID,
		ArtifactPath: run.ArtifactPath,
		Accuracy:     run.Accuracy,
		Rows:         run.Rows,
		CreatedAt:    run.CreatedAt,
	}); err != nil {
		s.log.Warn("publish model trained", logger.String("run_id", run.ID), logger.Error(err))
	}

	return &TrainOutcome{Run: run, Fallback: loaded.Fallback, FetchErr: loaded.FetchErr}, nil
}

// Runs lists recent training runs, newest first.
func (s *TrainingService) Runs(ctx context.Context, limit int) ([]models.TrainingRun, error) {
	runs, err := s.runs.LatestRuns(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}
