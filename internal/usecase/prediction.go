package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"TrendPredictor/internal/domain/models"
	domrepo "TrendPredictor/internal/domain/repository"
	"TrendPredictor/internal/service/cache"
	"TrendPredictor/internal/services/features"
	"TrendPredictor/internal/services/inference"
	"TrendPredictor/pkg/logger"
	"TrendPredictor/pkg/util"
)

// PredictionService serves the prediction for the latest complete day.
type PredictionService struct {
	loader   *SeriesLoader
	holder   *inference.Holder
	cache    cache.BytesCache
	cacheTTL time.Duration
	sink     domrepo.PredictionSink
	events   domrepo.EventPublisher
	metrics  domrepo.Metrics
	log      *logger.Logger
	now      func() time.Time
}

// PredictionOption configures optional collaborators.
type PredictionOption func(*PredictionService)

// WithCache enables response caching. Entries are keyed by model version, so
// a reload never serves stale predictions.
func WithCache(c cache.BytesCache, ttl time.Duration) PredictionOption {
	return func(s *PredictionService) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

// WithPredictionSink records every served prediction.
func WithPredictionSink(sink domrepo.PredictionSink) PredictionOption {
	return func(s *PredictionService) { s.sink = sink }
}

// WithEventPublisher announces served predictions.
func WithEventPublisher(p domrepo.EventPublisher) PredictionOption {
	return func(s *PredictionService) { s.events = p }
}

func NewPredictionService(l *logger.Logger, loader *SeriesLoader, holder *inference.Holder, metrics domrepo.Metrics, opts ...PredictionOption) *PredictionService {
	s := &PredictionService{
		loader:  loader,
		holder:  holder,
		metrics: metrics,
		log:     l.Component("prediction"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PredictResult is a prediction plus where its input came from.
type PredictResult struct {
	Prediction models.Prediction `json:"prediction"`
	Source     string            `json:"source"`
	Fallback   bool              `json:"fallback"`
	Cached     bool              `json:"-"`
}

// ModelStatus describes the model currently served.
type ModelStatus struct {
	Loaded   bool
	Version  string
	LoadedAt time.Time
}

// Status reports the model currently served.
func (s *PredictionService) Status() ModelStatus {
	sc := s.holder.Current()
	return ModelStatus{Loaded: sc.Ready(), Version: sc.Version(), LoadedAt: sc.LoadedAt()}
}

// Predict loads the series for req, builds features and asks the current
// model about the last row. It fails with models.ErrModelUnavailable before
// touching any data source when no model is loaded.
func (s *PredictionService) Predict(ctx context.Context, req models.PredictRequest) (*PredictResult, error) {
	started := s.now()
	sc := s.holder.Current()
	if !sc.Ready() {
		s.metrics.RecordError("model_unavailable")
		return nil, models.ErrModelUnavailable
	}

	key := s.cacheKey(sc.Version(), req, started)
	if res, ok := s.fromCache(ctx, key); ok {
		return res, nil
	}

	loaded, err := s.loader.Load(ctx, LoadParams{Ticker: req.Ticker, Keyword: req.Keyword, Days: req.Days})
	if err != nil {
		s.metrics.RecordError("load_series")
		return nil, err
	}
	table, err := features.Prepare(loaded.Series)
	if err != nil {
		s.metrics.RecordError("features")
		return nil, fmt.Errorf("prepare features: %w", err)
	}
	pred, err := sc.Predict(table, nil)
	if err != nil {
		s.metrics.RecordError("predict")
		return nil, err
	}

	res := &PredictResult{Prediction: pred, Source: loaded.Source, Fallback: loaded.Fallback}
	s.metrics.RecordPrediction(res.Source, pred.ProbabilityUp != nil)
	s.metrics.RecordLatency("predict", s.now().Sub(started).Seconds())
	s.toCache(ctx, key, res)
	s.record(ctx, req, res)
	return res, nil
}

// cacheKey includes the calendar day, so a cached answer never outlives the
// series it was computed from.
func (s *PredictionService) cacheKey(version string, req models.PredictRequest, now time.Time) string {
	return cache.Key(version, util.NormalizeTicker(req.Ticker), req.Keyword,
		strconv.Itoa(req.Days), util.Day(now.UTC()).Format(time.DateOnly))
}

func (s *PredictionService) fromCache(ctx context.Context, key string) (*PredictResult, bool) {
	if s.cache == nil {
		return nil, false
	}
	b, ok, err := s.cache.GetBytes(ctx, key)
	if err != nil {
		s.log.Warn("cache get", logger.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var res PredictResult
	if err := json.Unmarshal(b, &res); err != nil {
		s.log.Warn("cache decode", logger.Error(err))
		return nil, false
	}
	res.Cached = true
	return &res, true
}

func (s *PredictionService) toCache(ctx context.Context, key string, res *PredictResult) {
	if s.cache == nil {
		return
	}
	b, err := json.Marshal(res)
	if err == nil {
		err = s.cache.SetBytes(ctx, key, b, s.cacheTTL)
	}
	if err != nil {
		s.log.Warn("cache set", logger.Error(err))
	}
}

// record stores and announces a served prediction. Failures are logged only.
func (s *PredictionService) record(ctx context.Context, req models.PredictRequest, res *PredictResult) {
	if s.sink == nil && s.events == nil {
		return
	}
	rec := &models.PredictionRecord{
		ID:       uuid.NewString(),
		ServedAt: s.now().UTC(),
		Ticker:   util.NormalizeTicker(req.Ticker),
		Keyword:  req.Keyword,
		Days:     req.Days,
		Source:   res.Source,
		Fallback: res.Fallback,
		Date:     res.Prediction.Date,
	}
	if p := res.Prediction.ProbabilityUp; p != nil {
		rec.ProbabilityUp, rec.HasProbability = *p, true
	}
	if p := res.Prediction.PredictedUp; p != nil {
		rec.PredictedUp = *p
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if s.sink != nil {
		if err := s.sink.Record(ctx, rec); err != nil {
			s.metrics.RecordError("prediction_sink")
			s.log.Warn("record prediction", logger.String("id", rec.ID), logger.Error(err))
		}
	}
	if s.events != nil {
		if err := s.events.PublishPrediction(ctx, rec); err != nil {
			s.metrics.RecordError("publish_prediction")
			s.log.Warn("publish prediction", logger.String("id", rec.ID), logger.Error(err))
		}
	}
}
