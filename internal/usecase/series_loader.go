package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"TrendPredictor/internal/domain/models"
	domrepo "TrendPredictor/internal/domain/repository"
	"TrendPredictor/internal/services/synthetic"
	"TrendPredictor/pkg/logger"
	"TrendPredictor/pkg/util"
)

// SourceSynthetic names series produced by the synthetic generator.
const SourceSynthetic = "synthetic"

// SeriesLoader picks the raw series for a request: the real source when a
// ticker is given and the fetch succeeds, synthetic data otherwise.
type SeriesLoader struct {
	primary domrepo.SeriesSource
	trends  domrepo.TrendSource
	seed    uint64
	metrics domrepo.Metrics
	log     *logger.Logger
	now     func() time.Time
}

// NewSeriesLoader wires the loader. primary and trends may be nil.
func NewSeriesLoader(l *logger.Logger, primary domrepo.SeriesSource, trends domrepo.TrendSource, seed uint64, metrics domrepo.Metrics) *SeriesLoader {
	return &SeriesLoader{
		primary: primary,
		trends:  trends,
		seed:    seed,
		metrics: metrics,
		log:     l.Component("series-loader"),
		now:     time.Now,
	}
}

type LoadParams struct {
	Ticker  string
	Keyword string
	Days    int
	// Seed overrides the loader's synthetic seed when set.
	Seed *uint64
}

// LoadResult reports where the series came from. FetchErr is the failure
// that caused a fallback and is nil otherwise.
type LoadResult struct {
	Series   models.Series
	Source   string
	Fallback bool
	FetchErr error
}

// Load returns the series for p. Fetch failures of the real source are
// recovered by falling back; only invalid parameters and cancellation fail.
func (l *SeriesLoader) Load(ctx context.Context, p LoadParams) (*LoadResult, error) {
	if p.Days <= 0 {
		return nil, fmt.Errorf("load series: invalid days %d", p.Days)
	}
	ticker := util.NormalizeTicker(p.Ticker)

	res := &LoadResult{}
	if ticker != "" && l.primary != nil {
		s, err := l.primary.FetchSeries(ctx, ticker, p.Days)
		switch {
		case err == nil && s.Len() > 0:
			res.Series, res.Source = s, l.primary.Name()
		case ctx.Err() != nil:
			return nil, ctx.Err()
		default:
			if err == nil {
				err = models.NewFetchError(l.primary.Name(), ticker, errors.New("empty series"))
			}
			l.log.Warn("series fetch failed, using synthetic data",
				logger.String("source", l.primary.Name()),
				logger.String("ticker", ticker),
				logger.Error(err),
			)
			l.metrics.RecordFallback(l.primary.Name())
			res.Fallback, res.FetchErr = true, err
		}
	}
	if res.Source == "" {
		res.Series, res.Source = l.synthetic(p), SourceSynthetic
	}

	if p.Keyword != "" && l.trends != nil {
		points, err := l.trends.FetchTrend(ctx, p.Keyword, p.Days)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			l.log.Warn("trend fetch failed, continuing without trend",
				logger.String("source", l.trends.Name()),
				logger.String("keyword", p.Keyword),
				logger.Error(err),
			)
		} else {
			res.Series = res.Series.JoinTrend(models.TrendByDate(points))
		}
	}
	return res, nil
}

func (l *SeriesLoader) synthetic(p LoadParams) models.Series {
	seed := l.seed
	if p.Seed != nil {
		seed = *p.Seed
	}
	return synthetic.Generate(synthetic.NewConfig(p.Days,
		synthetic.WithSeed(seed),
		synthetic.WithEnd(util.Day(l.now().UTC())),
	))
}
