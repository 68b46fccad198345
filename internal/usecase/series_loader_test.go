package usecase

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrendPredictor/internal/domain/models"
	"TrendPredictor/pkg/logger"
)

func newLoader(primary *fakeSeriesSource, trends *fakeTrendSource, m *spyMetrics) *SeriesLoader {
	var l *SeriesLoader
	switch {
	case primary != nil && trends != nil:
		l = NewSeriesLoader(logger.Nop(), primary, trends, 42, m)
	case primary != nil:
		l = NewSeriesLoader(logger.Nop(), primary, nil, 42, m)
	case trends != nil:
		l = NewSeriesLoader(logger.Nop(), nil, trends, 42, m)
	default:
		l = NewSeriesLoader(logger.Nop(), nil, nil, 42, m)
	}
	l.now = func() time.Time { return testEnd.Add(15 * time.Hour) }
	return l
}

func TestLoadWithoutTickerIsSynthetic(t *testing.T) {
	src := &fakeSeriesSource{series: realSeries(30)}
	res, err := newLoader(src, nil, newSpyMetrics()).Load(context.Background(), LoadParams{Days: 30})
	require.NoError(t, err)

	assert.Equal(t, SourceSynthetic, res.Source)
	assert.False(t, res.Fallback)
	assert.Nil(t, res.FetchErr)
	assert.Equal(t, 0, src.calls)
	require.Equal(t, 30, res.Series.Len())
	assert.True(t, res.Series.Observations[29].Date.Equal(testEnd))
}

func TestLoadUsesPrimary(t *testing.T) {
	src := &fakeSeriesSource{series: realSeries(20)}
	m := newSpyMetrics()
	res, err := newLoader(src, nil, m).Load(context.Background(), LoadParams{Ticker: " aapl ", Days: 20})
	require.NoError(t, err)

	assert.Equal(t, "fake", res.Source)
	assert.False(t, res.Fallback)
	assert.Equal(t, 1, src.calls)
	assert.Empty(t, m.fallbacks)
}

func TestLoadFallsBackOnFetchError(t *testing.T) {
	src := &fakeSeriesSource{err: errBoom}
	m := newSpyMetrics()
	res, err := newLoader(src, nil, m).Load(context.Background(), LoadParams{Ticker: "AAPL", Days: 40})
	require.NoError(t, err)

	assert.Equal(t, SourceSynthetic, res.Source)
	assert.True(t, res.Fallback)
	assert.ErrorIs(t, res.FetchErr, models.ErrDataUnavailable)
	assert.ErrorIs(t, res.FetchErr, errBoom)
	assert.Equal(t, 40, res.Series.Len())
	assert.Equal(t, 1, m.fallbacks["fake"])
}

func TestLoadFallsBackOnEmptySeries(t *testing.T) {
	res, err := newLoader(&fakeSeriesSource{}, nil, newSpyMetrics()).Load(context.Background(), LoadParams{Ticker: "AAPL", Days: 10})
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	assert.ErrorIs(t, res.FetchErr, models.ErrDataUnavailable)
}

func TestLoadSeedOverride(t *testing.T) {
	l := newLoader(nil, nil, newSpyMetrics())
	seed := uint64(9)
	a, err := l.Load(context.Background(), LoadParams{Days: 15, Seed: &seed})
	require.NoError(t, err)
	b, err := l.Load(context.Background(), LoadParams{Days: 15})
	require.NoError(t, err)
	assert.NotEqual(t, a.Series.Observations[0].Price, b.Series.Observations[0].Price)
}

func TestLoadJoinsTrend(t *testing.T) {
	points := []models.TrendPoint{{Date: testEnd, Value: 0.7}}
	res, err := newLoader(nil, &fakeTrendSource{points: points}, newSpyMetrics()).
		Load(context.Background(), LoadParams{Keyword: "coffee", Days: 3})
	require.NoError(t, err)

	require.True(t, res.Series.HasTrend)
	assert.Equal(t, 0.7, res.Series.Observations[2].Trend)
	assert.True(t, math.IsNaN(res.Series.Observations[0].Trend))
}

func TestLoadTrendFailureIsIgnored(t *testing.T) {
	res, err := newLoader(nil, &fakeTrendSource{err: errBoom}, newSpyMetrics()).
		Load(context.Background(), LoadParams{Keyword: "coffee", Days: 3})
	require.NoError(t, err)
	assert.False(t, res.Series.HasTrend)
}

func TestLoadRejectsBadDays(t *testing.T) {
	_, err := newLoader(nil, nil, newSpyMetrics()).Load(context.Background(), LoadParams{Days: 0})
	assert.Error(t, err)
}

func TestLoadCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newLoader(&fakeSeriesSource{err: errBoom}, nil, newSpyMetrics()).Load(ctx, LoadParams{Ticker: "AAPL", Days: 10})
	assert.ErrorIs(t, err, context.Canceled)
}
