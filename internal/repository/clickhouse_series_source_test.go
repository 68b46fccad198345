package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"TrendPredictor/internal/domain/models"
)

// The queries are plain SQL, so an in-memory SQLite table stands in for ClickHouse.
func openCandles(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE daily_candles (
        symbol TEXT, day DATE, close REAL, volume REAL, sentiment REAL, promotion INTEGER)`)
	require.NoError(t, err)

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		_, err := db.Exec(`INSERT INTO daily_candles VALUES (?, ?, ?, ?, ?, ?)`,
			"AAPL", start.AddDate(0, 0, i), 100+float64(i), 1000+float64(i), 0.1, i%2)
		require.NoError(t, err)
	}
	return db
}

func newTestCHSource(t *testing.T, table string, today time.Time) *CHSeriesSource {
	src := NewCHSeriesSource(openCandles(t), table)
	src.now = func() time.Time { return today }
	return src
}

func TestCHSeriesSourceCalendarWindow(t *testing.T) {
	// Candles cover 2024-03-01..2024-03-10.
	src := newTestCHSource(t, "daily_candles", time.Date(2024, 3, 10, 15, 30, 0, 0, time.UTC))
	s, err := src.FetchSeries(context.Background(), "AAPL", 4)
	require.NoError(t, err)
	require.Equal(t, 4, s.Len())
	require.NoError(t, s.Validate())

	assert.True(t, s.Observations[0].Date.Equal(time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 106.0, s.Observations[0].Price)
	assert.Equal(t, 109.0, s.Observations[3].Price)
	assert.Equal(t, 1.0, s.Observations[3].Promotion)
	assert.False(t, s.HasTrend)
}

func TestCHSeriesSourceWindowIsCalendarDaysNotRows(t *testing.T) {
	// Five days after the last stored candle, a 7-day window only reaches
	// back to 2024-03-09, so two rows come back rather than seven.
	src := newTestCHSource(t, "daily_candles", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
	s, err := src.FetchSeries(context.Background(), "AAPL", 7)
	require.NoError(t, err)
	require.Equal(t, 2, s.Len())
	assert.True(t, s.Observations[0].Date.Equal(time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)))

	_, err = src.FetchSeries(context.Background(), "AAPL", 3)
	assert.ErrorIs(t, err, models.ErrDataUnavailable)
}

func TestCHSeriesSourceUnknownTicker(t *testing.T) {
	src := newTestCHSource(t, "daily_candles", time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC))
	_, err := src.FetchSeries(context.Background(), "MSFT", 4)
	assert.ErrorIs(t, err, models.ErrDataUnavailable)
}

func TestCHSeriesSourceQueryError(t *testing.T) {
	src := newTestCHSource(t, "missing_table", time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC))
	_, err := src.FetchSeries(context.Background(), "AAPL", 4)
	assert.ErrorIs(t, err, models.ErrDataUnavailable)
}

func TestCHPredictionLogRecord(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	defer db.Close()
	_, err = db.Exec(`CREATE TABLE predictions (id TEXT, served_at DATETIME, ticker TEXT, keyword TEXT, days INTEGER,
        source TEXT, fallback INTEGER, day DATE, prob_up REAL, pred_up INTEGER, has_prob INTEGER)`)
	require.NoError(t, err)

	log := NewCHPredictionLog(db, "predictions")
	require.NoError(t, log.Record(context.Background(), &models.PredictionRecord{
		ID:             "p1",
		ServedAt:       time.Now().UTC(),
		Source:         "synthetic",
		Days:           180,
		Fallback:       true,
		Date:           time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC),
		ProbabilityUp:  0.64,
		HasProbability: true,
	}))

	var (
		prob     float64
		fallback int
	)
	require.NoError(t, db.QueryRow(`SELECT prob_up, fallback FROM predictions WHERE id = 'p1'`).Scan(&prob, &fallback))
	assert.Equal(t, 0.64, prob)
	assert.Equal(t, 1, fallback)
	assert.NoError(t, log.Close())
}
