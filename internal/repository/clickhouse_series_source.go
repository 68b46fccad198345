package repository

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"TrendPredictor/internal/domain/models"
	domrepo "TrendPredictor/internal/domain/repository"
	svcmetrics "TrendPredictor/internal/service/metrics"
	applogger "TrendPredictor/pkg/logger"
	"TrendPredictor/pkg/util"
)

const ClickHouseSourceName = "clickhouse"

// DailyCandlesSchema creates the table read by CHSeriesSource.
func DailyCandlesSchema(table string) string {
	return fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            symbol    LowCardinality(String),
            day       Date,
            close     Float64,
            volume    Float64,
            sentiment Float64 DEFAULT 0,
            promotion UInt8 DEFAULT 0
        ) ENGINE = ReplacingMergeTree
        ORDER BY (symbol, day)`, table)
}

// CHSeriesSource implements SeriesSource over a daily candles table.
type CHSeriesSource struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
	now   func() time.Time
}

var _ domrepo.SeriesSource = (*CHSeriesSource)(nil)

func NewCHSeriesSource(db *sql.DB, table string) *CHSeriesSource {
	return &CHSeriesSource{db: db, table: table, l: applogger.Nop(), now: time.Now}
}

// SetLogger injects a structured logger.
func (s *CHSeriesSource) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHSeriesSource) Name() string { return ClickHouseSourceName }

// FetchSeries returns the candles stored for ticker over the last days
// calendar days, today included, in ascending order. Gaps (weekends,
// holidays) are kept, matching the Yahoo range semantics.
func (s *CHSeriesSource) FetchSeries(ctx context.Context, ticker string, days int) (models.Series, error) {
	start := time.Now()
	series, err := s.latest(ctx, ticker, days)
	svcmetrics.ObserveFetch(ClickHouseSourceName, start, err)
	if err != nil {
		s.l.Error("clickhouse latest_candles error",
			applogger.String("table", s.table),
			applogger.String("symbol", ticker),
			applogger.Int("days", days),
			applogger.Error(err),
		)
		return models.Series{}, models.NewFetchError(ClickHouseSourceName, ticker, err)
	}
	s.l.Debug("clickhouse latest_candles ok",
		applogger.String("table", s.table),
		applogger.String("symbol", ticker),
		applogger.Int("rows", series.Len()),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return series, nil
}

func (s *CHSeriesSource) latest(ctx context.Context, ticker string, days int) (models.Series, error) {
	if days <= 0 {
		return models.Series{}, fmt.Errorf("invalid days %d", days)
	}
	const qtpl = `
        SELECT day, close, volume, sentiment, promotion
        FROM %s
        WHERE symbol = ? AND day > ?
        ORDER BY day ASC
    `
	cutoff := util.Day(s.now()).AddDate(0, 0, -days)
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(qtpl, s.table), ticker, cutoff)
	if err != nil {
		return models.Series{}, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	obs := make([]models.Observation, 0, days)
	for rows.Next() {
		var (
			o         models.Observation
			promotion int
		)
		if err := rows.Scan(&o.Date, &o.Price, &o.Volume, &o.Sentiment, &promotion); err != nil {
			return models.Series{}, fmt.Errorf("scan candle: %w", err)
		}
		o.Date = util.Day(o.Date)
		o.Promotion = float64(promotion)
		o.Trend = math.NaN()
		obs = append(obs, o)
	}
	if err := rows.Err(); err != nil {
		return models.Series{}, fmt.Errorf("rows: %w", err)
	}
	if len(obs) == 0 {
		return models.Series{}, fmt.Errorf("no candles for %s since %s", ticker, cutoff.Format(time.DateOnly))
	}
	return models.NormalizeSeries(obs), nil
}
