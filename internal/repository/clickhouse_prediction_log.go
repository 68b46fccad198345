package repository

import (
	"context"
	"database/sql"
	"fmt"

	"TrendPredictor/internal/domain/models"
	domrepo "TrendPredictor/internal/domain/repository"
)

// PredictionsSchema creates the audit table written by CHPredictionLog.
func PredictionsSchema(table string) string {
	return fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            id          String,
            served_at   DateTime64(3),
            ticker      String,
            keyword     String,
            days        UInt32,
            source      LowCardinality(String),
            fallback    UInt8,
            day         Date,
            prob_up     Float64,
            pred_up     UInt8,
            has_prob    UInt8
        ) ENGINE = MergeTree
        ORDER BY (served_at, id)`, table)
}

// CHPredictionLog implements PredictionSink with one insert per prediction.
type CHPredictionLog struct {
	db    *sql.DB
	table string
}

var _ domrepo.PredictionSink = (*CHPredictionLog)(nil)

func NewCHPredictionLog(db *sql.DB, table string) *CHPredictionLog {
	return &CHPredictionLog{db: db, table: table}
}

func (s *CHPredictionLog) Record(ctx context.Context, r *models.PredictionRecord) error {
	q := fmt.Sprintf(`INSERT INTO %s (id, served_at, ticker, keyword, days, source, fallback, day, prob_up, pred_up, has_prob)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.table)
	_, err := s.db.ExecContext(ctx, q,
		r.ID,
		r.ServedAt,
		r.Ticker,
		r.Keyword,
		r.Days,
		r.Source,
		boolToUInt8(r.Fallback),
		r.Date,
		r.ProbabilityUp,
		r.PredictedUp,
		boolToUInt8(r.HasProbability),
	)
	if err != nil {
		return fmt.Errorf("insert prediction: %w", err)
	}
	return nil
}

// Close is a no-op; the pool belongs to the ClickHouse client.
func (s *CHPredictionLog) Close() error { return nil }

func boolToUInt8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
