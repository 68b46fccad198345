package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"TrendPredictor/internal/domain/models"
	domrepo "TrendPredictor/internal/domain/repository"
)

const runsSchema = `
    CREATE TABLE IF NOT EXISTS training_runs (
        id            TEXT PRIMARY KEY,
        created_at    INTEGER NOT NULL,
        source        TEXT NOT NULL,
        ticker        TEXT NOT NULL DEFAULT '',
        days          INTEGER NOT NULL,
        seed          INTEGER NOT NULL,
        row_count     INTEGER NOT NULL,
        accuracy      REAL NOT NULL,
        artifact_path TEXT NOT NULL,
        metrics       TEXT NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_training_runs_created ON training_runs (created_at DESC);
`

// SQLiteRunStore keeps the training run registry in a local SQLite file.
type SQLiteRunStore struct {
	db *sql.DB
}

var _ domrepo.RunStore = (*SQLiteRunStore)(nil)

// NewSQLiteRunStore opens dsn and creates the schema if needed.
func NewSQLiteRunStore(ctx context.Context, dsn string) (*SQLiteRunStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	// One writer at a time; also keeps ":memory:" on a single connection.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, runsSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}
	return &SQLiteRunStore{db: db}, nil
}

func (s *SQLiteRunStore) SaveRun(ctx context.Context, run *models.TrainingRun) error {
	metrics, err := json.Marshal(run.Metrics)
	if err != nil {
		return fmt.Errorf("encode metrics: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
        INSERT INTO training_runs (id, created_at, source, ticker, days, seed, row_count, accuracy, artifact_path, metrics)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.CreatedAt.UTC().UnixMilli(),
		run.Source,
		run.Ticker,
		run.Days,
		int64(run.Seed),
		run.Rows,
		run.Accuracy,
		run.ArtifactPath,
		string(metrics),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// LatestRuns returns up to limit runs, newest first.
func (s *SQLiteRunStore) LatestRuns(ctx context.Context, limit int) ([]models.TrainingRun, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, created_at, source, ticker, days, seed, row_count, accuracy, artifact_path, metrics
        FROM training_runs
        ORDER BY created_at DESC, id DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	out := make([]models.TrainingRun, 0, limit)
	for rows.Next() {
		var (
			r       models.TrainingRun
			created int64
			seed    int64
			metrics string
		)
		if err := rows.Scan(&r.ID, &created, &r.Source, &r.Ticker, &r.Days, &seed, &r.Rows, &r.Accuracy, &r.ArtifactPath, &metrics); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.CreatedAt = time.UnixMilli(created).UTC()
		r.Seed = uint64(seed)
		if err := json.Unmarshal([]byte(metrics), &r.Metrics); err != nil {
			return nil, fmt.Errorf("decode metrics for run %s: %w", r.ID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteRunStore) Close() error {
	return s.db.Close()
}
