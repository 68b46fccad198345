package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrendPredictor/internal/domain/models"
)

func TestSQLiteRunStore(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteRunStore(ctx, ":memory:")
	require.NoError(t, err)
	defer store.Close()

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.SaveRun(ctx, &models.TrainingRun{
			ID:           id,
			CreatedAt:    base.Add(time.Duration(i) * time.Hour),
			Source:       "synthetic",
			Days:         365,
			Seed:         42,
			Rows:         361,
			Accuracy:     0.5 + float64(i)/10,
			ArtifactPath: "model.json",
			Metrics: models.Metrics{
				Accuracy: 0.5 + float64(i)/10,
				Report:   map[string]models.ClassReport{"1": {Precision: 0.6, Recall: 0.5, F1: 0.54, Support: 40}},
			},
		}))
	}

	runs, err := store.LatestRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].ID)
	assert.Equal(t, "b", runs[1].ID)
	assert.True(t, runs[0].CreatedAt.Equal(base.Add(2*time.Hour)))
	assert.Equal(t, uint64(42), runs[0].Seed)
	assert.InDelta(t, 0.7, runs[0].Accuracy, 1e-12)
	assert.Equal(t, 40, runs[0].Metrics.Report["1"].Support)

	err = store.SaveRun(ctx, &models.TrainingRun{ID: "a", CreatedAt: base})
	assert.Error(t, err, "duplicate id")
}

func TestSQLiteRunStoreLargeSeed(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteRunStore(ctx, ":memory:")
	require.NoError(t, err)
	defer store.Close()

	seed := uint64(1<<63 + 5)
	require.NoError(t, store.SaveRun(ctx, &models.TrainingRun{ID: "x", CreatedAt: time.Now(), Seed: seed}))
	runs, err := store.LatestRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, seed, runs[0].Seed)
}
