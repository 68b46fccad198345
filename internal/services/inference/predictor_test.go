package inference

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrendPredictor/internal/domain/models"
	"TrendPredictor/internal/services/features"
	"TrendPredictor/internal/services/forest"
	"TrendPredictor/internal/services/synthetic"
	"TrendPredictor/internal/services/training"
)

var end = time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)

// hardLabel predicts 1 when the first feature exceeds a threshold.
type hardLabel struct {
	threshold float64
	seen      []float64
}

func (h *hardLabel) Predict(row []float64) int {
	h.seen = row
	if row[0] > h.threshold {
		return 1
	}
	return 0
}

func table(t *testing.T, days int) models.FeatureTable {
	t.Helper()
	s := synthetic.Generate(synthetic.NewConfig(days, synthetic.WithSeed(123), synthetic.WithEnd(end)))
	tbl, err := features.Prepare(s)
	require.NoError(t, err)
	return tbl
}

func trained(t *testing.T, tbl models.FeatureTable) *forest.Forest {
	t.Helper()
	cfg := training.DefaultConfig()
	cfg.Forest.Trees = 10
	m, _, err := training.Train(tbl, tbl.FeatureColumns(), models.LabelColumn, cfg)
	require.NoError(t, err)
	return m
}

func TestPredictWithoutModel(t *testing.T) {
	tbl := table(t, 60)
	_, err := Predict(nil, tbl, tbl.FeatureColumns())
	assert.ErrorIs(t, err, models.ErrModelUnavailable)

	_, err = NewServiceContext().Predict(tbl, tbl.FeatureColumns())
	assert.ErrorIs(t, err, models.ErrModelUnavailable)
}

func TestPredictEmptyTable(t *testing.T) {
	_, err := Predict(&hardLabel{}, models.FeatureTable{}, nil)
	assert.ErrorIs(t, err, models.ErrEmptyFeatureTable)
}

func TestPredictProbabilisticUsesLastRow(t *testing.T) {
	tbl := table(t, 120)
	m := trained(t, tbl)

	p, err := Predict(m, tbl, tbl.FeatureColumns())
	require.NoError(t, err)
	require.NotNil(t, p.ProbabilityUp)
	assert.Nil(t, p.PredictedUp)
	assert.True(t, p.Date.Equal(tbl.Dates[tbl.Len()-1]))

	row, err := tbl.Row(tbl.Len()-1, m.Features())
	require.NoError(t, err)
	assert.Equal(t, m.PredictProba(row), *p.ProbabilityUp)
}

func TestPredictHardLabel(t *testing.T) {
	tbl := table(t, 60)
	h := &hardLabel{threshold: -1}
	p, err := Predict(h, tbl, []string{"price", "volume"})
	require.NoError(t, err)
	require.NotNil(t, p.PredictedUp)
	assert.Nil(t, p.ProbabilityUp)
	assert.Equal(t, 1, *p.PredictedUp)

	last, _ := tbl.Row(tbl.Len()-1, []string{"price", "volume"})
	assert.Equal(t, last, h.seen)
}

func TestPredictUsesModelColumnOrder(t *testing.T) {
	tbl := table(t, 120)
	m := trained(t, tbl)

	reversed := tbl.FeatureColumns()
	for i, j := 0, len(reversed)-1; i < j; i, j = i+1, j-1 {
		reversed[i], reversed[j] = reversed[j], reversed[i]
	}
	a, err := Predict(m, tbl, tbl.FeatureColumns())
	require.NoError(t, err)
	b, err := Predict(m, tbl, reversed)
	require.NoError(t, err)
	assert.Equal(t, *a.ProbabilityUp, *b.ProbabilityUp)
}

func TestPredictRejectsLabelColumn(t *testing.T) {
	tbl := table(t, 60)
	_, err := Predict(&hardLabel{}, tbl, []string{"price", models.LabelColumn})
	assert.ErrorIs(t, err, models.ErrLabelLeakage)
}

func TestLoadContextMissingFile(t *testing.T) {
	ctx, err := LoadContext(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
	require.NotNil(t, ctx)
	assert.False(t, ctx.Ready())
}

func TestHolderReloadAndSwap(t *testing.T) {
	tbl := table(t, 120)
	m := trained(t, tbl)
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, forest.Save(m, path))

	h := NewHolder(nil)
	assert.False(t, h.Current().Ready())

	_, err := h.Reload(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
	assert.False(t, h.Current().Ready())

	next, err := h.Reload(path)
	require.NoError(t, err)
	assert.Same(t, next, h.Current())
	assert.Equal(t, path, h.Current().Path())
	assert.NotEmpty(t, h.Current().Version())

	p, err := h.Current().Predict(tbl, nil)
	require.NoError(t, err)
	row, _ := tbl.Row(tbl.Len()-1, m.Features())
	assert.Equal(t, m.PredictProba(row), *p.ProbabilityUp)

	prev := h.Swap(NewServiceContext())
	assert.Same(t, next, prev)
	assert.False(t, h.Current().Ready())
}

func TestHolderConcurrentReaders(t *testing.T) {
	h := NewHolder(NewServiceContext().WithModel(&hardLabel{}, "a", "v1"))
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				assert.NotNil(t, h.Current())
			}
		}()
	}
	for j := 0; j < 50; j++ {
		h.Swap(NewServiceContext().WithModel(&hardLabel{}, "b", "v2"))
	}
	wg.Wait()
	assert.Equal(t, "v2", h.Current().Version())
}
