package training

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrendPredictor/internal/domain/models"
	"TrendPredictor/internal/services/features"
	"TrendPredictor/internal/services/forest"
	"TrendPredictor/internal/services/synthetic"
)

var end = time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)

func syntheticTable(t *testing.T, days int, seed uint64) models.FeatureTable {
	t.Helper()
	s := synthetic.Generate(synthetic.NewConfig(days, synthetic.WithSeed(seed), synthetic.WithEnd(end)))
	table, err := features.Prepare(s)
	require.NoError(t, err)
	return table
}

func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.Forest = forest.DefaultConfig()
	cfg.Forest.Trees = 20
	return cfg
}

func TestSplit(t *testing.T) {
	cases := []struct{ n, train, test int }{
		{5, 4, 1},
		{10, 8, 2},
		{56, 44, 12},
		{60, 48, 12},
		{361, 288, 73},
		{1, 0, 1},
		{0, 0, 0},
	}
	for _, c := range cases {
		train, test := Split(c.n, 0.2)
		assert.Equal(t, c.train, train, "n=%d", c.n)
		assert.Equal(t, c.test, test, "n=%d", c.n)
	}
}

func TestTrainChronologicalHoldout(t *testing.T) {
	table := syntheticTable(t, 365, 42)
	model, metrics, err := Train(table, table.FeatureColumns(), models.LabelColumn, fastConfig())
	require.NoError(t, err)
	require.NotNil(t, model)

	assert.Equal(t, table.Len(), metrics.TrainRows+metrics.TestRows)
	assert.Equal(t, int(math.Ceil(0.2*float64(table.Len()))), metrics.TestRows)
	assert.True(t, metrics.TrainUntil.Before(metrics.TestFrom))
	assert.True(t, metrics.TestFrom.Equal(table.Dates[metrics.TrainRows]))
	assert.GreaterOrEqual(t, metrics.Accuracy, 0.0)
	assert.LessOrEqual(t, metrics.Accuracy, 1.0)
	assert.Contains(t, metrics.Report, MacroAvg)
	assert.Contains(t, metrics.Report, WeightedAvg)
	assert.Equal(t, metrics.TestRows, metrics.Report[WeightedAvg].Support)
	assert.Equal(t, table.FeatureColumns(), model.Features())
}

func TestTrainDeterministic(t *testing.T) {
	table := syntheticTable(t, 365, 42)
	_, a, err := Train(table, table.FeatureColumns(), models.LabelColumn, DefaultConfig())
	require.NoError(t, err)
	_, b, err := Train(table, table.FeatureColumns(), models.LabelColumn, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, a.Accuracy, b.Accuracy)
	assert.Equal(t, a.Report, b.Report)
}

func TestTrainSmallSyntheticSeries(t *testing.T) {
	table := syntheticTable(t, 60, 123)
	require.Equal(t, 56, table.Len())
	_, metrics, err := Train(table, table.FeatureColumns(), models.LabelColumn, fastConfig())
	require.NoError(t, err)
	assert.Equal(t, 44, metrics.TrainRows)
	assert.Equal(t, 12, metrics.TestRows)
}

func TestTrainRejectsLabelAsPredictor(t *testing.T) {
	table := syntheticTable(t, 60, 1)
	cols := append(table.FeatureColumns(), models.LabelColumn)
	_, _, err := Train(table, cols, models.LabelColumn, fastConfig())
	assert.ErrorIs(t, err, models.ErrLabelLeakage)
}

func TestTrainInsufficientRows(t *testing.T) {
	table := syntheticTable(t, 8, 1)
	require.Equal(t, 4, table.Len())
	_, _, err := Train(table, table.FeatureColumns(), models.LabelColumn, fastConfig())
	assert.ErrorIs(t, err, models.ErrInsufficientData)

	empty := syntheticTable(t, 3, 1)
	_, _, err = Train(empty, empty.FeatureColumns(), models.LabelColumn, fastConfig())
	assert.ErrorIs(t, err, models.ErrInsufficientData)
}

func TestTrainSingleClassFailsFast(t *testing.T) {
	obs := make([]models.Observation, 30)
	for i := range obs {
		obs[i] = models.Observation{
			Date:      end.AddDate(0, 0, i-29),
			Price:     50,
			Volume:    float64(100 + i),
			Sentiment: float64(i) / 10,
			Trend:     math.NaN(),
		}
	}
	table, err := features.Prepare(models.Series{Observations: obs})
	require.NoError(t, err)
	_, _, err = Train(table, table.FeatureColumns(), models.LabelColumn, fastConfig())
	assert.ErrorIs(t, err, models.ErrInsufficientData)
}

func TestTrainUnknownColumn(t *testing.T) {
	table := syntheticTable(t, 60, 1)
	_, _, err := Train(table, []string{"price", "nope"}, models.LabelColumn, fastConfig())
	assert.ErrorIs(t, err, models.ErrUnknownColumn)
}
