package trends

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrendPredictor/internal/services/synthetic"
)

func TestSyntheticTrendMatchesSentiment(t *testing.T) {
	end := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	src := NewSyntheticSource(42)
	src.now = func() time.Time { return end }

	points, err := src.FetchTrend(context.Background(), "coffee", 20)
	require.NoError(t, err)
	require.Len(t, points, 20)

	s := synthetic.Generate(synthetic.NewConfig(20, synthetic.WithSeed(42), synthetic.WithEnd(end)))
	for i, p := range points {
		assert.True(t, p.Date.Equal(s.Observations[i].Date))
		assert.Equal(t, s.Observations[i].Sentiment, p.Value)
	}
}

func TestSyntheticTrendErrors(t *testing.T) {
	src := NewSyntheticSource(1)
	_, err := src.FetchTrend(context.Background(), "", 10)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.FetchTrend(ctx, "coffee", 10)
	assert.ErrorIs(t, err, context.Canceled)
}
