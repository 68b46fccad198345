package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredictionJSON(t *testing.T) {
	prob := 0.625
	p := Prediction{Date: time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC), ProbabilityUp: &prob}
	b, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2024-05-17","prob_up":0.625}`, string(b))

	var back Prediction
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, back.Date.Equal(p.Date))
	require.NotNil(t, back.ProbabilityUp)
	assert.Equal(t, prob, *back.ProbabilityUp)
	assert.Nil(t, back.PredictedUp)
}

func TestPredictionJSONHardLabel(t *testing.T) {
	up := 0
	b, err := json.Marshal(Prediction{Date: time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC), PredictedUp: &up})
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2024-05-17","pred_up":0}`, string(b))
}

func TestFetchErrorIsDataUnavailable(t *testing.T) {
	err := NewFetchError("yahoo", "AAPL", assert.AnError)
	assert.ErrorIs(t, err, ErrDataUnavailable)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "AAPL")
}

func TestJoinTrendMarksMissingDays(t *testing.T) {
	d := func(day int) time.Time { return time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC) }
	s := NormalizeSeries([]Observation{{Date: d(2), Price: 2}, {Date: d(1), Price: 1}, {Date: d(2), Price: 3}})
	require.Equal(t, 2, s.Len())
	assert.Equal(t, 3.0, s.Observations[1].Price)

	joined := s.JoinTrend(TrendByDate([]TrendPoint{{Date: d(1), Value: 0.5}}))
	assert.True(t, joined.HasTrend)
	trend, err := joined.Column(ColTrend)
	require.NoError(t, err)
	assert.Equal(t, 0.5, trend[0])
	assert.NotEqual(t, trend[1], trend[1], "missing day is NaN")

	_, err = s.Column(ColTrend)
	assert.ErrorIs(t, err, ErrUnknownColumn)
}
