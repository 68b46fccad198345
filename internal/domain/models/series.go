package models

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Raw column names of a daily series.
const (
	ColPrice     = "price"
	ColVolume    = "volume"
	ColSentiment = "sentiment"
	ColPromotion = "promotion"
	ColTrend     = "trend"
)

// Observation is one calendar day of raw data.
type Observation struct {
	Date      time.Time
	Price     float64
	Volume    float64
	Sentiment float64
	Promotion float64
	Trend     float64 // NaN unless the series carries a trend signal
}

// Series is a chronologically ordered table of daily observations.
// Dates are unique and ascending; gaps are allowed.
type Series struct {
	Observations []Observation
	HasTrend     bool
}

// Len returns the number of observations.
func (s Series) Len() int { return len(s.Observations) }

// Columns returns the raw column names in table order.
func (s Series) Columns() []string {
	cols := []string{ColPrice, ColVolume, ColSentiment, ColPromotion}
	if s.HasTrend {
		cols = append(cols, ColTrend)
	}
	return cols
}

// Column returns a copy of the named raw column.
func (s Series) Column(name string) ([]float64, error) {
	out := make([]float64, len(s.Observations))
	for i, o := range s.Observations {
		switch name {
		case ColPrice:
			out[i] = o.Price
		case ColVolume:
			out[i] = o.Volume
		case ColSentiment:
			out[i] = o.Sentiment
		case ColPromotion:
			out[i] = o.Promotion
		case ColTrend:
			if !s.HasTrend {
				return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, name)
			}
			out[i] = o.Trend
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, name)
		}
	}
	return out, nil
}

// Dates returns the observation dates.
func (s Series) Dates() []time.Time {
	out := make([]time.Time, len(s.Observations))
	for i, o := range s.Observations {
		out[i] = o.Date
	}
	return out
}

// Validate checks that dates are strictly ascending.
func (s Series) Validate() error {
	for i := 1; i < len(s.Observations); i++ {
		if !s.Observations[i].Date.After(s.Observations[i-1].Date) {
			return fmt.Errorf("series not strictly ascending at row %d (%s after %s)",
				i, s.Observations[i].Date.Format(time.DateOnly), s.Observations[i-1].Date.Format(time.DateOnly))
		}
	}
	return nil
}

// NormalizeSeries sorts observations by date and keeps the last observation
// seen for a duplicated date.
func NormalizeSeries(obs []Observation) Series {
	sorted := make([]Observation, len(obs))
	copy(sorted, obs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	out := make([]Observation, 0, len(sorted))
	for _, o := range sorted {
		if n := len(out); n > 0 && out[n-1].Date.Equal(o.Date) {
			out[n-1] = o
			continue
		}
		out = append(out, o)
	}
	return Series{Observations: out}
}

// JoinTrend attaches trend values by date. Days without a trend value get NaN
// and are therefore trimmed by the feature pipeline.
func (s Series) JoinTrend(trend map[time.Time]float64) Series {
	out := make([]Observation, len(s.Observations))
	for i, o := range s.Observations {
		v, ok := trend[o.Date]
		if !ok {
			v = math.NaN()
		}
		o.Trend = v
		out[i] = o
	}
	return Series{Observations: out, HasTrend: true}
}

// TrendPoint is one day of keyword interest.
type TrendPoint struct {
	Date  time.Time
	Value float64
}

// TrendByDate indexes trend points by date.
func TrendByDate(points []TrendPoint) map[time.Time]float64 {
	m := make(map[time.Time]float64, len(points))
	for _, p := range points {
		m[p.Date] = p.Value
	}
	return m
}
