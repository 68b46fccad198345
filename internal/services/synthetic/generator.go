// Package synthetic generates reproducible daily market series.
package synthetic

import (
	"math"
	"math/rand/v2"
	"time"

	"TrendPredictor/internal/domain/models"
	"TrendPredictor/pkg/util"
)

const (
	// DefaultDays is the series length used by the training entry point.
	DefaultDays = 365
	// DefaultSeed seeds the generator when the caller does not pick one.
	DefaultSeed uint64 = 42

	promotionRate = 0.05
)

// Config parameterizes Generate. A zero End means today at midnight UTC.
type Config struct {
	Days int
	Seed uint64
	End  time.Time
}

// Option mutates a Config.
type Option func(*Config)

// WithSeed sets the random seed.
func WithSeed(seed uint64) Option { return func(c *Config) { c.Seed = seed } }

// WithEnd fixes the last calendar day of the series.
func WithEnd(end time.Time) Option { return func(c *Config) { c.End = end } }

// NewConfig returns a Config for days with the default seed and today's end date.
func NewConfig(days int, opts ...Option) Config {
	cfg := Config{Days: days, Seed: DefaultSeed}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Generate builds cfg.Days consecutive daily observations: a linear upward
// drift with a seasonal ripple and Gaussian noise on price, a slow sine on
// volume, a drifting sentiment and rare promotion days. Equal configs yield
// equal series.
func Generate(cfg Config) models.Series {
	n := cfg.Days
	if n <= 0 {
		return models.Series{}
	}
	end := cfg.End
	if end.IsZero() {
		end = util.Today()
	}
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))

	trend := linspace(0, 1, n)
	seasonalPhase := linspace(0, 12*math.Pi, n)
	volumePhase := linspace(0, 4*math.Pi, n)

	priceNoise := normal(rng, 1.5, n)
	volumeNoise := normal(rng, 10, n)
	sentimentNoise := normal(rng, 0.05, n)

	dates := util.DayRange(end, n)
	obs := make([]models.Observation, n)
	for i := 0; i < n; i++ {
		seasonal := 0.1 * math.Sin(seasonalPhase[i])
		obs[i] = models.Observation{
			Date:      dates[i],
			Price:     50 + 10*trend[i] + 5*seasonal + priceNoise[i],
			Volume:    200 + 50*math.Sin(volumePhase[i]+1) + volumeNoise[i],
			Sentiment: 0.2*trend[i] + sentimentNoise[i],
			Trend:     math.NaN(),
		}
	}
	for i := 0; i < n; i++ {
		if rng.Float64() < promotionRate {
			obs[i].Promotion = 1
		}
	}
	return models.Series{Observations: obs}
}

// linspace returns n evenly spaced values over [start, stop] inclusive.
func linspace(start, stop float64, n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = start
		return out
	}
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = start + step*float64(i)
	}
	return out
}

func normal(rng *rand.Rand, sigma float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.NormFloat64() * sigma
	}
	return out
}
