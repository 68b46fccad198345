// Package trends provides daily keyword interest for the optional trend column.
package trends

import (
	"context"
	"fmt"
	"time"

	"TrendPredictor/internal/domain/models"
	"TrendPredictor/internal/domain/repository"
	"TrendPredictor/internal/services/synthetic"
)

const SyntheticSourceName = "synthetic-trends"

// SyntheticSource derives keyword interest from the synthetic sentiment
// signal. It stands in for a search-interest provider and never fails for a
// valid request.
type SyntheticSource struct {
	seed uint64
	now  func() time.Time
}

var _ repository.TrendSource = (*SyntheticSource)(nil)

// NewSyntheticSource returns a source seeded with seed.
func NewSyntheticSource(seed uint64) *SyntheticSource {
	return &SyntheticSource{seed: seed, now: time.Now}
}

func (s *SyntheticSource) Name() string { return SyntheticSourceName }

// FetchTrend returns days points ending today. The keyword only labels the
// request; the same seed yields the same curve for every keyword.
func (s *SyntheticSource) FetchTrend(ctx context.Context, keyword string, days int) ([]models.TrendPoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if keyword == "" {
		return nil, fmt.Errorf("trends: empty keyword")
	}
	series := synthetic.Generate(synthetic.NewConfig(days,
		synthetic.WithSeed(s.seed),
		synthetic.WithEnd(s.now().UTC()),
	))
	out := make([]models.TrendPoint, series.Len())
	for i, o := range series.Observations {
		out[i] = models.TrendPoint{Date: o.Date, Value: o.Sentiment}
	}
	return out, nil
}
