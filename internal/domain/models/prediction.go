package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Prediction is the outcome for the most recent feature row. Exactly one of
// ProbabilityUp and PredictedUp is set, depending on model capability.
type Prediction struct {
	Date          time.Time
	ProbabilityUp *float64
	PredictedUp   *int
}

type predictionJSON struct {
	Date          string   `json:"date"`
	ProbabilityUp *float64 `json:"prob_up,omitempty"`
	PredictedUp   *int     `json:"pred_up,omitempty"`
}

// MarshalJSON renders {"date": ..., "prob_up": ...} or {"date": ..., "pred_up": ...}.
func (p Prediction) MarshalJSON() ([]byte, error) {
	return json.Marshal(predictionJSON{
		Date:          p.Date.Format(time.DateOnly),
		ProbabilityUp: p.ProbabilityUp,
		PredictedUp:   p.PredictedUp,
	})
}

func (p *Prediction) UnmarshalJSON(b []byte) error {
	var raw predictionJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	d, err := time.Parse(time.DateOnly, raw.Date)
	if err != nil {
		return fmt.Errorf("prediction date: %w", err)
	}
	*p = Prediction{Date: d, ProbabilityUp: raw.ProbabilityUp, PredictedUp: raw.PredictedUp}
	return nil
}
