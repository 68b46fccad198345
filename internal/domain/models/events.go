package models

import "time"

// Event types published on the model events topic.
const (
	EventModelTrained = "model.trained"
	EventPrediction   = "prediction.served"
)

// ModelTrainedEvent announces a new artifact on disk.
type ModelTrainedEvent struct {
	Type         string    `json:"type"`
	RunID        string    `json:"run_id"`
	ArtifactPath string    `json:"artifact_path"`
	Accuracy     float64   `json:"accuracy"`
	Rows         int       `json:"rows"`
	CreatedAt    time.Time `json:"created_at"`
}

// PredictionRecord is an audit entry for a served prediction.
type PredictionRecord struct {
	ID             string    `json:"id"`
	ServedAt       time.Time `json:"served_at"`
	Ticker         string    `json:"ticker"`
	Keyword        string    `json:"keyword"`
	Days           int       `json:"days"`
	Source         string    `json:"source"`
	Fallback       bool      `json:"fallback"`
	Date           time.Time `json:"date"`
	ProbabilityUp  float64   `json:"prob_up"`
	PredictedUp    int       `json:"pred_up"`
	HasProbability bool      `json:"has_probability"`
}
