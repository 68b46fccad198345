package models

import "time"

// ClassReport holds precision/recall/F1 for one class or an average.
type ClassReport struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1-score"`
	Support   int     `json:"support"`
}

// Metrics are computed on the holdout partition.
type Metrics struct {
	Accuracy   float64                `json:"accuracy"`
	Report     map[string]ClassReport `json:"report"`
	TrainRows  int                    `json:"train_rows"`
	TestRows   int                    `json:"test_rows"`
	TrainUntil time.Time              `json:"train_until"`
	TestFrom   time.Time              `json:"test_from"`
}

// TrainingRun is a recorded training invocation.
type TrainingRun struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	Source       string    `json:"source"`
	Ticker       string    `json:"ticker,omitempty"`
	Days         int       `json:"days"`
	Seed         uint64    `json:"seed"`
	Rows         int       `json:"rows"`
	Accuracy     float64   `json:"accuracy"`
	ArtifactPath string    `json:"artifact_path"`
	Metrics      Metrics   `json:"metrics"`
}
