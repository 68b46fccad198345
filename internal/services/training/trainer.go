// Package training fits the up/down classifier on a chronological split.
package training

import (
	"fmt"
	"math"
	"slices"

	"TrendPredictor/internal/domain/models"
	"TrendPredictor/internal/services/forest"
)

// Config controls the split and the forest.
type Config struct {
	TestFraction float64       `yaml:"test_fraction" default:"0.2" validate:"gt=0,lt=1"`
	MinRows      int           `yaml:"min_rows" default:"5" validate:"gte=2"`
	Forest       forest.Config `yaml:"forest"`
}

// DefaultConfig holds out the trailing 20% and requires at least 5 rows.
func DefaultConfig() Config {
	return Config{TestFraction: 0.2, MinRows: 5, Forest: forest.DefaultConfig()}
}

// Split returns the train and holdout sizes for n rows. The holdout is
// ceil(fraction*n) rows taken from the end.
func Split(n int, fraction float64) (train, test int) {
	test = int(math.Ceil(fraction*float64(n) - 1e-9))
	if test > n {
		test = n
	}
	return n - test, test
}

// Train fits a random forest on the leading rows of table and scores it on
// the trailing holdout. Rows are never shuffled, so every holdout row is
// dated after every training row. The model is not persisted.
func Train(table models.FeatureTable, featureColumns []string, labelColumn string, cfg Config) (*forest.Forest, models.Metrics, error) {
	if slices.Contains(featureColumns, labelColumn) {
		return nil, models.Metrics{}, fmt.Errorf("train: %w: %s", models.ErrLabelLeakage, labelColumn)
	}
	if len(featureColumns) == 0 {
		return nil, models.Metrics{}, fmt.Errorf("train: no feature columns")
	}

	n := table.Len()
	if n < cfg.MinRows {
		return nil, models.Metrics{}, fmt.Errorf("train: %w: %d rows, need %d", models.ErrInsufficientData, n, cfg.MinRows)
	}
	trainN, testN := Split(n, cfg.TestFraction)
	if trainN == 0 || testN == 0 {
		return nil, models.Metrics{}, fmt.Errorf("train: %w: split %d/%d", models.ErrInsufficientData, trainN, testN)
	}

	x, err := table.Matrix(featureColumns, 0, n)
	if err != nil {
		return nil, models.Metrics{}, fmt.Errorf("train: %w", err)
	}
	raw, err := table.Column(labelColumn)
	if err != nil {
		return nil, models.Metrics{}, fmt.Errorf("train: %w", err)
	}
	y := make([]int, n)
	for i, v := range raw {
		if v != 0 && v != 1 {
			return nil, models.Metrics{}, fmt.Errorf("train: label %v at row %d is not binary", v, i)
		}
		y[i] = int(v)
	}

	if singleClass(y[:trainN]) {
		return nil, models.Metrics{}, fmt.Errorf("train: %w: training labels are all %d", models.ErrInsufficientData, y[0])
	}

	model := forest.New(cfg.Forest)
	if err := model.Fit(featureColumns, x[:trainN], y[:trainN]); err != nil {
		return nil, models.Metrics{}, fmt.Errorf("train: %w", err)
	}

	accuracy, report := Evaluate(y[trainN:], model.PredictBatch(x[trainN:]))
	metrics := models.Metrics{
		Accuracy:   accuracy,
		Report:     report,
		TrainRows:  trainN,
		TestRows:   testN,
		TrainUntil: table.Dates[trainN-1],
		TestFrom:   table.Dates[trainN],
	}
	return model, metrics, nil
}

func singleClass(y []int) bool {
	for _, v := range y[1:] {
		if v != y[0] {
			return false
		}
	}
	return true
}
