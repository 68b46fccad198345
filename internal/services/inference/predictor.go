// Package inference serves predictions for the most recent feature row.
package inference

import (
	"fmt"

	"TrendPredictor/internal/domain/models"
	"TrendPredictor/internal/domain/service"
)

// Predict classifies the last row of table. Models that expose
// probabilities yield ProbabilityUp, others PredictedUp. When the model
// records its training columns they take precedence over featureColumns so
// the row is assembled in training order.
func Predict(model service.Classifier, table models.FeatureTable, featureColumns []string) (models.Prediction, error) {
	if model == nil {
		return models.Prediction{}, models.ErrModelUnavailable
	}
	if table.Len() == 0 {
		return models.Prediction{}, models.ErrEmptyFeatureTable
	}

	cols := featureColumns
	if fa, ok := model.(service.FeatureAware); ok && len(fa.Features()) > 0 {
		cols = fa.Features()
	}
	if len(cols) == 0 {
		cols = table.FeatureColumns()
	}
	for _, c := range cols {
		if c == models.LabelColumn {
			return models.Prediction{}, fmt.Errorf("predict: %w", models.ErrLabelLeakage)
		}
	}

	last := table.Len() - 1
	row, err := table.Row(last, cols)
	if err != nil {
		return models.Prediction{}, fmt.Errorf("predict: %w", err)
	}

	out := models.Prediction{Date: table.Dates[last]}
	if pc, ok := model.(service.ProbabilisticClassifier); ok {
		p := pc.PredictProba(row)
		out.ProbabilityUp = &p
		return out, nil
	}
	label := model.Predict(row)
	out.PredictedUp = &label
	return out, nil
}
