package service

// Classifier maps an ordered feature row to a hard class label (0 or 1).
type Classifier interface {
	Predict(row []float64) int
}

// ProbabilisticClassifier additionally estimates the positive-class probability.
type ProbabilisticClassifier interface {
	Classifier
	PredictProba(row []float64) float64
}

// FeatureAware models remember the columns they were trained on, in order.
type FeatureAware interface {
	Features() []string
}
