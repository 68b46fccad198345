package models

import (
	"errors"
	"fmt"
)

// Pipeline and model-state errors. Callers branch on them with errors.Is.
var (
	// ErrDataUnavailable marks a failed raw series fetch. It is recovered by
	// falling back to synthetic data and never reaches API clients.
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrInsufficientData rejects a training run with too little history.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrModelUnavailable means no model is loaded; the service is not ready.
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrEmptyFeatureTable means the input series was too short to produce a
	// single complete feature row.
	ErrEmptyFeatureTable = errors.New("empty feature table")

	// ErrLabelLeakage is returned when the label column is passed as a predictor.
	ErrLabelLeakage = errors.New("label column among predictors")

	// ErrUnknownColumn is returned when a requested column is not in the table.
	ErrUnknownColumn = errors.New("unknown column")
)

// FetchError describes a failed fetch from a named raw series source.
type FetchError struct {
	Source string
	Ticker string
	Err    error
}

func (e *FetchError) Error() string {
	if e.Ticker != "" {
		return fmt.Sprintf("fetch %s from %s: %v", e.Ticker, e.Source, e.Err)
	}
	return fmt.Sprintf("fetch from %s: %v", e.Source, e.Err)
}

// Unwrap returns the underlying cause.
func (e *FetchError) Unwrap() error { return e.Err }

// Is reports FetchError as ErrDataUnavailable.
func (e *FetchError) Is(target error) bool { return target == ErrDataUnavailable }

// NewFetchError wraps err as a fetch failure of source for ticker.
func NewFetchError(source, ticker string, err error) *FetchError {
	return &FetchError{Source: source, Ticker: ticker, Err: err}
}
