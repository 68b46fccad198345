package models

import (
	"fmt"
	"time"
)

// LabelColumn is the forward-looking training label.
const LabelColumn = "target_up"

// FeatureTable is a supervised-learning table derived from a Series.
// Rows[i] is aligned with Columns and belongs to Dates[i].
type FeatureTable struct {
	Columns []string
	Dates   []time.Time
	Rows    [][]float64
}

// Len returns the number of rows.
func (t FeatureTable) Len() int { return len(t.Rows) }

// Index returns the position of a column or -1.
func (t FeatureTable) Index(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// FeatureColumns returns every column except the label.
func (t FeatureTable) FeatureColumns() []string {
	out := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		if c != LabelColumn {
			out = append(out, c)
		}
	}
	return out
}

// Column returns a copy of the named column.
func (t FeatureTable) Column(name string) ([]float64, error) {
	idx := t.Index(name)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, name)
	}
	out := make([]float64, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[idx]
	}
	return out, nil
}

// Matrix projects rows [from, to) onto cols, in the order given.
func (t FeatureTable) Matrix(cols []string, from, to int) ([][]float64, error) {
	idx, err := t.indices(cols)
	if err != nil {
		return nil, err
	}
	out := make([][]float64, 0, to-from)
	for _, row := range t.Rows[from:to] {
		out = append(out, project(row, idx))
	}
	return out, nil
}

// Row projects a single row onto cols.
func (t FeatureTable) Row(i int, cols []string) ([]float64, error) {
	idx, err := t.indices(cols)
	if err != nil {
		return nil, err
	}
	return project(t.Rows[i], idx), nil
}

func (t FeatureTable) indices(cols []string) ([]int, error) {
	idx := make([]int, len(cols))
	for i, c := range cols {
		j := t.Index(c)
		if j < 0 {
			return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, c)
		}
		idx[i] = j
	}
	return idx, nil
}

func project(row []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = row[j]
	}
	return out
}
