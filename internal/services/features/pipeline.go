package features

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"TrendPredictor/internal/domain/models"
)

// Config selects the derived columns. Lags and windows are counted in rows,
// not calendar days.
type Config struct {
	BaseColumns []string
	Lags        []int
	Windows     []int
}

// DefaultConfig returns lags {1,2,3} and windows {3,7} over price, volume and sentiment.
func DefaultConfig() Config {
	return Config{
		BaseColumns: []string{models.ColPrice, models.ColVolume, models.ColSentiment},
		Lags:        []int{1, 2, 3},
		Windows:     []int{3, 7},
	}
}

// Prepare derives the trimmed feature table from series with DefaultConfig.
func Prepare(series models.Series) (models.FeatureTable, error) {
	return PrepareWith(series, DefaultConfig())
}

// PrepareWith appends lag, rolling and label columns to the raw series and
// drops every row holding an undefined value. The input is not modified.
func PrepareWith(series models.Series, cfg Config) (models.FeatureTable, error) {
	if err := series.Validate(); err != nil {
		return models.FeatureTable{}, fmt.Errorf("prepare features: %w", err)
	}
	for _, k := range cfg.Lags {
		if k < 1 {
			return models.FeatureTable{}, fmt.Errorf("prepare features: invalid lag %d", k)
		}
	}
	for _, w := range cfg.Windows {
		if w < 1 {
			return models.FeatureTable{}, fmt.Errorf("prepare features: invalid window %d", w)
		}
	}

	n := series.Len()
	var (
		names []string
		cols  [][]float64
	)
	add := func(name string, values []float64) {
		names = append(names, name)
		cols = append(cols, values)
	}

	for _, c := range series.Columns() {
		v, err := series.Column(c)
		if err != nil {
			return models.FeatureTable{}, fmt.Errorf("prepare features: %w", err)
		}
		add(c, v)
	}

	base := make(map[string][]float64, len(cfg.BaseColumns))
	for _, c := range cfg.BaseColumns {
		v, err := series.Column(c)
		if err != nil {
			return models.FeatureTable{}, fmt.Errorf("prepare features: %w", err)
		}
		base[c] = v
	}

	for _, c := range cfg.BaseColumns {
		for _, k := range cfg.Lags {
			add(fmt.Sprintf("%s_lag_%d", c, k), Lag(base[c], k))
		}
	}
	for _, c := range cfg.BaseColumns {
		for _, w := range cfg.Windows {
			mean, std := Rolling(base[c], w)
			add(fmt.Sprintf("%s_roll_mean_%d", c, w), mean)
			add(fmt.Sprintf("%s_roll_std_%d", c, w), std)
		}
	}

	price, err := series.Column(models.ColPrice)
	if err != nil {
		return models.FeatureTable{}, fmt.Errorf("prepare features: %w", err)
	}
	add(models.LabelColumn, UpLabel(price))

	dates := series.Dates()
	table := models.FeatureTable{Columns: names}
	for i := 0; i < n; i++ {
		row := make([]float64, len(cols))
		complete := true
		for j, col := range cols {
			row[j] = col[i]
			if math.IsNaN(col[i]) {
				complete = false
			}
		}
		if !complete {
			continue
		}
		table.Rows = append(table.Rows, row)
		table.Dates = append(table.Dates, dates[i])
	}
	return table, nil
}

// Lag shifts values forward by k rows; the first k rows are NaN.
func Lag(values []float64, k int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		if i < k {
			out[i] = math.NaN()
			continue
		}
		out[i] = values[i-k]
	}
	return out
}

// Rolling returns the trailing mean and sample standard deviation over at
// most w rows ending at each row. Windows shorter than two rows get a zero
// standard deviation.
func Rolling(values []float64, w int) (mean, std []float64) {
	mean = make([]float64, len(values))
	std = make([]float64, len(values))
	for i := range values {
		from := i - w + 1
		if from < 0 {
			from = 0
		}
		window := values[from : i+1]
		if len(window) < 2 {
			mean[i] = window[0]
			continue
		}
		mean[i], std[i] = stat.MeanStdDev(window, nil)
	}
	return mean, std
}

// UpLabel marks rows whose next price is strictly higher. The last row is NaN.
func UpLabel(price []float64) []float64 {
	out := make([]float64, len(price))
	for i := range price {
		switch {
		case i == len(price)-1:
			out[i] = math.NaN()
		case price[i+1] > price[i]:
			out[i] = 1
		}
	}
	return out
}
