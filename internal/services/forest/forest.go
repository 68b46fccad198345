// Package forest implements a seeded random forest binary classifier.
package forest

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
	"sync"

	"TrendPredictor/internal/domain/service"
)

const (
	DefaultTrees          = 100
	DefaultMinSamplesLeaf = 1
)

// DefaultSeed seeds bootstrap sampling and feature selection.
const DefaultSeed uint64 = 42

var (
	ErrNotFitted     = errors.New("forest: not fitted")
	ErrShapeMismatch = errors.New("forest: shape mismatch")
)

// Config holds the forest hyperparameters. MaxFeatures 0 means sqrt of the
// feature count; MaxDepth 0 grows trees until leaves are pure.
type Config struct {
	Trees          int    `json:"trees" yaml:"trees" default:"100"`
	MaxDepth       int    `json:"max_depth" yaml:"max_depth"`
	MinSamplesLeaf int    `json:"min_samples_leaf" yaml:"min_samples_leaf" default:"1"`
	MaxFeatures    int    `json:"max_features" yaml:"max_features"`
	Seed           uint64 `json:"seed" yaml:"seed" default:"42"`
	Workers        int    `json:"-" yaml:"workers"`
}

// DefaultConfig mirrors the usual random forest defaults.
func DefaultConfig() Config {
	return Config{Trees: DefaultTrees, MinSamplesLeaf: DefaultMinSamplesLeaf, Seed: DefaultSeed}
}

// Option configures a Forest.
type Option func(*Config)

func WithTrees(n int) Option          { return func(c *Config) { c.Trees = n } }
func WithMaxDepth(d int) Option       { return func(c *Config) { c.MaxDepth = d } }
func WithSeed(seed uint64) Option     { return func(c *Config) { c.Seed = seed } }
func WithMaxFeatures(n int) Option    { return func(c *Config) { c.MaxFeatures = n } }
func WithWorkers(n int) Option        { return func(c *Config) { c.Workers = n } }
func WithMinSamplesLeaf(n int) Option { return func(c *Config) { c.MinSamplesLeaf = n } }

// Forest is a bagged ensemble of gini trees. A fitted Forest is read-only and
// safe for concurrent prediction.
type Forest struct {
	cfg     Config
	columns []string
	trees   []Tree
}

var (
	_ service.ProbabilisticClassifier = (*Forest)(nil)
	_ service.FeatureAware            = (*Forest)(nil)
)

// New returns an unfitted forest.
func New(cfg Config, opts ...Option) *Forest {
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Trees <= 0 {
		cfg.Trees = DefaultTrees
	}
	if cfg.MinSamplesLeaf <= 0 {
		cfg.MinSamplesLeaf = DefaultMinSamplesLeaf
	}
	return &Forest{cfg: cfg}
}

// Config returns the hyperparameters.
func (f *Forest) Config() Config { return f.cfg }

// Features returns the ordered column names the forest was fitted on.
func (f *Forest) Features() []string {
	out := make([]string, len(f.columns))
	copy(out, f.columns)
	return out
}

// Fit grows cfg.Trees trees on bootstrap samples of (x, y). Labels must be 0 or 1.
// Each tree draws from its own generator seeded up front, so the result does
// not depend on the number of workers.
func (f *Forest) Fit(columns []string, x [][]float64, y []int) error {
	if len(x) == 0 || len(x) != len(y) {
		return fmt.Errorf("%w: %d rows, %d labels", ErrShapeMismatch, len(x), len(y))
	}
	width := len(columns)
	for i, row := range x {
		if len(row) != width {
			return fmt.Errorf("%w: row %d has %d values, want %d", ErrShapeMismatch, i, len(row), width)
		}
	}
	for i, label := range y {
		if label != 0 && label != 1 {
			return fmt.Errorf("forest: label %d at row %d is not binary", label, i)
		}
	}

	params := treeParams{
		maxDepth:       f.cfg.MaxDepth,
		minSamplesLeaf: f.cfg.MinSamplesLeaf,
		maxFeatures:    f.cfg.MaxFeatures,
	}
	if params.maxFeatures <= 0 {
		params.maxFeatures = max(1, int(math.Sqrt(float64(width))))
	}

	master := rand.New(rand.NewPCG(f.cfg.Seed, f.cfg.Seed+1))
	seeds := make([][2]uint64, f.cfg.Trees)
	for i := range seeds {
		seeds[i] = [2]uint64{master.Uint64(), master.Uint64()}
	}

	workers := f.cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	trees := make([]Tree, f.cfg.Trees)
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range jobs {
				rng := rand.New(rand.NewPCG(seeds[t][0], seeds[t][1]))
				idx := make([]int, len(x))
				for i := range idx {
					idx[i] = rng.IntN(len(x))
				}
				trees[t] = growTree(x, y, idx, params, rng)
			}
		}()
	}
	for t := range trees {
		jobs <- t
	}
	close(jobs)
	wg.Wait()

	f.columns = append([]string(nil), columns...)
	f.trees = trees
	return nil
}

// PredictProba returns the mean class-1 probability across trees.
func (f *Forest) PredictProba(row []float64) float64 {
	if len(f.trees) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, t := range f.trees {
		sum += t.proba(row)
	}
	return sum / float64(len(f.trees))
}

// Predict returns 1 when the class-1 probability exceeds one half.
func (f *Forest) Predict(row []float64) int {
	if f.PredictProba(row) > 0.5 {
		return 1
	}
	return 0
}

// PredictBatch labels every row.
func (f *Forest) PredictBatch(rows [][]float64) []int {
	out := make([]int, len(rows))
	for i, r := range rows {
		out[i] = f.Predict(r)
	}
	return out
}

// Fitted reports whether Fit has completed.
func (f *Forest) Fitted() bool { return len(f.trees) > 0 }

// Stats summarizes the ensemble for logging.
type Stats struct {
	Trees    int
	Nodes    int
	MaxDepth int
}

func (f *Forest) Stats() Stats {
	s := Stats{Trees: len(f.trees)}
	for _, t := range f.trees {
		s.Nodes += len(t.Nodes)
		s.MaxDepth = max(s.MaxDepth, t.depth())
	}
	return s
}
