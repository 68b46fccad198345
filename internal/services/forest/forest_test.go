package forest

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// separable returns rows where the label is 1 iff x0 + noise > 0.
func separable(n int, seed uint64) ([][]float64, []int) {
	rng := rand.New(rand.NewPCG(seed, seed))
	x := make([][]float64, n)
	y := make([]int, n)
	for i := range x {
		x[i] = []float64{rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()}
		if x[i][0] > 0 {
			y[i] = 1
		}
	}
	return x, y
}

var cols = []string{"a", "b", "c"}

func TestFitLearnsSeparableData(t *testing.T) {
	x, y := separable(300, 1)
	f := New(DefaultConfig(), WithTrees(25))
	require.NoError(t, f.Fit(cols, x, y))

	tx, ty := separable(200, 2)
	correct := 0
	for i, row := range tx {
		if f.Predict(row) == ty[i] {
			correct++
		}
	}
	assert.Greater(t, float64(correct)/float64(len(tx)), 0.9)
	assert.Equal(t, cols, f.Features())
	assert.Equal(t, 25, f.Stats().Trees)
}

func TestFitDeterministicAcrossWorkers(t *testing.T) {
	x, y := separable(120, 3)
	a := New(DefaultConfig(), WithTrees(20), WithSeed(9), WithWorkers(1))
	b := New(DefaultConfig(), WithTrees(20), WithSeed(9), WithWorkers(8))
	require.NoError(t, a.Fit(cols, x, y))
	require.NoError(t, b.Fit(cols, x, y))

	probe, _ := separable(50, 4)
	for _, row := range probe {
		assert.Equal(t, a.PredictProba(row), b.PredictProba(row))
	}
}

func TestSeedIsTheOnlySourceOfRandomness(t *testing.T) {
	x, y := separable(120, 3)
	fit := func(seed uint64) *Forest {
		f := New(DefaultConfig(), WithTrees(8), WithSeed(seed), WithMaxFeatures(1))
		require.NoError(t, f.Fit(cols, x, y))
		return f
	}
	a, again, other := fit(1), fit(1), fit(2)

	probe, _ := separable(60, 11)
	differs := false
	for _, row := range probe {
		assert.Equal(t, a.PredictProba(row), again.PredictProba(row))
		if a.PredictProba(row) != other.PredictProba(row) {
			differs = true
		}
	}
	assert.True(t, differs, "a different seed should grow different trees")
}

func TestPredictProbaRange(t *testing.T) {
	x, y := separable(80, 5)
	f := New(DefaultConfig(), WithTrees(10))
	require.NoError(t, f.Fit(cols, x, y))
	for _, row := range x {
		p := f.PredictProba(row)
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
	}
}

func TestMaxDepthLimitsTrees(t *testing.T) {
	x, y := separable(200, 6)
	f := New(DefaultConfig(), WithTrees(5), WithMaxDepth(2))
	require.NoError(t, f.Fit(cols, x, y))
	assert.LessOrEqual(t, f.Stats().MaxDepth, 2)
}

func TestFitRejectsBadInput(t *testing.T) {
	f := New(DefaultConfig())
	assert.ErrorIs(t, f.Fit(cols, nil, nil), ErrShapeMismatch)
	assert.ErrorIs(t, f.Fit(cols, [][]float64{{1, 2}}, []int{1}), ErrShapeMismatch)
	assert.Error(t, f.Fit(cols, [][]float64{{1, 2, 3}}, []int{2}))
	assert.False(t, f.Fitted())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	x, y := separable(150, 7)
	f := New(DefaultConfig(), WithTrees(15))
	require.NoError(t, f.Fit(cols, x, y))

	path := filepath.Join(t.TempDir(), "models", "model.json")
	require.NoError(t, Save(f, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, f.Features(), loaded.Features())
	assert.Equal(t, f.Config().Seed, loaded.Config().Seed)

	probe, _ := separable(100, 8)
	for _, row := range probe {
		assert.Equal(t, f.PredictProba(row), loaded.PredictProba(row))
		assert.Equal(t, f.Predict(row), loaded.Predict(row))
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSaveUnfitted(t *testing.T) {
	err := Save(New(DefaultConfig()), filepath.Join(t.TempDir(), "m.json"))
	assert.ErrorIs(t, err, ErrNotFitted)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o644))
	_, err = Load(bad)
	assert.Error(t, err)

	kind := filepath.Join(dir, "kind.json")
	require.NoError(t, os.WriteFile(kind, []byte(`{"kind":"svm","version":1}`), 0o644))
	_, err = Load(kind)
	assert.ErrorContains(t, err, "unexpected kind")

	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte(`{"kind":"random_forest","version":1,"columns":["a"],
		"trees":[{"nodes":[{"f":3,"t":0,"l":1,"r":2,"p":0.5,"n":2},{"l":-1,"r":-1,"p":0,"n":1},{"l":-1,"r":-1,"p":1,"n":1}]}]}`), 0o644))
	_, err = Load(broken)
	assert.ErrorContains(t, err, "feature 3 out of range")
}

func TestMidpoint(t *testing.T) {
	assert.Equal(t, 1.5, midpoint(1, 2))
	next := 1.0000000000000002
	assert.Equal(t, 1.0, midpoint(1, next))
}
