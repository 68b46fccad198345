package forest

import (
	"math/rand/v2"
	"sort"
)

const leaf = -1

// node is one entry of a flattened decision tree. Leaves have Left == Right == -1.
type node struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t"`
	Left      int     `json:"l"`
	Right     int     `json:"r"`
	Prob      float64 `json:"p"` // fraction of class 1 among training samples at the node
	Samples   int     `json:"n"`
}

// Tree is a binary CART classifier grown with the gini criterion.
type Tree struct {
	Nodes []node `json:"nodes"`
}

type treeParams struct {
	maxDepth       int
	minSamplesLeaf int
	maxFeatures    int
}

type grower struct {
	x      [][]float64
	y      []int
	params treeParams
	rng    *rand.Rand
	nodes  []node
}

func growTree(x [][]float64, y []int, idx []int, params treeParams, rng *rand.Rand) Tree {
	g := &grower{x: x, y: y, params: params, rng: rng}
	g.grow(idx, 0)
	return Tree{Nodes: g.nodes}
}

func (g *grower) grow(idx []int, depth int) int {
	pos := 0
	for _, i := range idx {
		pos += g.y[i]
	}
	id := len(g.nodes)
	g.nodes = append(g.nodes, node{
		Left:    leaf,
		Right:   leaf,
		Prob:    float64(pos) / float64(len(idx)),
		Samples: len(idx),
	})

	if pos == 0 || pos == len(idx) || len(idx) < 2*g.params.minSamplesLeaf {
		return id
	}
	if g.params.maxDepth > 0 && depth >= g.params.maxDepth {
		return id
	}

	feature, threshold, ok := g.bestSplit(idx, pos)
	if !ok {
		return id
	}
	left := make([]int, 0, len(idx))
	right := make([]int, 0, len(idx))
	for _, i := range idx {
		if g.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	l := g.grow(left, depth+1)
	r := g.grow(right, depth+1)
	g.nodes[id].Feature = feature
	g.nodes[id].Threshold = threshold
	g.nodes[id].Left = l
	g.nodes[id].Right = r
	return id
}

// bestSplit scans a random subset of features for the threshold with the
// lowest weighted gini impurity.
func (g *grower) bestSplit(idx []int, pos int) (int, float64, bool) {
	nFeatures := len(g.x[idx[0]])
	candidates := g.rng.Perm(nFeatures)
	if g.params.maxFeatures > 0 && g.params.maxFeatures < nFeatures {
		candidates = candidates[:g.params.maxFeatures]
	}

	n := len(idx)
	best := gini(n, pos) * float64(n)
	bestFeature, bestThreshold, found := 0, 0.0, false

	sorted := make([]int, n)
	for _, f := range candidates {
		copy(sorted, idx)
		sort.SliceStable(sorted, func(a, b int) bool { return g.x[sorted[a]][f] < g.x[sorted[b]][f] })

		leftPos := 0
		for k := 0; k < n-1; k++ {
			leftPos += g.y[sorted[k]]
			v, next := g.x[sorted[k]][f], g.x[sorted[k+1]][f]
			if v == next {
				continue
			}
			nl, nr := k+1, n-k-1
			if nl < g.params.minSamplesLeaf || nr < g.params.minSamplesLeaf {
				continue
			}
			score := gini(nl, leftPos)*float64(nl) + gini(nr, pos-leftPos)*float64(nr)
			if score < best-1e-12 {
				best = score
				bestFeature = f
				bestThreshold = midpoint(v, next)
				found = true
			}
		}
	}
	return bestFeature, bestThreshold, found
}

func gini(n, pos int) float64 {
	if n == 0 {
		return 0
	}
	p := float64(pos) / float64(n)
	return 1 - p*p - (1-p)*(1-p)
}

func midpoint(a, b float64) float64 {
	m := a + (b-a)/2
	if m >= b {
		return a
	}
	return m
}

// proba walks the tree and returns the leaf class-1 fraction.
func (t Tree) proba(row []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Left == leaf {
			return n.Prob
		}
		if row[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

func (t Tree) depth() int {
	var walk func(i int) int
	walk = func(i int) int {
		n := t.Nodes[i]
		if n.Left == leaf {
			return 0
		}
		return 1 + max(walk(n.Left), walk(n.Right))
	}
	if len(t.Nodes) == 0 {
		return 0
	}
	return walk(0)
}
