package ensemble

import (
	"math"
	"math/rand"
)

// forest is a bagged ensemble of trees with per-split feature subsampling.
type forest struct {
	trees []*tree
}

func fitForest(x [][]float64, y []float64, spec ModelSpec, rng *rand.Rand) (*forest, []float64) {
	n, d := len(x), len(x[0])
	params := treeParams{
		maxDepth:        spec.MaxDepth,
		minSamplesSplit: spec.MinSamplesSplit,
		minSamplesLeaf:  1,
		maxFeatures:     int(math.Max(1, math.Round(math.Sqrt(float64(d))))),
	}

	f := &forest{trees: make([]*tree, 0, spec.Estimators)}
	importance := make([]float64, d)
	perTree := make([]float64, d)
	idx := make([]int, n)
	for t := 0; t < spec.Estimators; t++ {
		for i := range idx {
			idx[i] = rng.Intn(n)
		}
		for j := range perTree {
			perTree[j] = 0
		}
		f.trees = append(f.trees, growTree(x, y, idx, params, rng, nil, perTree))
		if normalize(perTree) {
			for j, v := range perTree {
				importance[j] += v
			}
		}
	}
	normalize(importance)
	return f, importance
}

func (f *forest) proba(x []float64) float64 {
	if len(f.trees) == 0 {
		return 0.5
	}
	s := 0.0
	for _, t := range f.trees {
		s += t.predict(x)
	}
	return s / float64(len(f.trees))
}

// normalize scales v in place to sum to one and reports whether it could.
func normalize(v []float64) bool {
	total := 0.0
	for _, x := range v {
		total += x
	}
	if total <= 0 {
		return false
	}
	for i := range v {
		v[i] /= total
	}
	return true
}
