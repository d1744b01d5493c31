package ensemble

import (
	"math"
	"math/rand"
	"sort"
)

// boosted is a gradient-boosted tree classifier on binomial deviance.
type boosted struct {
	init  float64
	rate  float64
	trees []*tree
}

func fitBoosted(x [][]float64, y []float64, spec ModelSpec, rng *rand.Rand) (*boosted, []float64) {
	n, d := len(x), len(x[0])
	prior := clampProb(meanOf(y, allRows(n)))
	b := &boosted{
		init:  math.Log(prior / (1 - prior)),
		rate:  spec.LearningRate,
		trees: make([]*tree, 0, spec.Estimators),
	}
	params := treeParams{
		maxDepth:        spec.MaxDepth,
		minSamplesSplit: spec.MinSamplesSplit,
		minSamplesLeaf:  1,
	}

	raw := make([]float64, n)
	prob := make([]float64, n)
	residual := make([]float64, n)
	for i := range raw {
		raw[i] = b.init
	}
	importance := make([]float64, d)

	// Newton step on the deviance for the rows that landed in a leaf.
	leafValue := func(rows []int) float64 {
		var num, den float64
		for _, i := range rows {
			num += residual[i]
			den += prob[i] * (1 - prob[i])
		}
		if den < 1e-12 {
			return 0
		}
		return num / den
	}

	for m := 0; m < spec.Estimators; m++ {
		for i := range raw {
			prob[i] = sigmoid(raw[i])
			residual[i] = y[i] - prob[i]
		}
		rows := allRows(n)
		if spec.Subsample > 0 && spec.Subsample < 1 {
			rows = rng.Perm(n)[:int(float64(n)*spec.Subsample)]
			sort.Ints(rows)
		}
		t := growTree(x, residual, rows, params, rng, leafValue, importance)
		b.trees = append(b.trees, t)
		for i := range raw {
			raw[i] += b.rate * t.predict(x[i])
		}
	}
	normalize(importance)
	return b, importance
}

func (b *boosted) proba(x []float64) float64 {
	f := b.init
	for _, t := range b.trees {
		f += b.rate * t.predict(x)
	}
	return sigmoid(f)
}

func allRows(n int) []int {
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return rows
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func clampProb(p float64) float64 {
	return math.Min(math.Max(p, 1e-6), 1-1e-6)
}
