package ensemble

import (
	"math/rand"
	"sort"
)

// treeNode is a flattened CART node; feature < 0 marks a leaf.
type treeNode struct {
	feature   int
	threshold float64
	left      int
	right     int
	value     float64
}

// tree is a binary regression tree. Fitted on 0/1 labels the squared-error
// criterion is proportional to Gini impurity, so the same learner backs
// both the forest and the boosted stages.
type tree struct {
	nodes []treeNode
}

func (t *tree) predict(x []float64) float64 {
	i := 0
	for {
		n := t.nodes[i]
		if n.feature < 0 {
			return n.value
		}
		if x[n.feature] <= n.threshold {
			i = n.left
		} else {
			i = n.right
		}
	}
}

type treeParams struct {
	maxDepth        int
	minSamplesSplit int
	minSamplesLeaf  int
	// maxFeatures is the number of candidate features per split; 0 means all.
	maxFeatures int
}

type treeBuilder struct {
	params     treeParams
	x          [][]float64
	target     []float64
	rng        *rand.Rand
	leafValue  func(idx []int) float64
	importance []float64
	nodes      []treeNode
}

// growTree fits a tree on the rows in idx. importance accumulates the
// squared-error reduction of every split per feature.
func growTree(x [][]float64, target []float64, idx []int, p treeParams, rng *rand.Rand, leafValue func([]int) float64, importance []float64) *tree {
	if leafValue == nil {
		leafValue = func(rows []int) float64 { return meanOf(target, rows) }
	}
	b := &treeBuilder{
		params:     p,
		x:          x,
		target:     target,
		rng:        rng,
		leafValue:  leafValue,
		importance: importance,
	}
	b.grow(idx, 0)
	return &tree{nodes: b.nodes}
}

func (b *treeBuilder) leaf(idx []int) int {
	b.nodes = append(b.nodes, treeNode{feature: -1, value: b.leafValue(idx)})
	return len(b.nodes) - 1
}

func (b *treeBuilder) grow(idx []int, depth int) int {
	n := len(idx)
	if depth >= b.params.maxDepth || n < b.params.minSamplesSplit || n < 2*b.params.minSamplesLeaf {
		return b.leaf(idx)
	}
	parent := sse(b.target, idx)
	if parent <= 1e-12 {
		return b.leaf(idx)
	}

	feature, threshold, gain := b.bestSplit(idx, parent)
	if feature < 0 {
		return b.leaf(idx)
	}
	if b.importance != nil {
		b.importance[feature] += gain
	}

	var left, right []int
	for _, i := range idx {
		if b.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	self := len(b.nodes)
	b.nodes = append(b.nodes, treeNode{feature: feature, threshold: threshold})
	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[self].left = l
	b.nodes[self].right = r
	return self
}

func (b *treeBuilder) candidates() []int {
	d := len(b.x[0])
	if b.params.maxFeatures <= 0 || b.params.maxFeatures >= d {
		all := make([]int, d)
		for i := range all {
			all[i] = i
		}
		return all
	}
	return b.rng.Perm(d)[:b.params.maxFeatures]
}

func (b *treeBuilder) bestSplit(idx []int, parent float64) (int, float64, float64) {
	bestFeature, bestThreshold, bestGain := -1, 0.0, 1e-12
	minLeaf := b.params.minSamplesLeaf
	if minLeaf < 1 {
		minLeaf = 1
	}

	sorted := make([]int, len(idx))
	var total, totalSq float64
	for _, i := range idx {
		total += b.target[i]
		totalSq += b.target[i] * b.target[i]
	}
	n := float64(len(idx))

	for _, f := range b.candidates() {
		copy(sorted, idx)
		sort.Slice(sorted, func(a, c int) bool { return b.x[sorted[a]][f] < b.x[sorted[c]][f] })

		var sum, sumSq float64
		for k := 0; k < len(sorted)-1; k++ {
			y := b.target[sorted[k]]
			sum += y
			sumSq += y * y
			left := float64(k + 1)
			if k+1 < minLeaf || len(sorted)-k-1 < minLeaf {
				continue
			}
			lo, hi := b.x[sorted[k]][f], b.x[sorted[k+1]][f]
			if lo == hi {
				continue
			}
			right := n - left
			lsse := sumSq - sum*sum/left
			rsse := (totalSq - sumSq) - (total-sum)*(total-sum)/right
			if gain := parent - lsse - rsse; gain > bestGain {
				bestFeature, bestThreshold, bestGain = f, (lo+hi)/2, gain
			}
		}
	}
	return bestFeature, bestThreshold, bestGain
}

func meanOf(v []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	s := 0.0
	for _, i := range idx {
		s += v[i]
	}
	return s / float64(len(idx))
}

func sse(v []float64, idx []int) float64 {
	m := meanOf(v, idx)
	s := 0.0
	for _, i := range idx {
		d := v[i] - m
		s += d * d
	}
	return s
}
