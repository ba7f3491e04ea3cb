package harness

import (
	"errors"
	"sort"
)

const (
	defaultMaxDepth   = 10
	defaultMinSamples = 2

	// maxSplitCandidates caps the thresholds tried per feature on
	// high-cardinality columns.
	maxSplitCandidates = 64
)

type treeNode struct {
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
	value     float64
	leaf      bool
}

// decisionTree is a CART tree. Classification splits minimize Gini impurity
// and leaves predict the majority class; regression splits minimize the
// within-partition sum of squares and leaves predict the mean.
type decisionTree struct {
	maxDepth   int
	minSamples int
	classify   bool

	// featureSet restricts splits to a subset of feature indices; nil
	// means all features. Used by the forest for per-tree bagging.
	featureSet []int

	root *treeNode
}

func newDecisionTree(classify bool) *decisionTree {
	return &decisionTree{maxDepth: defaultMaxDepth, minSamples: defaultMinSamples, classify: classify}
}

func (t *decisionTree) fit(features [][]float64, target []float64) error {
	if len(features) == 0 {
		return errors.New("decision tree: no training rows")
	}
	if len(features) != len(target) {
		return errors.New("decision tree: feature and target lengths differ")
	}
	idx := make([]int, len(features))
	for i := range idx {
		idx[i] = i
	}
	t.root = t.build(features, target, idx, 0)
	return nil
}

func (t *decisionTree) predict(features [][]float64) []float64 {
	out := make([]float64, len(features))
	for i, row := range features {
		node := t.root
		for !node.leaf {
			if row[node.feature] <= node.threshold {
				node = node.left
			} else {
				node = node.right
			}
		}
		out[i] = node.value
	}
	return out
}

func (t *decisionTree) build(features [][]float64, target []float64, idx []int, depth int) *treeNode {
	if depth >= t.maxDepth || len(idx) < t.minSamples || homogeneous(target, idx) {
		return &treeNode{leaf: true, value: t.leafValue(target, idx)}
	}
	feature, threshold, ok := t.bestSplit(features, target, idx)
	if !ok {
		return &treeNode{leaf: true, value: t.leafValue(target, idx)}
	}
	var left, right []int
	for _, i := range idx {
		if features[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return &treeNode{leaf: true, value: t.leafValue(target, idx)}
	}
	return &treeNode{
		feature:   feature,
		threshold: threshold,
		left:      t.build(features, target, left, depth+1),
		right:     t.build(features, target, right, depth+1),
	}
}

// bestSplit scans each candidate feature's midpoints between consecutive
// distinct values and keeps the split with the lowest weighted impurity.
// Ties resolve to the first candidate scanned, so tree growth is
// deterministic.
func (t *decisionTree) bestSplit(features [][]float64, target []float64, idx []int) (int, float64, bool) {
	candidates := t.featureSet
	if candidates == nil {
		candidates = make([]int, len(features[0]))
		for j := range candidates {
			candidates[j] = j
		}
	}

	bestFeature, bestThreshold := -1, 0.0
	bestImpurity := t.impurity(target, idx)
	found := false
	values := make([]float64, 0, len(idx))
	var left, right []int

	for _, feature := range candidates {
		values = values[:0]
		for _, i := range idx {
			values = append(values, features[i][feature])
		}
		for _, threshold := range splitThresholds(values) {
			left, right = left[:0], right[:0]
			for _, i := range idx {
				if features[i][feature] <= threshold {
					left = append(left, i)
				} else {
					right = append(right, i)
				}
			}
			if len(left) == 0 || len(right) == 0 {
				continue
			}
			impurity := (float64(len(left))*t.impurity(target, left) +
				float64(len(right))*t.impurity(target, right)) / float64(len(idx))
			if impurity < bestImpurity {
				bestFeature, bestThreshold, bestImpurity = feature, threshold, impurity
				found = true
			}
		}
	}
	return bestFeature, bestThreshold, found
}

// splitThresholds returns midpoints between consecutive distinct sorted
// values, striding past some midpoints when a feature has more than
// maxSplitCandidates distinct values.
func splitThresholds(values []float64) []float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	distinct := sorted[:0]
	for i, v := range sorted {
		if i == 0 || v != distinct[len(distinct)-1] {
			distinct = append(distinct, v)
		}
	}
	if len(distinct) < 2 {
		return nil
	}
	stride := 1
	if len(distinct)-1 > maxSplitCandidates {
		stride = (len(distinct) - 1) / maxSplitCandidates
	}
	var out []float64
	for i := 0; i+1 < len(distinct); i += stride {
		out = append(out, (distinct[i]+distinct[i+1])/2)
	}
	return out
}

func (t *decisionTree) impurity(target []float64, idx []int) float64 {
	if t.classify {
		return giniImpurity(target, idx)
	}
	return targetVariance(target, idx)
}

func giniImpurity(target []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	counts := make(map[float64]int)
	for _, i := range idx {
		counts[target[i]]++
	}
	gini := 1.0
	n := float64(len(idx))
	for _, c := range counts {
		p := float64(c) / n
		gini -= p * p
	}
	return gini
}

func targetVariance(target []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	mean := 0.0
	for _, i := range idx {
		mean += target[i]
	}
	mean /= float64(len(idx))
	ss := 0.0
	for _, i := range idx {
		ss += (target[i] - mean) * (target[i] - mean)
	}
	return ss / float64(len(idx))
}

func (t *decisionTree) leafValue(target []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	if t.classify {
		return majorityValue(target, idx)
	}
	sum := 0.0
	for _, i := range idx {
		sum += target[i]
	}
	return sum / float64(len(idx))
}

// majorityValue returns the most frequent value, breaking ties toward the
// smallest value.
func majorityValue(target []float64, idx []int) float64 {
	counts := make(map[float64]int)
	for _, i := range idx {
		counts[target[i]]++
	}
	best, bestCount := 0.0, -1
	for _, v := range sortedDistinctIdx(target, idx) {
		if counts[v] > bestCount {
			best, bestCount = v, counts[v]
		}
	}
	return best
}

func sortedDistinctIdx(target []float64, idx []int) []float64 {
	subset := make([]float64, len(idx))
	for i, r := range idx {
		subset[i] = target[r]
	}
	return sortedDistinct(subset)
}

func homogeneous(target []float64, idx []int) bool {
	for _, i := range idx {
		if target[i] != target[idx[0]] {
			return false
		}
	}
	return true
}
