package harness

import (
	"errors"
	"math"
	"math/rand"
)

const forestSeed = 42

// randomForest is an ensemble of CART trees. Each tree trains on a bootstrap
// sample of the rows; classification trees additionally restrict themselves
// to a random sqrt-sized feature subset. The forest seed fixes all sampling,
// so repeated fits produce identical ensembles.
type randomForest struct {
	trees    int
	classify bool
	seed     int64
	fitted   []*decisionTree
}

func newRandomForest(classify bool, trees int) *randomForest {
	return &randomForest{trees: trees, classify: classify, seed: forestSeed}
}

func (f *randomForest) fit(features [][]float64, target []float64) error {
	if len(features) == 0 {
		return errors.New("random forest: no training rows")
	}
	rng := rand.New(rand.NewSource(f.seed))
	n := len(features)
	cols := len(features[0])

	subset := cols
	if f.classify && cols > 1 {
		subset = int(math.Sqrt(float64(cols)))
		if subset < 1 {
			subset = 1
		}
	}

	f.fitted = make([]*decisionTree, f.trees)
	for t := range f.fitted {
		sampleX := make([][]float64, n)
		sampleY := make([]float64, n)
		for i := 0; i < n; i++ {
			r := rng.Intn(n)
			sampleX[i] = features[r]
			sampleY[i] = target[r]
		}
		tree := newDecisionTree(f.classify)
		if subset < cols {
			perm := rng.Perm(cols)
			tree.featureSet = append([]int(nil), perm[:subset]...)
		}
		if err := tree.fit(sampleX, sampleY); err != nil {
			return err
		}
		f.fitted[t] = tree
	}
	return nil
}

func (f *randomForest) predict(features [][]float64) []float64 {
	votes := make([][]float64, len(features))
	for i := range votes {
		votes[i] = make([]float64, 0, len(f.fitted))
	}
	for _, tree := range f.fitted {
		for i, p := range tree.predict(features) {
			votes[i] = append(votes[i], p)
		}
	}

	out := make([]float64, len(features))
	for i, v := range votes {
		if f.classify {
			out[i] = majorityVote(v)
		} else {
			sum := 0.0
			for _, p := range v {
				sum += p
			}
			out[i] = sum / float64(len(v))
		}
	}
	return out
}

// majorityVote returns the most frequent prediction, breaking ties toward
// the smallest value.
func majorityVote(votes []float64) float64 {
	counts := make(map[float64]int, len(votes))
	for _, v := range votes {
		counts[v]++
	}
	best, bestCount := 0.0, -1
	for _, v := range sortedDistinct(votes) {
		if counts[v] > bestCount {
			best, bestCount = v, counts[v]
		}
	}
	return best
}
