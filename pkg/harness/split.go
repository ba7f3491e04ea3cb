package harness

import "math/rand"

// splitSeed fixes the train/test shuffle so repeated evaluations of the same
// dataset score the same partitions.
const splitSeed = 42

// splitIndices shuffles row indices deterministically and cuts them into
// train and test partitions. Both partitions are always non-empty for the
// row counts Evaluate admits.
func splitIndices(n int, testFraction float64, seed int64) (train, test []int) {
	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(n)

	cut := int(float64(n) * (1 - testFraction))
	if cut < 1 {
		cut = 1
	}
	if cut >= n {
		cut = n - 1
	}
	return perm[:cut], perm[cut:]
}

func gatherRows(features [][]float64, idx []int) [][]float64 {
	out := make([][]float64, len(idx))
	for i, r := range idx {
		out[i] = features[r]
	}
	return out
}

func gatherValues(target []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, r := range idx {
		out[i] = target[r]
	}
	return out
}
