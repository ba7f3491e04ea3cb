package harness

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

const (
	clusterSeed     = 42
	clusterRestarts = 10
	clusterMaxIter  = 300
)

// kMeans runs Lloyd iterations from several random initializations and keeps
// the assignment with the lowest inertia. The seed fixes every restart, so
// clustering the same matrix twice yields the same labels.
type kMeans struct {
	k        int
	seed     int64
	restarts int
	maxIter  int
}

func newKMeans(k int) *kMeans {
	return &kMeans{k: k, seed: clusterSeed, restarts: clusterRestarts, maxIter: clusterMaxIter}
}

func (km *kMeans) fitPredict(features [][]float64) ([]int, error) {
	n := len(features)
	if n == 0 {
		return nil, errors.New("k-means: no rows")
	}
	if km.k < 1 {
		return nil, errors.New("k-means: need at least one cluster")
	}
	if km.k > n {
		return nil, fmt.Errorf("k-means: %d clusters for %d rows", km.k, n)
	}

	rng := rand.New(rand.NewSource(km.seed))
	var best []int
	bestInertia := math.Inf(1)
	for r := 0; r < km.restarts; r++ {
		labels, inertia := km.run(features, rng)
		if inertia < bestInertia {
			best, bestInertia = labels, inertia
		}
	}
	return best, nil
}

func (km *kMeans) run(features [][]float64, rng *rand.Rand) ([]int, float64) {
	n := len(features)
	dims := len(features[0])

	centroids := make([][]float64, km.k)
	for i, r := range rng.Perm(n)[:km.k] {
		centroids[i] = append([]float64(nil), features[r]...)
	}

	labels := make([]int, n)
	for iter := 0; iter < km.maxIter; iter++ {
		changed := false
		for i, row := range features {
			c := nearestCentroid(row, centroids)
			if c != labels[i] || iter == 0 {
				labels[i] = c
				changed = true
			}
		}
		if !changed {
			break
		}

		sums := make([][]float64, km.k)
		counts := make([]int, km.k)
		for c := range sums {
			sums[c] = make([]float64, dims)
		}
		for i, row := range features {
			c := labels[i]
			counts[c]++
			for j, v := range row {
				sums[c][j] += v
			}
		}
		for c := range centroids {
			if counts[c] == 0 {
				continue
			}
			for j := range centroids[c] {
				centroids[c][j] = sums[c][j] / float64(counts[c])
			}
		}
	}

	inertia := 0.0
	for i, row := range features {
		inertia += squaredDistance(row, centroids[labels[i]])
	}
	return labels, inertia
}

func nearestCentroid(row []float64, centroids [][]float64) int {
	best, bestDist := 0, math.Inf(1)
	for c, centroid := range centroids {
		if d := squaredDistance(row, centroid); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func squaredDistance(a, b []float64) float64 {
	sum := 0.0
	for j := range a {
		diff := a[j] - b[j]
		sum += diff * diff
	}
	return sum
}

// silhouetteScore averages the per-row silhouette coefficient
// (b-a)/max(a,b), with a the mean distance to the row's own cluster and b
// the smallest mean distance to another cluster. Rows alone in their cluster
// score zero.
func silhouetteScore(features [][]float64, labels []int) (float64, error) {
	n := len(features)
	if n < 2 {
		return 0, errors.New("silhouette: need at least two rows")
	}
	clusters := 0
	for _, l := range labels {
		if l+1 > clusters {
			clusters = l + 1
		}
	}
	sizes := make([]int, clusters)
	for _, l := range labels {
		sizes[l]++
	}

	total := 0.0
	sums := make([]float64, clusters)
	for i, row := range features {
		for c := range sums {
			sums[c] = 0
		}
		for j, other := range features {
			if i == j {
				continue
			}
			sums[labels[j]] += math.Sqrt(squaredDistance(row, other))
		}

		own := labels[i]
		if sizes[own] < 2 {
			continue
		}
		a := sums[own] / float64(sizes[own]-1)
		b := math.Inf(1)
		for c := range sums {
			if c == own || sizes[c] == 0 {
				continue
			}
			if mean := sums[c] / float64(sizes[c]); mean < b {
				b = mean
			}
		}
		if denom := math.Max(a, b); denom > 0 {
			total += (b - a) / denom
		}
	}
	return total / float64(n), nil
}
