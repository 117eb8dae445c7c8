// Package metrics scores inferred clusterings against ground truth
// and against the data.
package metrics

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// MAPAssignments returns, per observation, the slot with the highest
// posterior probability. Ties go to the lowest slot index.
func MAPAssignments(posteriors mat.Matrix) []int {
	n, cols := posteriors.Dims()
	assignments := make([]int, n)
	for t := 0; t < n; t++ {
		best, bestP := 0, posteriors.At(t, 0)
		for k := 1; k < cols; k++ {
			if p := posteriors.At(t, k); p > bestP {
				best, bestP = k, p
			}
		}
		assignments[t] = best
	}
	return assignments
}

// NumInferredClustersByObs returns the running number of distinct
// labels over the assignment prefix ending at each observation.
func NumInferredClustersByObs(assignments []int) []int {
	seen := make(map[int]bool)
	counts := make([]int, len(assignments))
	for i, z := range assignments {
		seen[z] = true
		counts[i] = len(seen)
	}
	return counts
}

// comb2 is n choose 2.
func comb2(n int) float64 {
	return float64(n) * float64(n-1) / 2
}

// AdjustedRandIndex compares two labelings of the same observations.
// It is 1 for identical partitions and close to 0 for independent
// ones; the adjustment allows negative values for partitions that
// agree less than chance.
func AdjustedRandIndex(a, b []int) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("labelings differ in length: %d vs %d", len(a), len(b))
	}
	if len(a) == 0 {
		return 0, fmt.Errorf("empty labelings")
	}

	type pair struct{ a, b int }
	contingency := make(map[pair]int)
	rowSums := make(map[int]int)
	colSums := make(map[int]int)
	for i := range a {
		contingency[pair{a[i], b[i]}]++
		rowSums[a[i]]++
		colSums[b[i]]++
	}

	var sumCells, sumRows, sumCols float64
	for _, n := range contingency {
		sumCells += comb2(n)
	}
	for _, n := range rowSums {
		sumRows += comb2(n)
	}
	for _, n := range colSums {
		sumCols += comb2(n)
	}

	expected := sumRows * sumCols / comb2(len(a))
	maxIndex := (sumRows + sumCols) / 2
	if maxIndex == expected {
		// both partitions are all-singletons or a single block
		return 1, nil
	}
	return (sumCells - expected) / (maxIndex - expected), nil
}

// SumSquaredDistancesToNearestCentroid is the k-means style
// reconstruction error of the data under the given centroids.
func SumSquaredDistancesToNearestCentroid(observations, centroids mat.Matrix) (float64, error) {
	n, d := observations.Dims()
	k, cd := centroids.Dims()
	if k == 0 {
		return 0, fmt.Errorf("no centroids")
	}
	if d != cd {
		return 0, fmt.Errorf("dimension mismatch: observations %d, centroids %d", d, cd)
	}

	total := 0.0
	for i := 0; i < n; i++ {
		best := 0.0
		for c := 0; c < k; c++ {
			dist := 0.0
			for j := 0; j < d; j++ {
				diff := observations.At(i, j) - centroids.At(c, j)
				dist += diff * diff
			}
			if c == 0 || dist < best {
				best = dist
			}
		}
		total += best
	}
	return total, nil
}
