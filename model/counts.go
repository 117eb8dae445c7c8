package model

import (
	"gonum.org/v1/gonum/floats"
)

// updateCountPosterior folds observation t's assignment posterior
// into the posterior over the number of clusters. probs covers slots
// 0..t, prev is the count posterior after observation t-1
// (prev[k] = P(K=k+1)). The recursion uses the cumulative sums of
// probs: assigning to a slot within the first k keeps K=k, assigning
// beyond them opens cluster k+1.
func updateCountPosterior(probs, prev []float64) ([]float64, error) {
	cum := make([]float64, len(probs))
	floats.CumSum(cum, probs)

	next := make([]float64, len(probs))
	for k := range prev {
		next[k] += cum[k] * prev[k]
		next[k+1] += (1 - cum[k]) * prev[k]
	}
	if err := checkSimplex("cluster-count posterior", next); err != nil {
		return nil, err
	}
	return next, nil
}
