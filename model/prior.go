package model

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// buildAssignmentPrior combines the dynamics forecast with the
// new-cluster mass for observation t. forecast holds the decayed
// pseudo-occupancies, countPrev the posterior over the number of
// clusters after observation t-1 (countPrev[k-1] = P(K=k)). The
// new-cluster mass alpha*P(K=k) lands on slot k, so the prior spreads
// the opening of a cluster over every slot that could be the first
// unused one. The result is normalized over slots 0..t.
func buildAssignmentPrior(forecast, countPrev []float64, alpha float64, t int) ([]float64, error) {
	prior := make([]float64, t+1)
	n := len(forecast)
	if n > t+1 {
		n = t + 1
	}
	copy(prior, forecast[:n])
	for k := 1; k <= t && k-1 < len(countPrev); k++ {
		prior[k] += alpha * countPrev[k-1]
	}
	sum := floats.Sum(prior)
	if err := checkFinite("assignment prior", prior); err != nil {
		return nil, err
	}
	if sum <= 0 {
		return nil, fmt.Errorf("assignment prior has non-positive mass %v", sum)
	}
	floats.Scale(1/sum, prior)
	return prior, nil
}
