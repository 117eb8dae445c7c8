package model

import (
	"gonum.org/v1/gonum/mat"
)

// varParams is the dense per-step variational store. Row t of every
// field is the posterior snapshot after observation t; at most the
// first t+1 cluster slots of a row are meaningful. The store is
// allocated up front for all observations, trading memory for simple
// indexing.
type varParams struct {
	numObs int
	obsDim int

	// probs.At(t, k) is the posterior probability that observation t
	// belongs to cluster slot k.
	probs *mat.Dense
	// means[t] holds one slot mean per row.
	means []*mat.Dense
	// factors[t][k] is the symmetric square-root factor S of slot
	// k's covariance, cov = S*S. Keeping the factor instead of the
	// covariance keeps the stored matrix PSD under round-off.
	factors [][]*mat.SymDense
}

func newVarParams(numObs, obsDim int) *varParams {
	vp := &varParams{
		numObs:  numObs,
		obsDim:  obsDim,
		probs:   mat.NewDense(numObs, numObs, nil),
		means:   make([]*mat.Dense, numObs),
		factors: make([][]*mat.SymDense, numObs),
	}
	for t := 0; t < numObs; t++ {
		vp.means[t] = mat.NewDense(numObs, obsDim, nil)
		vp.factors[t] = make([]*mat.SymDense, numObs)
		for k := 0; k < numObs; k++ {
			vp.factors[t][k] = mat.NewSymDense(obsDim, nil)
		}
	}
	return vp
}

// probsRow returns the assignment probabilities of observation t over
// slots 0..t.
func (vp *varParams) probsRow(t int) []float64 {
	return vp.probs.RawRowView(t)[: t+1 : t+1]
}

// warmStart copies step t-1's posterior into step t for the slots
// that already existed. Slot t stays untouched; it is seeded
// separately from the raw observation.
func (vp *varParams) warmStart(t int) {
	buf := make([]float64, vp.obsDim)
	for k := 0; k < t; k++ {
		vp.probs.Set(t, k, vp.probs.At(t-1, k))
		mat.Row(buf, k, vp.means[t-1])
		vp.means[t].SetRow(k, buf)
		vp.factors[t][k].CopySym(vp.factors[t-1][k])
	}
}
