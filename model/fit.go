package model

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/mrrlab/rncrp/checkpoint"
)

// FitResults holds the posterior snapshots of a completed fit. Row t
// of every matrix is the state after observation t; entries beyond
// slot t are zero.
type FitResults struct {
	// AssignmentPriors.At(t, k) is the prior probability, before
	// seeing observation t, of assigning it to slot k.
	AssignmentPriors *mat.Dense
	// AssignmentPosteriors.At(t, k) is the variational posterior of
	// assigning observation t to slot k.
	AssignmentPosteriors *mat.Dense
	// NumClustersPosteriors.At(t, k) is the posterior probability
	// that k+1 clusters are in use after observation t.
	NumClustersPosteriors *mat.Dense
	// Means holds the final-step cluster means, one slot per row.
	Means *mat.Dense
	// CovFactors holds the final-step symmetric square-root
	// covariance factors per slot, cov = S*S.
	CovFactors []*mat.SymDense
}

// clone deep-copies the results so the caller and the model never
// share backing storage.
func (r *FitResults) clone() *FitResults {
	nr := &FitResults{
		AssignmentPriors:      mat.DenseCopyOf(r.AssignmentPriors),
		AssignmentPosteriors:  mat.DenseCopyOf(r.AssignmentPosteriors),
		NumClustersPosteriors: mat.DenseCopyOf(r.NumClustersPosteriors),
		Means:                 mat.DenseCopyOf(r.Means),
		CovFactors:            make([]*mat.SymDense, len(r.CovFactors)),
	}
	for k, s := range r.CovFactors {
		nr.CovFactors[k] = mat.NewSymDense(s.SymmetricDim(), nil)
		nr.CovFactors[k].CopySym(s)
	}
	return nr
}

// Fit runs single-pass sequential variational inference over the
// observations. observations is numObs x obsDim; times must be
// strictly increasing with one entry per observation. The returned
// results are owned by the caller.
func (m *Model) Fit(observations *mat.Dense, times []float64) (*FitResults, error) {
	numObs, obsDim := observations.Dims()
	if numObs == 0 || obsDim == 0 {
		return nil, fmt.Errorf("empty observation matrix (%d x %d)", numObs, obsDim)
	}
	if len(times) != numObs {
		return nil, fmt.Errorf("got %d observation times for %d observations", len(times), numObs)
	}
	for t := 1; t < numObs; t++ {
		if !(times[t] > times[t-1]) {
			return nil, fmt.Errorf("observation times must be strictly increasing, times[%d]=%v, times[%d]=%v",
				t-1, times[t-1], t, times[t])
		}
	}
	lik, err := m.newLikelihood()
	if err != nil {
		return nil, err
	}

	log.Noticef("Fitting %d observations of dimension %d (alpha=%v, dynamics=%s)",
		numObs, obsDim, m.cfg.Mixing.Alpha, m.cfg.Mixing.Dynamics)

	vp := newVarParams(numObs, obsDim)
	priors := mat.NewDense(numObs, numObs, nil)
	counts := mat.NewDense(numObs, numObs, nil)

	// Observation 0 founds cluster 0 deterministically.
	obs := make([]float64, obsDim)
	mat.Row(obs, 0, observations)
	priors.Set(0, 0, 1)
	vp.probs.Set(0, 0, 1)
	counts.Set(0, 0, 1)
	lik.initializeCluster(obs, 0, vp)
	st := m.proc.InitializeState(vp.probsRow(0), times[0])
	m.checkpointStep(0, numObs, counts)

	for t := 1; t < numObs; t++ {
		mat.Row(obs, t, observations)

		forecast := m.proc.RunDynamics(st, times[t-1], times[t])
		countPrev := counts.RawRowView(t - 1)[:t]
		prior, err := buildAssignmentPrior(forecast.N, countPrev, m.cfg.Mixing.Alpha, t)
		if err != nil {
			return nil, fmt.Errorf("observation %d: %v", t, err)
		}
		priors.SetRow(t, padRow(prior, numObs))
		logPrior := make([]float64, t+1)
		for k, p := range prior {
			logPrior[k] = math.Log(p)
		}

		vp.warmStart(t)
		lik.initializeCluster(obs, t, vp)
		gb, err := newGaussBlock(t, vp)
		if err != nil {
			return nil, fmt.Errorf("observation %d: %v", t, err)
		}

		for pass := 0; pass < m.numCoordAscentSteps; pass++ {
			log.Debugf("obs=%d pass=%d", t, pass)
			if err := lik.optimizeParams(obs, t, gb, vp); err != nil {
				return nil, fmt.Errorf("observation %d, pass %d: %v", t, pass, err)
			}
			if err := lik.optimizeAssignments(obs, t, logPrior, vp); err != nil {
				return nil, fmt.Errorf("observation %d, pass %d: %v", t, pass, err)
			}
		}

		count, err := updateCountPosterior(vp.probsRow(t), countPrev)
		if err != nil {
			return nil, fmt.Errorf("observation %d: %v", t, err)
		}
		counts.SetRow(t, padRow(count, numObs))

		st = m.proc.UpdateState(st, vp.probsRow(t), times[t])
		m.checkpointStep(t, numObs, counts)
	}

	last := numObs - 1
	res := &FitResults{
		AssignmentPriors:      priors,
		AssignmentPosteriors:  vp.probs,
		NumClustersPosteriors: counts,
		Means:                 vp.means[last],
		CovFactors:            vp.factors[last],
	}
	m.results = res
	m.checkpointFinal(last, numObs, counts)
	log.Noticef("Fit finished, posterior mean number of clusters %.3f", meanNumClusters(counts, last))
	return res.clone(), nil
}

// padRow extends a slot vector with zeros to the full row width.
func padRow(xs []float64, width int) []float64 {
	row := make([]float64, width)
	copy(row, xs)
	return row
}

// meanNumClusters is the expectation of the count posterior in row t.
func meanNumClusters(counts *mat.Dense, t int) float64 {
	row := counts.RawRowView(t)
	mean := 0.0
	for k, p := range row {
		mean += float64(k+1) * p
	}
	return mean
}

func (m *Model) checkpointStep(t, numObs int, counts *mat.Dense) {
	if m.cpio == nil || !m.cpio.Old() {
		return
	}
	m.cpio.Save(&checkpoint.CheckpointData{
		ObsIdx:          t,
		NumObs:          numObs,
		MeanNumClusters: meanNumClusters(counts, t),
	})
}

func (m *Model) checkpointFinal(t, numObs int, counts *mat.Dense) {
	if m.cpio == nil {
		return
	}
	m.cpio.Save(&checkpoint.CheckpointData{
		ObsIdx:          t,
		NumObs:          numObs,
		MeanNumClusters: meanNumClusters(counts, t),
		Final:           true,
	})
}

// CentroidsAfterLastObs returns the means of the active clusters, one
// per row. A slot is active if at least one observation's MAP
// assignment selects it; slots are returned in index order.
func (m *Model) CentroidsAfterLastObs() (*mat.Dense, error) {
	if m.results == nil {
		return nil, errors.New("model has not been fitted")
	}
	post := m.results.AssignmentPosteriors
	numObs, _ := post.Dims()
	_, obsDim := m.results.Means.Dims()

	active := make([]bool, numObs)
	for t := 0; t < numObs; t++ {
		best, bestP := 0, post.At(t, 0)
		for k := 1; k <= t; k++ {
			if p := post.At(t, k); p > bestP {
				best, bestP = k, p
			}
		}
		active[best] = true
	}

	var slots []int
	for k, a := range active {
		if a {
			slots = append(slots, k)
		}
	}
	centroids := mat.NewDense(len(slots), obsDim, nil)
	buf := make([]float64, obsDim)
	for i, k := range slots {
		mat.Row(buf, k, m.results.Means)
		centroids.SetRow(i, buf)
	}
	return centroids, nil
}

// Results returns the internally retained fit results, or nil before
// any fit.
func (m *Model) Results() *FitResults {
	return m.results
}
