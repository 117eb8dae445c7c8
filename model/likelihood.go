package model

import (
	"fmt"
	"math"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// likelihood is the per-family part of the coordinate ascent. The
// orchestrator owns the pass loop; a likelihood owns the two block
// updates within a pass.
type likelihood interface {
	// initializeCluster seeds the candidate slot t's parameters from
	// the raw observation.
	initializeCluster(obs []float64, t int, vp *varParams)
	// optimizeParams recomputes the cluster parameters of slots 0..t
	// from the fixed prior block and the current assignment
	// probabilities.
	optimizeParams(obs []float64, t int, prior *gaussBlock, vp *varParams) error
	// optimizeAssignments recomputes the assignment posterior over
	// slots 0..t from the current cluster parameters.
	optimizeAssignments(obs []float64, t int, logPrior []float64, vp *varParams) error
}

// gaussBlock is the conjugate prior for one observation's coordinate
// ascent: the previous step's parameters for existing slots and the
// fresh seed for the candidate slot. It stays fixed across passes.
type gaussBlock struct {
	means      *mat.Dense
	precisions []*mat.SymDense
}

// newGaussBlock snapshots slots 0..t of step t right after the warm
// start, inverting each covariance once.
func newGaussBlock(t int, vp *varParams) (*gaussBlock, error) {
	d := vp.obsDim
	gb := &gaussBlock{
		means:      mat.NewDense(t+1, d, nil),
		precisions: make([]*mat.SymDense, t+1),
	}
	buf := make([]float64, d)
	cov := mat.NewSymDense(d, nil)
	vecs := mat.NewDense(d, d, nil)
	for k := 0; k <= t; k++ {
		mat.Row(buf, k, vp.means[t])
		gb.means.SetRow(k, buf)
		covFromFactor(vp.factors[t][k], cov)
		gb.precisions[k] = mat.NewSymDense(d, nil)
		if err := symInverse(cov, vecs, gb.precisions[k]); err != nil {
			return nil, fmt.Errorf("slot %d covariance: %v", k, err)
		}
	}
	return gb, nil
}

// mvnLikelihood is the isotropic Gaussian likelihood with shared
// observation variance sigmaSq.
type mvnLikelihood struct {
	sigmaSq float64
}

// initializeCluster seeds slot t with the observation as its mean and
// the identity as its covariance factor.
func (l *mvnLikelihood) initializeCluster(obs []float64, t int, vp *varParams) {
	vp.means[t].SetRow(t, obs)
	for i := 0; i < vp.obsDim; i++ {
		vp.factors[t][t].SetSym(i, i, 1)
	}
}

// optimizeParams runs the conjugate Gaussian update for every slot,
// fanning slots out over a worker pool. Each slot only touches its
// own mean row and covariance factor, so workers need no locking.
func (l *mvnLikelihood) optimizeParams(obs []float64, t int, prior *gaussBlock, vp *varParams) error {
	nSlots := t + 1
	nWorkers := runtime.GOMAXPROCS(0)
	if nWorkers > nSlots {
		nWorkers = nSlots
	}

	tasks := make(chan int, nSlots)
	errs := make(chan error, nSlots)
	var wg sync.WaitGroup
	for w := 0; w < nWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			scratch := newSlotScratch(vp.obsDim)
			for k := range tasks {
				if err := l.updateSlot(obs, t, k, prior, vp, scratch); err != nil {
					errs <- fmt.Errorf("slot %d: %v", k, err)
				}
			}
		}()
	}
	for k := 0; k < nSlots; k++ {
		tasks <- k
	}
	close(tasks)
	wg.Wait()
	close(errs)
	for err := range errs {
		return err
	}
	return nil
}

// slotScratch holds per-worker buffers for the slot update.
type slotScratch struct {
	prec *mat.SymDense
	vecs *mat.Dense
	mean []float64
	rhs  []float64
}

func newSlotScratch(d int) *slotScratch {
	return &slotScratch{
		prec: mat.NewSymDense(d, nil),
		vecs: mat.NewDense(d, d, nil),
		mean: make([]float64, d),
		rhs:  make([]float64, d),
	}
}

// updateSlot applies the conjugate update for slot k at step t:
//
//	prec_new = prec_prev + q/sigma^2 I
//	mean_new = cov_new (prec_prev mean_prev + q x / sigma^2)
//
// where q is the slot's current assignment probability. One
// eigendecomposition of prec_new yields both cov_new and its
// symmetric square root.
func (l *mvnLikelihood) updateSlot(obs []float64, t, k int, prior *gaussBlock, vp *varParams, s *slotScratch) error {
	d := vp.obsDim
	q := vp.probs.At(t, k)

	s.prec.CopySym(prior.precisions[k])
	for i := 0; i < d; i++ {
		s.prec.SetSym(i, i, s.prec.At(i, i)+q/l.sigmaSq)
	}

	vals, err := symEigen(s.prec, s.vecs)
	if err != nil {
		return err
	}
	for _, v := range vals {
		if !(v > 0) {
			return fmt.Errorf("updated precision is not positive definite (eigenvalue %v)", v)
		}
	}
	// factor of cov_new
	symApply(vals, s.vecs, func(v float64) float64 { return 1 / math.Sqrt(v) }, vp.factors[t][k])

	// rhs = prec_prev mean_prev + q x / sigma^2
	mat.Row(s.mean, k, prior.means)
	pm := mat.NewVecDense(d, s.rhs)
	pm.MulVec(prior.precisions[k], mat.NewVecDense(d, s.mean))
	floats.AddScaled(s.rhs, q/l.sigmaSq, obs)

	// mean_new = cov_new rhs = V diag(1/lambda) V^T rhs
	proj := make([]float64, d)
	for kk := 0; kk < d; kk++ {
		for j := 0; j < d; j++ {
			proj[kk] += s.vecs.At(j, kk) * s.rhs[j]
		}
		proj[kk] /= vals[kk]
	}
	for i := 0; i < d; i++ {
		sum := 0.0
		for kk := 0; kk < d; kk++ {
			sum += s.vecs.At(i, kk) * proj[kk]
		}
		s.mean[i] = sum
	}
	if err := checkFinite("cluster mean", s.mean); err != nil {
		return err
	}
	vp.means[t].SetRow(k, s.mean)
	return nil
}

// optimizeAssignments scores every slot and renormalizes through a
// shifted softmax. The score of slot k is
//
//	log prior_k + mean_k.x/sigma^2 - (tr cov_k + mean_k.mean_k)/(2 sigma^2)
//
// which is the evidence lower bound's assignment term up to constants
// shared by all slots.
func (l *mvnLikelihood) optimizeAssignments(obs []float64, t int, logPrior []float64, vp *varParams) error {
	nSlots := t + 1
	scores := make([]float64, nSlots)
	mean := make([]float64, vp.obsDim)
	for k := 0; k < nSlots; k++ {
		mat.Row(mean, k, vp.means[t])
		trCov := covTraceFromFactor(vp.factors[t][k])
		scores[k] = logPrior[k] +
			floats.Dot(mean, obs)/l.sigmaSq -
			0.5*(trCov+floats.Dot(mean, mean))/l.sigmaSq
	}

	probs, err := softmax(scores)
	if err != nil {
		return err
	}
	for k, p := range probs {
		vp.probs.Set(t, k, p)
	}
	return nil
}

// softmax exponentiates shifted scores and normalizes. Slots with a
// -Inf score (zero prior mass) get exactly zero probability.
func softmax(scores []float64) ([]float64, error) {
	max := math.Inf(-1)
	for _, s := range scores {
		if math.IsNaN(s) || math.IsInf(s, 1) {
			return nil, fmt.Errorf("assignment score is %v", s)
		}
		if s > max {
			max = s
		}
	}
	if math.IsInf(max, -1) {
		return nil, fmt.Errorf("all assignment scores are -Inf")
	}
	probs := make([]float64, len(scores))
	sum := 0.0
	for i, s := range scores {
		probs[i] = math.Exp(s - max)
		sum += probs[i]
	}
	floats.Scale(1/sum, probs)
	if err := checkSimplex("assignment posterior", probs); err != nil {
		return nil, err
	}
	return probs, nil
}
