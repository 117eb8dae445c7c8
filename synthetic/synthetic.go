// Package synthetic samples data sets from the RN-CRP mixture
// generative model, for experiments and tests.
package synthetic

import (
	"fmt"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/mrrlab/rncrp/dist"
	"github.com/mrrlab/rncrp/dynamics"
)

// Params configures the generative model. The mixing fields mirror
// the inference configuration; the prefactors scale the isotropic
// covariances of the centroid prior and the observation noise.
type Params struct {
	Alpha                      float64
	Dynamics                   string
	DynamicsParams             map[string]float64
	CentroidsPriorCovPrefactor float64
	LikelihoodCovPrefactor     float64
}

// Dataset is a sampled mixture data set.
type Dataset struct {
	// Observations is numObs x obsDim.
	Observations *mat.Dense
	// ObservationTimes are the strictly increasing arrival times.
	ObservationTimes []float64
	// Assignments are the true cluster labels per observation.
	Assignments []int
	// Means are the true component means, one per row.
	Means *mat.Dense
}

// UnitTimes returns arrival times 1..n.
func UnitTimes(n int) []float64 {
	times := make([]float64, n)
	for i := range times {
		times[i] = float64(i + 1)
	}
	return times
}

// GammaTimes returns arrival times whose gaps are gamma distributed
// with the given shape and rate, drawn by inverse-CDF sampling.
func GammaTimes(n int, shape, rate float64, src rand.Source) []float64 {
	u := rand.New(src)
	times := make([]float64, n)
	t := 0.0
	for i := range times {
		t += dist.QuantileGamma(u.Float64(), shape, rate)
		times[i] = t
	}
	return times
}

// oneHot returns a length-n probability vector concentrated on k.
func oneHot(k, n int) []float64 {
	p := make([]float64, n)
	p[k] = 1
	return p
}

// SampleAssignments draws a partition of numCustomers customers from
// the RN-CRP prior at the given arrival times.
func SampleAssignments(numCustomers int, p *Params, times []float64, src rand.Source) ([]int, error) {
	if numCustomers < 1 {
		return nil, fmt.Errorf("need at least one customer, got %d", numCustomers)
	}
	if len(times) != numCustomers {
		return nil, fmt.Errorf("got %d times for %d customers", len(times), numCustomers)
	}
	proc, err := dynamics.New(p.Dynamics, p.DynamicsParams)
	if err != nil {
		return nil, err
	}

	assignments := make([]int, numCustomers)
	numTables := 1
	st := proc.InitializeState(oneHot(0, 1), times[0])
	for i := 1; i < numCustomers; i++ {
		forecast := proc.RunDynamics(st, times[i-1], times[i])

		w := make([]float64, numTables+1)
		n := len(forecast.N)
		if n > numTables+1 {
			n = numTables + 1
		}
		copy(w, forecast.N[:n])
		w[numTables] += p.Alpha

		cat := distuv.NewCategorical(w, src)
		z := int(cat.Rand())
		assignments[i] = z
		if z == numTables {
			numTables++
		}
		st = proc.UpdateState(st, oneHot(z, numTables), times[i])
	}
	return assignments, nil
}

// SampleMixture draws a full data set: a partition from the RN-CRP
// prior, component means from an isotropic Gaussian prior, and
// observations from isotropic Gaussians around their component means.
func SampleMixture(numObs, obsDim int, p *Params, times []float64, src rand.Source) (*Dataset, error) {
	if obsDim < 1 {
		return nil, fmt.Errorf("observation dimension must be positive, got %d", obsDim)
	}
	assignments, err := SampleAssignments(numObs, p, times, src)
	if err != nil {
		return nil, err
	}
	numComponents := 0
	for _, z := range assignments {
		if z+1 > numComponents {
			numComponents = z + 1
		}
	}

	meanPrior, ok := distmv.NewNormal(
		make([]float64, obsDim),
		isotropic(obsDim, p.CentroidsPriorCovPrefactor), src)
	if !ok {
		return nil, fmt.Errorf("invalid centroid prior covariance prefactor %v", p.CentroidsPriorCovPrefactor)
	}
	means := mat.NewDense(numComponents, obsDim, nil)
	for k := 0; k < numComponents; k++ {
		means.SetRow(k, meanPrior.Rand(nil))
	}

	observations := mat.NewDense(numObs, obsDim, nil)
	buf := make([]float64, obsDim)
	for i, z := range assignments {
		mat.Row(buf, z, means)
		noise, ok := distmv.NewNormal(buf, isotropic(obsDim, p.LikelihoodCovPrefactor), src)
		if !ok {
			return nil, fmt.Errorf("invalid likelihood covariance prefactor %v", p.LikelihoodCovPrefactor)
		}
		observations.SetRow(i, noise.Rand(nil))
	}

	return &Dataset{
		Observations:     observations,
		ObservationTimes: times,
		Assignments:      assignments,
		Means:            means,
	}, nil
}

// isotropic returns sigma^2 I.
func isotropic(d int, sigmaSq float64) *mat.SymDense {
	s := mat.NewSymDense(d, nil)
	for i := 0; i < d; i++ {
		s.SetSym(i, i, sigmaSq)
	}
	return s
}
