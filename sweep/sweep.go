// Package sweep expands hyperparameter grids into runs, fits every
// run on a data set and aggregates scores.
package sweep

import (
	"fmt"
	"time"

	"github.com/op/go-logging"

	"github.com/mrrlab/rncrp/metrics"
	"github.com/mrrlab/rncrp/model"
	"github.com/mrrlab/rncrp/synthetic"
)

// log is the global logging variable.
var log = logging.MustGetLogger("sweep")

// Grid is the cartesian hyperparameter space of a sweep.
type Grid struct {
	// Alphas are the concentration values to try.
	Alphas []float64
	// SigmaSqs are the observation variances to try.
	SigmaSqs []float64
	// Dynamics are the dynamics family names to try.
	Dynamics []string
	// DynamicsParams is shared by all families in the grid.
	DynamicsParams map[string]float64
	// Repeats fits every combination this many times (default 1).
	Repeats int
}

// Point is one run of a sweep.
type Point struct {
	Name           string
	Alpha          float64
	SigmaSq        float64
	Dynamics       string
	DynamicsParams map[string]float64
	Repeat         int
}

// Points expands the grid into the full list of runs.
func (g *Grid) Points() []Point {
	repeats := g.Repeats
	if repeats < 1 {
		repeats = 1
	}
	var points []Point
	for _, dyn := range g.Dynamics {
		for _, alpha := range g.Alphas {
			for _, sigmaSq := range g.SigmaSqs {
				for r := 0; r < repeats; r++ {
					points = append(points, Point{
						Name:           fmt.Sprintf("%s-a%g-s%g-r%d", dyn, alpha, sigmaSq, r),
						Alpha:          alpha,
						SigmaSq:        sigmaSq,
						Dynamics:       dyn,
						DynamicsParams: g.DynamicsParams,
						Repeat:         r,
					})
				}
			}
		}
	}
	return points
}

// Run states.
const (
	StateFinished = "finished"
	StateFailed   = "failed"
)

// Record is the outcome of one run.
type Record struct {
	Name                string  `json:"run_name"`
	State               string  `json:"state"`
	Alpha               float64 `json:"alpha"`
	SigmaSq             float64 `json:"likelihood_cov_prefactor"`
	Dynamics            string  `json:"dynamics"`
	Repeat              int     `json:"repeat"`
	ARI                 float64 `json:"adjusted_rand_index"`
	ReconstructionError float64 `json:"reconstruction_error"`
	NumInferredClusters int     `json:"num_inferred_clusters"`
	NumTrueClusters     int     `json:"num_true_clusters"`
	Runtime             float64 `json:"runtime"`
	Error               string  `json:"error,omitempty"`
}

// Run fits every point of the sweep on the data set. A failing run
// produces a failed record instead of aborting the sweep.
func Run(ds *synthetic.Dataset, points []Point) []Record {
	records := make([]Record, 0, len(points))
	for _, pt := range points {
		log.Noticef("Running %s", pt.Name)
		records = append(records, runOne(ds, pt))
	}
	return records
}

func runOne(ds *synthetic.Dataset, pt Point) Record {
	rec := Record{
		Name:     pt.Name,
		Alpha:    pt.Alpha,
		SigmaSq:  pt.SigmaSq,
		Dynamics: pt.Dynamics,
		Repeat:   pt.Repeat,
	}
	start := time.Now()
	defer func() { rec.Runtime = time.Since(start).Seconds() }()

	fail := func(err error) Record {
		log.Warningf("Run %s failed: %v", pt.Name, err)
		rec.State = StateFailed
		rec.Error = err.Error()
		rec.Runtime = time.Since(start).Seconds()
		return rec
	}

	cfg := &model.Config{
		Mixing: model.MixingParams{
			Alpha:          pt.Alpha,
			Dynamics:       pt.Dynamics,
			DynamicsParams: pt.DynamicsParams,
		},
		Likelihood: model.LikelihoodParams{
			Distribution: model.MultivariateNormal,
			CovPrefactor: pt.SigmaSq,
		},
	}
	m, err := model.New(cfg)
	if err != nil {
		return fail(err)
	}
	res, err := m.Fit(ds.Observations, ds.ObservationTimes)
	if err != nil {
		return fail(err)
	}

	inferred := metrics.MAPAssignments(res.AssignmentPosteriors)
	ari, err := metrics.AdjustedRandIndex(ds.Assignments, inferred)
	if err != nil {
		return fail(err)
	}
	centroids, err := m.CentroidsAfterLastObs()
	if err != nil {
		return fail(err)
	}
	recErr, err := metrics.SumSquaredDistancesToNearestCentroid(ds.Observations, centroids)
	if err != nil {
		return fail(err)
	}

	byObs := metrics.NumInferredClustersByObs(inferred)
	trueByObs := metrics.NumInferredClustersByObs(ds.Assignments)

	rec.State = StateFinished
	rec.ARI = ari
	rec.ReconstructionError = recErr
	rec.NumInferredClusters = byObs[len(byObs)-1]
	rec.NumTrueClusters = trueByObs[len(trueByObs)-1]
	return rec
}
