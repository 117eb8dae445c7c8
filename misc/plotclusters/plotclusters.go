// plotclusters samples a synthetic data set, fits the model and
// plots the inferred against the true number of clusters over time.
package main

import (
	"flag"
	"fmt"

	"golang.org/x/exp/rand"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/mrrlab/rncrp/metrics"
	"github.com/mrrlab/rncrp/model"
	"github.com/mrrlab/rncrp/synthetic"
)

func main() {
	alpha := flag.Float64("alpha", 1.5, "concentration")
	sigmaSq := flag.Float64("sigmasq", 1, "observation variance")
	n := flag.Int("n", 200, "number of observations")
	dim := flag.Int("dim", 2, "observation dimension")
	seed := flag.Uint64("seed", 42, "random seed")
	out := flag.String("out", "clusters.png", "output file")
	flag.Parse()

	p := &synthetic.Params{
		Alpha:                      *alpha,
		Dynamics:                   "step",
		CentroidsPriorCovPrefactor: 25,
		LikelihoodCovPrefactor:     *sigmaSq,
	}
	ds, err := synthetic.SampleMixture(*n, *dim, p, synthetic.UnitTimes(*n), rand.NewSource(*seed))
	if err != nil {
		panic(err)
	}

	cfg := &model.Config{
		Mixing: model.MixingParams{
			Alpha:    *alpha,
			Dynamics: "step",
		},
		Likelihood: model.LikelihoodParams{
			Distribution: model.MultivariateNormal,
			CovPrefactor: *sigmaSq,
		},
	}
	m, err := model.New(cfg)
	if err != nil {
		panic(err)
	}
	res, err := m.Fit(ds.Observations, ds.ObservationTimes)
	if err != nil {
		panic(err)
	}

	inferred := metrics.NumInferredClustersByObs(metrics.MAPAssignments(res.AssignmentPosteriors))
	truth := metrics.NumInferredClustersByObs(ds.Assignments)
	fmt.Printf("true clusters: %d, inferred: %d\n", truth[*n-1], inferred[*n-1])

	pl, err := plot.New()
	if err != nil {
		panic(err)
	}
	pl.X.Label.Text = "observation"
	pl.Y.Label.Text = "clusters"

	truePts := make(plotter.XYs, *n)
	infPts := make(plotter.XYs, *n)
	for i := 0; i < *n; i++ {
		truePts[i].X = float64(i)
		truePts[i].Y = float64(truth[i])
		infPts[i].X = float64(i)
		infPts[i].Y = float64(inferred[i])
	}

	err = plotutil.AddLinePoints(pl,
		"true", truePts,
		"inferred", infPts)
	if err != nil {
		panic(err)
	}

	if err := pl.Save(6*vg.Inch, 4*vg.Inch, *out); err != nil {
		panic(err)
	}
}
