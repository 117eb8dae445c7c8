package model

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func unitTimes(n int) []float64 {
	times := make([]float64, n)
	for i := range times {
		times[i] = float64(i + 1)
	}
	return times
}

func fitData(t *testing.T, cfg *Config, data []float64, dim int) *FitResults {
	t.Helper()
	m, err := New(cfg)
	require.NoError(t, err)
	n := len(data) / dim
	res, err := m.Fit(mat.NewDense(n, dim, data), unitTimes(n))
	require.NoError(t, err)
	return res
}

func TestFitSingleObservation(t *testing.T) {
	res := fitData(t, validConfig(), []float64{2.5}, 1)

	assert.Equal(t, 1.0, res.AssignmentPriors.At(0, 0))
	assert.Equal(t, 1.0, res.AssignmentPosteriors.At(0, 0))
	assert.Equal(t, 1.0, res.NumClustersPosteriors.At(0, 0))
	assert.Equal(t, 2.5, res.Means.At(0, 0))
}

func TestFitFirstObservationOneHot(t *testing.T) {
	cfg := validConfig()
	cfg.Mixing.Alpha = 50 // must not matter for obs 0
	res := fitData(t, cfg, []float64{1, 2, 3}, 1)

	assert.Equal(t, 1.0, res.AssignmentPosteriors.At(0, 0))
	for k := 1; k < 3; k++ {
		assert.Equal(t, 0.0, res.AssignmentPosteriors.At(0, k))
	}
}

func TestFitPosteriorsAreSimplexes(t *testing.T) {
	data := []float64{
		0.1, 0.2,
		1.5, -0.3,
		0.0, 0.1,
		4.2, 4.0,
		-1.0, 0.5,
		4.1, 3.9,
	}
	res := fitData(t, validConfig(), data, 2)

	n, _ := res.AssignmentPosteriors.Dims()
	for t0 := 0; t0 < n; t0++ {
		assert.NoError(t, checkSimplex("posterior", res.AssignmentPosteriors.RawRowView(t0)[:t0+1]))
		assert.NoError(t, checkSimplex("prior", res.AssignmentPriors.RawRowView(t0)[:t0+1]))
		assert.NoError(t, checkSimplex("counts", res.NumClustersPosteriors.RawRowView(t0)[:t0+1]))
		// slots beyond t stay untouched
		for k := t0 + 1; k < n; k++ {
			assert.Equal(t, 0.0, res.AssignmentPosteriors.At(t0, k))
		}
	}
}

func TestFitDistantObservationOpensNewCluster(t *testing.T) {
	res := fitData(t, validConfig(), []float64{0, 0.1, 10}, 1)

	// Obs 1 sits next to obs 0. The candidate slot is seeded at the
	// observation itself, so both slots explain the value almost
	// equally well and the posterior converges to a near tie; slot 0
	// keeps only a slim edge from the trace penalty. Assert both the
	// ordering and the near tie, so a numerical change flipping the
	// balance fails loudly instead of looking like noise.
	assert.Greater(t, res.AssignmentPosteriors.At(1, 0), res.AssignmentPosteriors.At(1, 1))
	assert.InDelta(t, 0.5, res.AssignmentPosteriors.At(1, 0), 0.01)
	// obs 2 is far from everything and should open slot 2
	assert.Greater(t, res.AssignmentPosteriors.At(2, 2), 0.9)
	// the count posterior should follow
	assert.Greater(t, res.NumClustersPosteriors.At(2, 1)+res.NumClustersPosteriors.At(2, 2), 0.9)
}

func TestFitVanishingAlphaReusesCluster(t *testing.T) {
	cfg := validConfig()
	cfg.Mixing.Alpha = 1e-6
	res := fitData(t, cfg, []float64{0, 0.1}, 1)

	assert.Greater(t, res.AssignmentPosteriors.At(1, 0), 0.99)
}

func TestFitDeterministic(t *testing.T) {
	data := []float64{0.3, -1.2, 0.25, 3.4, 3.5, -1.1}

	r1 := fitData(t, validConfig(), data, 1)
	r2 := fitData(t, validConfig(), data, 1)

	if d := cmp.Diff(r1.AssignmentPosteriors.RawMatrix().Data, r2.AssignmentPosteriors.RawMatrix().Data); d != "" {
		t.Errorf("posteriors differ between identical fits:\n%s", d)
	}
	if d := cmp.Diff(r1.Means.RawMatrix().Data, r2.Means.RawMatrix().Data); d != "" {
		t.Errorf("means differ between identical fits:\n%s", d)
	}
}

func TestFitDirichletMultinomialFailsEarly(t *testing.T) {
	cfg := validConfig()
	cfg.Likelihood.Distribution = DirichletMultinomial
	m, err := New(cfg)
	require.NoError(t, err)

	_, err = m.Fit(mat.NewDense(2, 1, []float64{1, 2}), unitTimes(2))
	assert.True(t, errors.Is(err, ErrNotImplemented), "got %v", err)
}

func TestFitRejectsBadTimes(t *testing.T) {
	m, err := New(validConfig())
	require.NoError(t, err)

	_, err = m.Fit(mat.NewDense(2, 1, []float64{1, 2}), []float64{1})
	assert.Error(t, err)

	_, err = m.Fit(mat.NewDense(2, 1, []float64{1, 2}), []float64{2, 2})
	assert.Error(t, err)
}

func TestFitFinalObservationInBounds(t *testing.T) {
	// The prior of the last observation must be built from the
	// window ending at its own arrival time, without reaching past
	// the end of the series.
	res := fitData(t, validConfig(), []float64{0, 1, 2, 3}, 1)
	assert.NoError(t, checkSimplex("last prior", res.AssignmentPriors.RawRowView(3)[:4]))
}

func TestCentroidsAfterLastObs(t *testing.T) {
	cfg := validConfig()
	cfg.Mixing.Alpha = 0.5
	m, err := New(cfg)
	require.NoError(t, err)

	_, err = m.CentroidsAfterLastObs()
	assert.Error(t, err)

	data := mat.NewDense(4, 1, []float64{0, 0.1, 10, 10.2})
	_, err = m.Fit(data, unitTimes(4))
	require.NoError(t, err)

	centroids, err := m.CentroidsAfterLastObs()
	require.NoError(t, err)

	rows, _ := centroids.Dims()
	require.Equal(t, 2, rows)
	assert.Less(t, centroids.At(0, 0), 1.0)
	assert.Greater(t, centroids.At(1, 0), 9.0)
}

func TestFitResultsAreCallerOwned(t *testing.T) {
	m, err := New(validConfig())
	require.NoError(t, err)

	res, err := m.Fit(mat.NewDense(2, 1, []float64{0, 5}), unitTimes(2))
	require.NoError(t, err)

	res.AssignmentPosteriors.Set(0, 0, -42)
	assert.Equal(t, 1.0, m.Results().AssignmentPosteriors.At(0, 0))
}
