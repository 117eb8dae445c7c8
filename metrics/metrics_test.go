package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestMAPAssignments(t *testing.T) {
	post := mat.NewDense(3, 3, []float64{
		1.0, 0.0, 0.0,
		0.3, 0.7, 0.0,
		0.2, 0.2, 0.6,
	})
	assert.Equal(t, []int{0, 1, 2}, MAPAssignments(post))
}

func TestMAPAssignmentsTieGoesLow(t *testing.T) {
	post := mat.NewDense(1, 2, []float64{0.5, 0.5})
	assert.Equal(t, []int{0}, MAPAssignments(post))
}

func TestNumInferredClustersByObs(t *testing.T) {
	got := NumInferredClustersByObs([]int{0, 0, 1, 0, 2, 1})
	assert.Equal(t, []int{1, 1, 2, 2, 3, 3}, got)
}

func TestAdjustedRandIndexPerfect(t *testing.T) {
	a := []int{0, 0, 1, 1, 2}
	ari, err := AdjustedRandIndex(a, a)
	require.NoError(t, err)
	assert.InDelta(t, 1, ari, 1e-12)
}

func TestAdjustedRandIndexRelabelInvariant(t *testing.T) {
	a := []int{0, 0, 1, 1, 2}
	b := []int{5, 5, 3, 3, 9}
	ari, err := AdjustedRandIndex(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 1, ari, 1e-12)
}

func TestAdjustedRandIndexKnownValue(t *testing.T) {
	// sklearn.metrics.adjusted_rand_score([0,0,1,1],[0,0,1,2]) = 0.5714285714285715
	ari, err := AdjustedRandIndex([]int{0, 0, 1, 1}, []int{0, 0, 1, 2})
	require.NoError(t, err)
	assert.InDelta(t, 0.5714285714285715, ari, 1e-12)
}

func TestAdjustedRandIndexErrors(t *testing.T) {
	_, err := AdjustedRandIndex([]int{0}, []int{0, 1})
	assert.Error(t, err)

	_, err = AdjustedRandIndex(nil, nil)
	assert.Error(t, err)
}

func TestSumSquaredDistances(t *testing.T) {
	obs := mat.NewDense(3, 1, []float64{0, 1, 10})
	centroids := mat.NewDense(2, 1, []float64{0, 10})
	got, err := SumSquaredDistancesToNearestCentroid(obs, centroids)
	require.NoError(t, err)
	assert.InDelta(t, 1, got, 1e-12)
}

func TestSumSquaredDistancesErrors(t *testing.T) {
	obs := mat.NewDense(1, 2, []float64{0, 0})
	_, err := SumSquaredDistancesToNearestCentroid(obs, mat.NewDense(1, 3, nil))
	assert.Error(t, err)
}
