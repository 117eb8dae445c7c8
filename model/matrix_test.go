package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestSymSqrtDiagonal(t *testing.T) {
	s := mat.NewSymDense(2, []float64{4, 0, 0, 9})
	dst := mat.NewSymDense(2, nil)
	vecs := mat.NewDense(2, 2, nil)

	require.NoError(t, symSqrt(s, vecs, dst))
	assert.InDelta(t, 2, dst.At(0, 0), 1e-12)
	assert.InDelta(t, 3, dst.At(1, 1), 1e-12)
	assert.InDelta(t, 0, dst.At(0, 1), 1e-12)
}

func TestSymSqrtRoundTrip(t *testing.T) {
	f := mat.NewSymDense(2, []float64{2, 1, 1, 3})
	cov := mat.NewSymDense(2, nil)
	covFromFactor(f, cov)

	got := mat.NewSymDense(2, nil)
	vecs := mat.NewDense(2, 2, nil)
	require.NoError(t, symSqrt(cov, vecs, got))
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			assert.InDelta(t, f.At(i, j), got.At(i, j), 1e-10)
		}
	}
}

func TestSymSqrtRejectsNegative(t *testing.T) {
	s := mat.NewSymDense(2, []float64{1, 0, 0, -1})
	dst := mat.NewSymDense(2, nil)
	vecs := mat.NewDense(2, 2, nil)
	assert.Error(t, symSqrt(s, vecs, dst))
}

func TestSymInverse(t *testing.T) {
	s := mat.NewSymDense(2, []float64{2, 1, 1, 2})
	dst := mat.NewSymDense(2, nil)
	vecs := mat.NewDense(2, 2, nil)

	require.NoError(t, symInverse(s, vecs, dst))
	assert.InDelta(t, 2.0/3, dst.At(0, 0), 1e-12)
	assert.InDelta(t, -1.0/3, dst.At(0, 1), 1e-12)
	assert.InDelta(t, 2.0/3, dst.At(1, 1), 1e-12)
}

func TestSymInverseRejectsSingular(t *testing.T) {
	s := mat.NewSymDense(2, []float64{1, 1, 1, 1})
	dst := mat.NewSymDense(2, nil)
	vecs := mat.NewDense(2, 2, nil)
	assert.Error(t, symInverse(s, vecs, dst))
}

func TestCovTraceFromFactor(t *testing.T) {
	f := mat.NewSymDense(2, []float64{2, 1, 1, 3})
	// tr(f*f) = 4+1 + 1+9 = 15
	assert.InDelta(t, 15, covTraceFromFactor(f), 1e-12)
}

func TestCheckSimplex(t *testing.T) {
	assert.NoError(t, checkSimplex("p", []float64{0.25, 0.75}))
	assert.Error(t, checkSimplex("p", []float64{0.5, 0.4}))
	assert.Error(t, checkSimplex("p", []float64{1.5, -0.5}))
}
