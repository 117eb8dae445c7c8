package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// eigenTol is the relative threshold below which an eigenvalue of a
// nominally PSD matrix is treated as zero.
const eigenTol = 1e-10

// symEigen computes the eigendecomposition of a symmetric matrix,
// reusing vecs for the eigenvectors.
func symEigen(s *mat.SymDense, vecs *mat.Dense) ([]float64, error) {
	var es mat.EigenSym
	if ok := es.Factorize(s, true); !ok {
		return nil, fmt.Errorf("symmetric eigendecomposition failed")
	}
	vals := es.Values(nil)
	es.VectorsTo(vecs)
	return vals, nil
}

// symApply reconstructs V diag(f(vals)) V^T into dst.
func symApply(vals []float64, vecs *mat.Dense, f func(float64) float64, dst *mat.SymDense) {
	n := len(vals)
	fv := make([]float64, n)
	for k, v := range vals {
		fv[k] = f(v)
	}
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sum := 0.0
			for k := 0; k < n; k++ {
				sum += vecs.At(i, k) * fv[k] * vecs.At(j, k)
			}
			dst.SetSym(i, j, sum)
		}
	}
}

// maxAbs returns the largest absolute value in xs.
func maxAbs(xs []float64) float64 {
	m := 0.0
	for _, x := range xs {
		if a := math.Abs(x); a > m {
			m = a
		}
	}
	return m
}

// symSqrt stores the symmetric square root of the PSD matrix s into
// dst. Tiny negative eigenvalues from round-off are clamped to zero;
// genuinely negative spectra are an error.
func symSqrt(s *mat.SymDense, vecs *mat.Dense, dst *mat.SymDense) error {
	vals, err := symEigen(s, vecs)
	if err != nil {
		return err
	}
	tol := eigenTol * (1 + maxAbs(vals))
	for _, v := range vals {
		if v < -tol {
			return fmt.Errorf("matrix is not positive semidefinite (eigenvalue %v)", v)
		}
	}
	symApply(vals, vecs, func(v float64) float64 {
		if v < 0 {
			return 0
		}
		return math.Sqrt(v)
	}, dst)
	return nil
}

// symInverse stores the inverse of the positive definite matrix s
// into dst.
func symInverse(s *mat.SymDense, vecs *mat.Dense, dst *mat.SymDense) error {
	vals, err := symEigen(s, vecs)
	if err != nil {
		return err
	}
	tol := eigenTol * (1 + maxAbs(vals))
	for _, v := range vals {
		if v <= tol {
			return fmt.Errorf("matrix is not positive definite (eigenvalue %v)", v)
		}
	}
	symApply(vals, vecs, func(v float64) float64 { return 1 / v }, dst)
	return nil
}

// covFromFactor stores S*S into dst, where S is a symmetric
// square-root covariance factor.
func covFromFactor(s *mat.SymDense, dst *mat.SymDense) {
	n := s.SymmetricDim()
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sum := 0.0
			for k := 0; k < n; k++ {
				sum += s.At(i, k) * s.At(k, j)
			}
			dst.SetSym(i, j, sum)
		}
	}
}

// covTraceFromFactor returns tr(S*S), the squared Frobenius norm of
// the factor.
func covTraceFromFactor(s *mat.SymDense) float64 {
	f := mat.Norm(s, 2)
	return f * f
}

// checkFinite fails on the first NaN or infinity in xs.
func checkFinite(what string, xs []float64) error {
	for i, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("%s has non-finite value %v at position %d", what, x, i)
		}
	}
	return nil
}

// checkSimplex verifies that xs is a finite probability vector.
func checkSimplex(what string, xs []float64) error {
	const tol = 1e-8
	sum := 0.0
	for i, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("%s has non-finite value %v at position %d", what, x, i)
		}
		if x < -tol || x > 1+tol {
			return fmt.Errorf("%s has value %v outside [0,1] at position %d", what, x, i)
		}
		sum += x
	}
	if math.Abs(sum-1) > tol*float64(len(xs)+1) {
		return fmt.Errorf("%s sums to %v, want 1", what, sum)
	}
	return nil
}
