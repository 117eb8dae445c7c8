package dist

import (
	"math"
	"testing"
)

const smallDiff = 1e-5

type setting struct {
	prob, a, b float64
}

/*** Tests if a and b are approximately equal ***/
func appreq(a, b float64) bool {
	return math.Abs(a-b) <= smallDiff
}

/*** Test chi2 quantiles against R qchisq ***/
func TestChi2(tst *testing.T) {
	settings := [...]setting{
		{0.9, 1, 0},
		{0.95, 1, 0},
		{0.5, 2, 0},
		{0.99, 5, 0},
	}
	results := [...]float64{
		2.705543,
		3.841459,
		1.386294,
		15.086272,
	}
	for i, s := range settings {
		r := QuantileChi2(s.prob, s.a)
		if !appreq(r, results[i]) {
			tst.Error("Results missmatch:", r, results[i])
		}
	}
}

/*** Test gamma quantiles against R qgamma ***/
func TestGamma(tst *testing.T) {
	settings := [...]setting{
		{0.5, 1, 1},
		{0.9, 1, 1},
		{0.5, 1, 2},
		{0.25, 2, 1},
	}
	results := [...]float64{
		0.6931472,
		2.3025851,
		0.3465736,
		0.9612787,
	}
	for i, s := range settings {
		r := QuantileGamma(s.prob, s.a, s.b)
		if !appreq(r, results[i]) {
			tst.Error("Results missmatch:", r, results[i])
		}
	}
}

/*** Test normal quantiles ***/
func TestNormal(tst *testing.T) {
	if !appreq(QuantileNormal(0.975), 1.959964) {
		tst.Error("Incorrect 97.5% normal quantile:", QuantileNormal(0.975))
	}
	if !appreq(QuantileNormal(0.5), 0) {
		tst.Error("Incorrect median normal quantile:", QuantileNormal(0.5))
	}
}

/*** Quantile and CDF should be mutual inverses ***/
func TestGammaRoundTrip(tst *testing.T) {
	for p := 0.05; p < 1; p += 0.1 {
		q := QuantileGamma(p, 2.5, 1.5)
		r := IncompleteGamma(q*1.5, 2.5)
		if !appreq(p, r) {
			tst.Errorf("Round trip missmatch: p=%g, got %g", p, r)
		}
	}
}
