// Package dist implements quantile functions for continuous
// distributions used when sampling observation arrival times.
package dist

import (
	"gonum.org/v1/gonum/mathext"
)

// QuantileNormal returns the quantile for the standard normal
// distribution.
func QuantileNormal(prob float64) float64 {
	return mathext.NormalQuantile(prob)
}

// QuantileChi2 returns z so that Prob{x<z}=prob where x is Chi2
// distributed with df=v.
func QuantileChi2(prob, v float64) float64 {
	return 2 * mathext.GammaIncRegInv(v/2, prob)
}

// QuantileGamma returns the quantile for the gamma distribution with
// shape alpha and rate beta.
func QuantileGamma(prob, alpha, beta float64) float64 {
	return mathext.GammaIncRegInv(alpha, prob) / beta
}

// IncompleteGamma returns the regularized incomplete gamma ratio
// I(x,alpha) where x is the upper limit of the integration and alpha
// is the shape parameter.
func IncompleteGamma(x, alpha float64) float64 {
	return mathext.GammaIncReg(alpha, x)
}
