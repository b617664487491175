package core

import approx "github.com/meko-christian/algo-approx"

// FastExp approximates e^x for detector shaping in the per-sample path.
func FastExp[F Float](x F) F {
	return F(approx.FastExp(float64(x)))
}
