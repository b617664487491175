package core

import "math"

// Below these magnitudes the closed forms cancel catastrophically and the
// Taylor series is used instead.
const (
	langevinSeriesLimit   = 1e-4
	langevinDerivSeriesLt = 1e-3
)

// Langevin returns L(x) = coth(x) - 1/x.
func Langevin[F Float](x F) F {
	v := float64(x)
	if math.Abs(v) < langevinSeriesLimit {
		return F(v/3 - v*v*v/45)
	}

	return F(1/math.Tanh(v) - 1/v)
}

// LangevinDerivative returns L'(x) = 1 - coth(x)^2 + 1/x^2.
func LangevinDerivative[F Float](x F) F {
	v := float64(x)
	if math.Abs(v) < langevinDerivSeriesLt {
		return F(1.0/3 - v*v/15)
	}

	coth := 1 / math.Tanh(v)

	return F(1 - coth*coth + 1/(v*v))
}
