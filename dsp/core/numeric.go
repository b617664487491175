package core

import "math"

const defaultEpsilon = 1e-12

// MinusInfinityDB is the level treated as silence by the decibel helpers.
// Gains at or below it map to exact zero and vice versa.
const MinusInfinityDB = -100.0

// Float is the sample type constraint shared by all generic processors.
type Float interface {
	~float32 | ~float64
}

// Clamp limits value to the inclusive range [lo, hi].
func Clamp[F Float](value, lo, hi F) F {
	if lo > hi {
		lo, hi = hi, lo
	}

	if value < lo {
		return lo
	}

	if value > hi {
		return hi
	}

	return value
}

// NearlyEqual reports whether a and b are equal within eps.
func NearlyEqual(a, b, eps float64) bool {
	if eps <= 0 {
		eps = defaultEpsilon
	}

	diff := math.Abs(a - b)
	if diff <= eps {
		return true
	}

	largest := math.Max(math.Abs(a), math.Abs(b))
	if largest == 0 {
		return diff <= eps
	}

	return diff/largest <= eps
}

// FlushDenormals converts tiny denormal-like values to exact zero.
// This can reduce denormal-related CPU slowdowns in hot DSP loops.
func FlushDenormals[F Float](x F) F {
	const epsilon = 1e-30
	if x > -epsilon && x < epsilon {
		return 0
	}

	return x
}

// IsFinite reports whether x is neither NaN nor infinite.
func IsFinite[F Float](x F) bool {
	v := float64(x)
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// DecibelsToGain converts dB to linear amplitude (20*log10 convention).
// Levels at or below MinusInfinityDB return 0.
func DecibelsToGain[F Float](dB F) F {
	if float64(dB) > MinusInfinityDB {
		return F(math.Pow(10, float64(dB)*0.05))
	}

	return 0
}

// GainToDecibels converts linear amplitude to dB (20*log10 convention),
// floored at MinusInfinityDB. Non-positive gains return MinusInfinityDB.
func GainToDecibels[F Float](gain F) F {
	if gain > 0 {
		return F(math.Max(MinusInfinityDB, 20*math.Log10(float64(gain))))
	}

	return F(MinusInfinityDB)
}

// Lerp linearly interpolates from a to b by t.
func Lerp[F Float](a, b, t F) F {
	return a + (b-a)*t
}

// InvLerp returns the interpolation parameter t of y within [a, b], given
// the precomputed constants 1/(b-a) and a/(a-b).
func InvLerp[F Float](divBMinusA, aDivAMinusB, y F) F {
	return y*divBMinusA + aDivAMinusB
}
