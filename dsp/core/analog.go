package core

import "math"

// MaxCutoffRatio is the highest cutoff, as a fraction of the sample rate,
// that the bilinear one-pole filters accept before clamping.
const MaxCutoffRatio = 0.49

// PreWarp maps an analog angular frequency onto the bilinear frequency axis.
// fs2 is twice the sample rate and tDiv2 half the sampling period.
func PreWarp(omega, fs2, tDiv2 float64) float64 {
	return fs2 * math.Tan(omega*tDiv2)
}

// TauToOmega converts a time constant in milliseconds to angular frequency.
// Non-positive time constants return +Inf so callers clamp to their fastest
// coefficient.
func TauToOmega(tauMs float64) float64 {
	if tauMs <= 0 || math.IsNaN(tauMs) {
		return math.Inf(1)
	}

	return 1000 / tauMs
}

// RatioToExponent converts a compression ratio to the exponent of the
// linear-domain gain law (x/thr)^e.
func RatioToExponent(ratio float64) float64 {
	return 1/ratio - 1
}

// MaxOmega returns the largest angular frequency accepted at sampleRate.
func MaxOmega(sampleRate float64) float64 {
	return 2 * math.Pi * MaxCutoffRatio * sampleRate
}
