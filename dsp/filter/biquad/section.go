package biquad

// Coefficients holds the transfer function coefficients for a single
// second-order section (biquad). a0 is normalized to 1 and not stored.
//
//	H(z) = (B0 + B1*z^-1 + B2*z^-2) / (1 + A1*z^-1 + A2*z^-2)
type Coefficients struct {
	B0, B1, B2 float64 // feedforward (numerator)
	A1, A2     float64 // feedback (denominator)
}

// Normalize returns the section for the unnormalized denominator
// a0 + a1*z^-1 + a2*z^-2.
func Normalize(b0, b1, b2, a0, a1, a2 float64) Coefficients {
	inv := 1 / a0

	return Coefficients{
		B0: b0 * inv,
		B1: b1 * inv,
		B2: b2 * inv,
		A1: a1 * inv,
		A2: a2 * inv,
	}
}

// Passthrough returns the identity section.
func Passthrough() Coefficients {
	return Coefficients{B0: 1}
}
