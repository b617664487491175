package weighting

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/cwbudde/algo-vadyn/dsp/core"
	"github.com/cwbudde/algo-vadyn/dsp/filter/biquad"
)

// IEC 61672 analog prototype pole frequencies (Hz).
const (
	f1 = 20.598997 // double pole for A and C
	f2 = 107.65265 // single pole for A
	f4 = 737.86223 // single pole for A
	f5 = 12194.217 // double pole for A and C
)

// Loudness shelf used by the K curve: +4 dB above roughly 1.7 kHz.
const (
	kShelfHigh   = 1.58
	kShelfBand   = 1.26
	kShelfLow    = 1.0
	kShelfQ      = 0.71
	kShelfCorner = 1681.97
)

// Type identifies a frequency weighting curve.
type Type int

const (
	// TypeA is the A-weighting curve per IEC 61672, normalized to 0 dB at
	// 1 kHz.
	TypeA Type = iota

	// TypeC is the C-weighting curve per IEC 61672, normalized to 0 dB at
	// 1 kHz.
	TypeC

	// TypeZ applies no weighting.
	TypeZ

	// TypeK is the loudness pre-filter shelf: unity at DC rising to about
	// +4 dB in the presence region. It is not normalized at 1 kHz.
	TypeK
)

// String returns a human-readable name for the weighting type.
func (t Type) String() string {
	switch t {
	case TypeA:
		return "A"
	case TypeC:
		return "C"
	case TypeZ:
		return "Z"
	case TypeK:
		return "K"
	default:
		return "Unknown"
	}
}

// Coefficients returns the biquad sections and input gain realizing the
// weighting curve t at sampleRate.
func Coefficients(t Type, sampleRate float64) ([]biquad.Coefficients, float64, error) {
	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) {
		return nil, 0, fmt.Errorf("weighting: sample rate must be positive and finite: %f", sampleRate)
	}

	var coeffs []biquad.Coefficients

	switch t {
	case TypeA:
		// H_A(s) = K_A * s^4 / ((s+w1)^2 * (s+w2) * (s+w4) * (s+w5)^2)
		coeffs = []biquad.Coefficients{
			hpSecondOrder(f1, sampleRate),
			lpFirstOrder(f5, sampleRate),
			lpFirstOrder(f5, sampleRate),
			hpFirstOrder(f2, sampleRate),
			hpFirstOrder(f4, sampleRate),
		}
	case TypeC:
		// H_C(s) = K_C * s^2 / ((s+w1)^2 * (s+w5)^2)
		coeffs = []biquad.Coefficients{
			hpSecondOrder(f1, sampleRate),
			lpFirstOrder(f5, sampleRate),
			lpFirstOrder(f5, sampleRate),
		}
	case TypeZ:
		return []biquad.Coefficients{biquad.Passthrough()}, 1, nil
	case TypeK:
		return []biquad.Coefficients{kShelf(sampleRate)}, 1, nil
	default:
		return nil, 0, fmt.Errorf("weighting: unknown type: %d", int(t))
	}

	return coeffs, normalizationGain(coeffs, sampleRate), nil
}

// New returns a multichannel [biquad.Bank] realizing the weighting curve.
func New[F core.Float](t Type, sampleRate float64, numChannels int) (*biquad.Bank[F], error) {
	coeffs, gain, err := Coefficients(t, sampleRate)
	if err != nil {
		return nil, err
	}

	return biquad.NewBank[F](coeffs, gain, numChannels), nil
}

// kShelf is the second-order high shelf of the K curve, bilinear with
// g = tan(pi*fc/fs). DC gain is kShelfLow and Nyquist gain kShelfHigh.
func kShelf(sr float64) biquad.Coefficients {
	g := math.Tan(math.Pi * math.Min(kShelfCorner, core.MaxCutoffRatio*sr) / sr)
	g2 := g * g
	gq := g / kShelfQ

	return biquad.Normalize(
		kShelfLow*g2+kShelfBand*gq+kShelfHigh,
		2*(kShelfLow*g2-kShelfHigh),
		kShelfLow*g2-kShelfBand*gq+kShelfHigh,
		g2+gq+1,
		2*(g2-1),
		g2-gq+1,
	)
}

// lpFirstOrder is the bilinear first-order low-pass omega/(s+omega):
//
//	B0 = B1 = K/(1+K), A1 = (K-1)/(K+1), K = tan(pi*f/sr)
func lpFirstOrder(f, sr float64) biquad.Coefficients {
	k := math.Tan(math.Pi * math.Min(f, core.MaxCutoffRatio*sr) / sr)
	d := 1 + k

	return biquad.Coefficients{
		B0: k / d,
		B1: k / d,
		A1: (k - 1) / d,
	}
}

// hpSecondOrder is the bilinear double high-pass s^2/(s+omega)^2.
func hpSecondOrder(f, sr float64) biquad.Coefficients {
	k := math.Tan(math.Pi * f / sr)
	k2 := k * k

	return biquad.Normalize(1, -2, 1, 1+2*k+k2, 2*(k2-1), 1-2*k+k2)
}

// hpFirstOrder is the bilinear first-order high-pass s/(s+omega).
func hpFirstOrder(f, sr float64) biquad.Coefficients {
	k := math.Tan(math.Pi * f / sr)
	d := 1 + k

	return biquad.Coefficients{
		B0: 1 / d,
		B1: -1 / d,
		A1: (k - 1) / d,
	}
}

// normalizationGain returns the factor that sets the cascade magnitude to
// 0 dB at 1 kHz.
func normalizationGain(coeffs []biquad.Coefficients, sr float64) float64 {
	return 1 / cmplx.Abs(biquad.CascadeResponse(coeffs, 1, 1000, sr))
}
