package nonlinear

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-vadyn/dsp/core"
	"github.com/cwbudde/algo-vadyn/dsp/filter/tpt"
)

const defaultTauMs = 10.0

// NLMM1Time is a nonlinear one-pole lowpass parameterized by a time
// constant. The cutoff is updated explicitly from the previous output,
//
//	Omega[n] = min((sqrt(1000/tau) + N*|y[n-1]|)^2, OmegaMax)
//
// followed by one zero-delay-feedback step.
type NLMM1Time[F core.Float] struct {
	mm1 tpt.Multimode1[F]
	y1  []F

	sampleRate   float64
	tauMs        float64
	nonlinearity float64
	sqrtOmegaLin float64
	omegaMax     float64
}

// NewNLMM1Time returns a filter prepared for sampleRate and numChannels
// with a 10 ms time constant and N = 0.
func NewNLMM1Time[F core.Float](sampleRate float64, numChannels int) (*NLMM1Time[F], error) {
	f := &NLMM1Time[F]{}
	f.setTau(defaultTauMs)

	if err := f.Prepare(sampleRate, numChannels); err != nil {
		return nil, err
	}

	return f, nil
}

// Prepare sets the sample rate and channel count and clears the state.
func (f *NLMM1Time[F]) Prepare(sampleRate float64, numChannels int) error {
	if err := validateSetup(sampleRate, numChannels); err != nil {
		return err
	}

	if err := f.mm1.Prepare(sampleRate, numChannels); err != nil {
		return err
	}

	f.sampleRate = sampleRate
	f.omegaMax = core.MaxOmega(sampleRate)
	f.y1 = core.Resize(f.y1, numChannels)

	return nil
}

// Reset clears the state without reallocating.
func (f *NLMM1Time[F]) Reset() {
	f.mm1.Reset()
	core.Zero(f.y1)
}

// SetLinearTau sets the small-signal time constant in milliseconds.
// Non-positive values select the fastest response.
func (f *NLMM1Time[F]) SetLinearTau(tauMs float64) error {
	if math.IsNaN(tauMs) {
		return fmt.Errorf("nonlinear: tau must not be NaN")
	}

	f.setTau(tauMs)

	return nil
}

func (f *NLMM1Time[F]) setTau(tauMs float64) {
	f.tauMs = tauMs
	f.sqrtOmegaLin = SqrtOmega(tauMs)
}

// SetNonlinearity sets the saturation factor N.
func (f *NLMM1Time[F]) SetNonlinearity(n float64) error {
	if err := validateFiniteRange(n, 0, MaxNonlinearity, "nonlinearity"); err != nil {
		return err
	}

	f.nonlinearity = n

	return nil
}

// LinearTau returns the small-signal time constant in milliseconds.
func (f *NLMM1Time[F]) LinearTau() float64 { return f.tauMs }

// Nonlinearity returns N.
func (f *NLMM1Time[F]) Nonlinearity() float64 { return f.nonlinearity }

// LastOutput returns the previous output of channel ch.
func (f *NLMM1Time[F]) LastOutput(ch int) F { return f.y1[ch] }

// State returns the integrator state of channel ch.
func (f *NLMM1Time[F]) State(ch int) F { return f.mm1.State(ch) }

// ProcessSample filters x on channel ch with the configured parameters.
func (f *NLMM1Time[F]) ProcessSample(x F, ch int) F {
	return f.ProcessSampleWith(x, ch, f.sqrtOmegaLin, f.nonlinearity)
}

// ProcessSampleWith filters x on channel ch with an explicit sqrt(OmegaLin)
// and N. Envelope followers use it to switch branches per sample.
func (f *NLMM1Time[F]) ProcessSampleWith(x F, ch int, sqrtOmegaLin, nonlinearity float64) F {
	root := sqrtOmegaLin + nonlinearity*math.Abs(float64(f.y1[ch]))
	omega := math.Min(root*root, f.omegaMax)

	y := f.mm1.ProcessSampleG(x, ch, F(tpt.OmegaToG(omega, f.sampleRate)))
	if !core.IsFinite(y) {
		y = f.y1[ch]
		f.mm1.SetState(ch, y)
	}

	f.y1[ch] = y

	return y
}

// SqrtOmega returns sqrt(1000/tau), the square root of the small-signal
// angular cutoff for a time constant in milliseconds. Non-positive time
// constants return +Inf.
func SqrtOmega(tauMs float64) float64 {
	return math.Sqrt(core.TauToOmega(tauMs))
}
