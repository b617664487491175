package nonlinear

import (
	"math"

	"github.com/cwbudde/algo-vadyn/dsp/core"
	"github.com/cwbudde/algo-vadyn/dsp/filter/tpt"
)

const (
	// DefaultIterations is the default Newton-Raphson iteration count.
	DefaultIterations = 4
	// MaxIterations bounds the per-sample solver cost.
	MaxIterations = 32
	// MaxNonlinearity is the largest accepted saturation factor N.
	MaxNonlinearity = 1000.0

	defaultCutoffHz = 1000.0
	minCutoffHz     = 1.0
)

// NLMM1Freq is a one-pole filter whose cutoff is modulated by its own
// output magnitude. The implicit update
//
//	y = g(y)*(x - y) + s,  g(y) = (T/2)*(sqrt(OmegaLin) + N*|y|)^2
//
// is solved per sample with Newton-Raphson, seeded by the linear
// prediction. With feedback saturation disabled the cutoff follows |x|
// instead and no solve is needed.
type NLMM1Freq[F core.Float] struct {
	integ tpt.Integrator[F]

	sampleRate   float64
	cutoffHz     float64
	nonlinearity float64
	iterations   int
	feedbackSat  bool
	mode         tpt.Mode

	tDiv2        F
	sqrtOmegaLin F
	gLin         F
	omegaMax     F

	residual nlmm1Residual[F]
}

// NewNLMM1Freq returns a filter prepared for sampleRate and numChannels
// with a 1 kHz cutoff, N = 0, feedback saturation enabled and
// DefaultIterations.
func NewNLMM1Freq[F core.Float](sampleRate float64, numChannels int) (*NLMM1Freq[F], error) {
	f := &NLMM1Freq[F]{
		cutoffHz:    defaultCutoffHz,
		iterations:  DefaultIterations,
		feedbackSat: true,
	}

	if err := f.Prepare(sampleRate, numChannels); err != nil {
		return nil, err
	}

	return f, nil
}

// Prepare sets the sample rate and channel count, clears the state and
// recomputes the coefficients.
func (f *NLMM1Freq[F]) Prepare(sampleRate float64, numChannels int) error {
	if err := validateSetup(sampleRate, numChannels); err != nil {
		return err
	}

	f.sampleRate = sampleRate
	f.tDiv2 = F(0.5 / sampleRate)
	f.omegaMax = F(core.PreWarp(core.MaxOmega(sampleRate), 2*sampleRate, 0.5/sampleRate))
	f.integ.Prepare(numChannels)
	f.updateLinear()

	return nil
}

// Reset clears the state without reallocating.
func (f *NLMM1Freq[F]) Reset() { f.integ.Reset() }

// SetCutoff sets the small-signal cutoff in Hz. It is clamped below
// Nyquist.
func (f *NLMM1Freq[F]) SetCutoff(cutoffHz float64) error {
	if err := validateFiniteRange(cutoffHz, minCutoffHz, math.MaxFloat64, "cutoff"); err != nil {
		return err
	}

	f.cutoffHz = cutoffHz
	f.updateLinear()

	return nil
}

// SetNonlinearity sets the saturation factor N. Zero yields a linear
// filter.
func (f *NLMM1Freq[F]) SetNonlinearity(n float64) error {
	if err := validateFiniteRange(n, 0, MaxNonlinearity, "nonlinearity"); err != nil {
		return err
	}

	f.nonlinearity = n

	return nil
}

// SetIterations sets the number of Newton-Raphson iterations per sample.
func (f *NLMM1Freq[F]) SetIterations(n int) error {
	if err := validateFiniteRange(float64(n), 0, MaxIterations, "iterations"); err != nil {
		return err
	}

	f.iterations = n

	return nil
}

// SetFeedbackSaturation selects whether the cutoff follows the output
// (implicit solve) or the input (explicit).
func (f *NLMM1Freq[F]) SetFeedbackSaturation(enabled bool) { f.feedbackSat = enabled }

// SetMode selects the lowpass or highpass output.
func (f *NLMM1Freq[F]) SetMode(mode tpt.Mode) { f.mode = mode }

// CutoffHz returns the small-signal cutoff.
func (f *NLMM1Freq[F]) CutoffHz() float64 { return f.cutoffHz }

// Nonlinearity returns N.
func (f *NLMM1Freq[F]) Nonlinearity() float64 { return f.nonlinearity }

// Iterations returns the Newton-Raphson iteration count.
func (f *NLMM1Freq[F]) Iterations() int { return f.iterations }

// FeedbackSaturation reports whether the implicit solve is enabled.
func (f *NLMM1Freq[F]) FeedbackSaturation() bool { return f.feedbackSat }

// Mode returns the selected output.
func (f *NLMM1Freq[F]) Mode() tpt.Mode { return f.mode }

// Channels returns the number of prepared channels.
func (f *NLMM1Freq[F]) Channels() int { return f.integ.Channels() }

// State returns the integrator accumulator of channel ch.
func (f *NLMM1Freq[F]) State(ch int) F { return f.integ.State(ch) }

func (f *NLMM1Freq[F]) updateLinear() {
	if f.sampleRate <= 0 {
		return
	}

	omega := math.Min(2*math.Pi*f.cutoffHz, core.MaxOmega(f.sampleRate))
	warped := core.PreWarp(omega, 2*f.sampleRate, 0.5/f.sampleRate)

	f.sqrtOmegaLin = F(math.Sqrt(warped))
	f.gLin = f.tDiv2 * F(warped)
}

// ProcessSample filters x on channel ch.
func (f *NLMM1Freq[F]) ProcessSample(x F, ch int) F {
	return f.ProcessSampleResiduals(x, ch, nil)
}

// ProcessSampleResiduals filters x on channel ch and, if residuals is
// non-nil, records |f(y)| of the solver per iteration (see
// core.NewtonRaphson).
func (f *NLMM1Freq[F]) ProcessSampleResiduals(x F, ch int, residuals []F) F {
	if !core.IsFinite(x) {
		x = 0
	}

	s := f.integ.State(ch)
	n := F(f.nonlinearity)

	var v F

	if f.feedbackSat {
		y0 := (f.gLin*x + s) / (1 + f.gLin)

		y := y0
		if n != 0 {
			sign := F(1)
			if y0 < 0 {
				sign = -1
			}

			f.residual = nlmm1Residual[F]{
				x:        x,
				s:        s,
				sqrtLin:  f.sqrtOmegaLin,
				n:        n,
				tDiv2:    f.tDiv2,
				omegaMax: f.omegaMax,
				sign:     sign,
			}

			y = core.NewtonRaphson(&f.residual, y0, min(x, s), max(x, s), f.iterations, residuals)
			if !core.IsFinite(y) {
				y = y0
			}
		} else if residuals != nil {
			clear(residuals)
		}

		// Keep the integrated output inside the bracket the solution lives in
		// when the solver stopped short of convergence.
		v = core.Clamp(f.gain(y)*(x-y), min(x, s)-s, max(x, s)-s)
	} else {
		g := f.gain(x)
		v = (x - s) * g / (1 + g)
	}

	y := f.integ.ProcessSample(v, ch)
	if !core.IsFinite(y) {
		f.integ.SetState(ch, x)
		y = x
	}

	if f.mode == tpt.Highpass {
		return x - y
	}

	return y
}

// ProcessBlock filters buf in place on channel ch.
func (f *NLMM1Freq[F]) ProcessBlock(buf []F, ch int) {
	for i, x := range buf {
		buf[i] = f.ProcessSample(x, ch)
	}
}

// gain returns g = (T/2)*Omega(u), Omega clamped below Nyquist.
func (f *NLMM1Freq[F]) gain(u F) F {
	r := f.sqrtOmegaLin + F(f.nonlinearity)*abs(u)

	return f.tDiv2 * min(r*r, f.omegaMax)
}

type nlmm1Residual[F core.Float] struct {
	x, s     F
	sqrtLin  F
	n        F
	tDiv2    F
	omegaMax F
	sign     F
}

// Eval returns f(y) = y - g(y)(x - y) - s and its derivative. The sign of
// d|y|/dy is taken from the seed.
func (r *nlmm1Residual[F]) Eval(y F) (F, F) {
	root := r.sqrtLin + r.n*abs(y)
	omega := root * root

	var dg F

	if omega >= r.omegaMax {
		omega = r.omegaMax
	} else {
		dg = r.tDiv2 * 2 * root * r.n * r.sign
	}

	g := r.tDiv2 * omega
	diff := r.x - y

	return y - g*diff - r.s, 1 - dg*diff + g
}

func abs[F core.Float](x F) F {
	if x < 0 {
		return -x
	}

	return x
}
