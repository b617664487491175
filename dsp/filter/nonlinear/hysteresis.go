package nonlinear

import (
	"math"

	"github.com/cwbudde/algo-vadyn/dsp/core"
	"github.com/cwbudde/algo-vadyn/dsp/filter/tpt"
)

const (
	defaultDrive      = 0.5
	defaultWidth      = 0.1
	defaultSaturation = 1.0

	minDrive      = 1e-3
	maxDrive      = 100.0
	minSaturation = 1e-3
	maxSaturation = 100.0

	// coercivity is the Jiles-Atherton pinning constant k.
	coercivity = 0.47875

	// Bounds for denominators that vanish near flux reversal and for the
	// resulting susceptibility dM/dH.
	minHysteresisDenominator = 1e-6
	maxSusceptibility        = 100.0
)

// Hysteresis is a Jiles-Atherton magnetic hysteresis stage. The input is
// the applied field H and the output the magnetization M, bounded by the
// saturation level.
//
// Per sample, with Q = (x + y[n-1])/a and Man = S*L(Q):
//
//	dM/dt = dH/dt * (f1 + f2) / f3
//	f1 = deltaM*(1-c)*(Man-M) / ((1-c)*delta*k - (Man-M))
//	f2 = S*c/a * L'(Q)
//	f3 = 1 - S*c/a * L'(Q)
//
// dH/dt comes from the trapezoidal Differentiator and dM/dt is integrated
// with the trapezoidal Integrator.
type Hysteresis[F core.Float] struct {
	integ tpt.Integrator[F]
	diff  tpt.Differentiator[F]

	x1 []F
	y1 []F

	tDiv2      float64
	drive      float64
	width      float64
	saturation float64
}

// NewHysteresis returns a stage prepared for sampleRate and numChannels
// with drive 0.5, width 0.1 and saturation 1.
func NewHysteresis[F core.Float](sampleRate float64, numChannels int) (*Hysteresis[F], error) {
	h := &Hysteresis[F]{
		drive:      defaultDrive,
		width:      defaultWidth,
		saturation: defaultSaturation,
	}

	if err := h.Prepare(sampleRate, numChannels); err != nil {
		return nil, err
	}

	return h, nil
}

// Prepare sets the sample rate and channel count and clears the state.
func (h *Hysteresis[F]) Prepare(sampleRate float64, numChannels int) error {
	if err := validateSetup(sampleRate, numChannels); err != nil {
		return err
	}

	h.tDiv2 = 0.5 / sampleRate
	h.integ.Prepare(numChannels)
	h.diff.Prepare(sampleRate, numChannels)
	h.x1 = core.Resize(h.x1, numChannels)
	h.y1 = core.Resize(h.y1, numChannels)

	return nil
}

// Reset clears the state without reallocating.
func (h *Hysteresis[F]) Reset() {
	h.integ.Reset()
	h.diff.Reset()
	core.Zero(h.x1)
	core.Zero(h.y1)
}

// SetDrive sets the Langevin shape parameter a. Smaller values saturate
// earlier.
func (h *Hysteresis[F]) SetDrive(a float64) error {
	if err := validateFiniteRange(a, minDrive, maxDrive, "drive"); err != nil {
		return err
	}

	h.drive = a

	return nil
}

// SetWidth sets the reversibility c in [0, 1]. Zero gives the widest loop.
func (h *Hysteresis[F]) SetWidth(c float64) error {
	if err := validateFiniteRange(c, 0, 1, "width"); err != nil {
		return err
	}

	h.width = c

	return nil
}

// SetSaturation sets the saturation magnetization S.
func (h *Hysteresis[F]) SetSaturation(s float64) error {
	if err := validateFiniteRange(s, minSaturation, maxSaturation, "saturation"); err != nil {
		return err
	}

	h.saturation = s

	return nil
}

// Drive returns a.
func (h *Hysteresis[F]) Drive() float64 { return h.drive }

// Width returns c.
func (h *Hysteresis[F]) Width() float64 { return h.width }

// Saturation returns S.
func (h *Hysteresis[F]) Saturation() float64 { return h.saturation }

// LastOutput returns the previous output of channel ch.
func (h *Hysteresis[F]) LastOutput(ch int) F { return h.y1[ch] }

// State returns a copy of the state of channel ch as
// [x1, y1, integrator, dx1, dy1].
func (h *Hysteresis[F]) State(ch int) []F {
	dx1, dy1 := h.diff.State(ch)

	return []F{h.x1[ch], h.y1[ch], h.integ.State(ch), dx1, dy1}
}

// ProcessSample returns the magnetization for field x on channel ch.
func (h *Hysteresis[F]) ProcessSample(x F, ch int) F {
	if !core.IsFinite(x) {
		x = h.x1[ch]
	}

	dxdt := float64(h.diff.ProcessSample(x, ch))
	xf := float64(x)
	prev := float64(h.y1[ch])

	a, c, sat := h.drive, h.width, h.saturation

	q := (xf + prev) / a
	man := sat * core.Langevin(q)
	slope := sat * c / a * core.LangevinDerivative(q)

	var delta float64
	switch x1 := float64(h.x1[ch]); {
	case xf > x1:
		delta = 1
	case xf < x1:
		delta = -1
	}

	diffM := man - prev

	// The irreversible term only acts while the field moves toward the
	// anhysteretic curve.
	var f1 float64

	if delta != 0 && (delta > 0) == (diffM > 0) {
		den := guard((1-c)*delta*coercivity - diffM)
		f1 = max((1-c)*diffM/den, 0)
	}

	f3 := guard(1 - slope)
	chi := core.Clamp((f1+slope)/f3, -maxSusceptibility, maxSusceptibility)

	v := F(h.tDiv2 * dxdt * chi)
	y := h.integ.ProcessSample(v, ch)

	switch {
	case !core.IsFinite(y):
		y = h.y1[ch]
		h.integ.SetState(ch, y)
	case math.Abs(float64(y)) > sat:
		y = F(math.Copysign(sat, float64(y)))
		h.integ.SetState(ch, y+v)
	}

	h.x1[ch] = x
	h.y1[ch] = y

	return y
}

// ProcessBlock processes buf in place on channel ch.
func (h *Hysteresis[F]) ProcessBlock(buf []F, ch int) {
	for i, x := range buf {
		buf[i] = h.ProcessSample(x, ch)
	}
}

// guard keeps v away from zero while preserving its sign.
func guard(v float64) float64 {
	if math.Abs(v) < minHysteresisDenominator {
		return math.Copysign(minHysteresisDenominator, v)
	}

	return v
}
