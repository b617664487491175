package tpt

import "github.com/cwbudde/algo-vadyn/dsp/core"

// Integrator is a per-channel trapezoidal integrator. Inputs must already
// be scaled by any gain and by half the sampling period.
type Integrator[F core.Float] struct {
	s []F
}

// Prepare sizes the state for numChannels and clears it.
func (in *Integrator[F]) Prepare(numChannels int) {
	in.s = core.Resize(in.s, numChannels)
}

// Reset clears the state without reallocating.
func (in *Integrator[F]) Reset() {
	core.Zero(in.s)
}

// Channels returns the number of prepared channels.
func (in *Integrator[F]) Channels() int { return len(in.s) }

// ProcessSample integrates v on channel ch.
func (in *Integrator[F]) ProcessSample(v F, ch int) F {
	y := v + in.s[ch]
	in.s[ch] = y + v

	return y
}

// State returns the accumulator of channel ch.
func (in *Integrator[F]) State(ch int) F { return in.s[ch] }

// SetState overwrites the accumulator of channel ch.
func (in *Integrator[F]) SetState(ch int, s F) { in.s[ch] = s }

// Differentiator is a per-channel trapezoidal differentiator, the inverse of
// Integrator: y = 2*fs*(x - x1) - y1.
type Differentiator[F core.Float] struct {
	fs2 F
	x1  []F
	y1  []F
}

// Prepare sets the sample rate, sizes the state and clears it.
func (d *Differentiator[F]) Prepare(sampleRate float64, numChannels int) {
	d.fs2 = F(2 * sampleRate)
	d.x1 = core.Resize(d.x1, numChannels)
	d.y1 = core.Resize(d.y1, numChannels)
}

// Reset clears the state without reallocating.
func (d *Differentiator[F]) Reset() {
	core.Zero(d.x1)
	core.Zero(d.y1)
}

// ProcessSample returns the derivative estimate of x on channel ch.
func (d *Differentiator[F]) ProcessSample(x F, ch int) F {
	y := d.fs2*(x-d.x1[ch]) - d.y1[ch]
	d.x1[ch] = x
	d.y1[ch] = y

	return y
}

// State returns the previous input and output of channel ch.
func (d *Differentiator[F]) State(ch int) (x1, y1 F) { return d.x1[ch], d.y1[ch] }
