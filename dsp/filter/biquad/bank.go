package biquad

import (
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-vadyn/dsp/core"
)

// Bank is a cascade of biquad sections with independent Direct Form I
// history per channel. Processing is allocation-free.
type Bank[F core.Float] struct {
	coeffs []Coefficients
	gain   float64

	b0, b1, b2, a1, a2 []F

	// hist holds x1, x2, y1, y2 for every (channel, section) pair.
	hist     []F
	channels int
}

const histTaps = 4

// NewBank returns a bank for coeffs with the given input gain and number
// of channels. A nil or empty coeffs slice yields a passthrough bank.
func NewBank[F core.Float](coeffs []Coefficients, gain float64, numChannels int) *Bank[F] {
	b := &Bank[F]{}
	b.SetCoefficients(coeffs, gain)
	b.Prepare(numChannels)

	return b
}

// Prepare sizes the per-channel history for numChannels and clears it.
func (b *Bank[F]) Prepare(numChannels int) {
	b.channels = max(numChannels, 0)
	b.hist = core.Resize(b.hist, b.channels*len(b.coeffs)*histTaps)
}

// Reset clears the history without reallocating.
func (b *Bank[F]) Reset() {
	core.Zero(b.hist)
}

// SetCoefficients replaces the sections and input gain. If the section
// count is unchanged the history is preserved so that coefficient updates
// do not click; otherwise the history is reallocated and cleared.
func (b *Bank[F]) SetCoefficients(coeffs []Coefficients, gain float64) {
	if len(coeffs) == 0 {
		coeffs = []Coefficients{Passthrough()}
	}

	sameShape := len(coeffs) == len(b.coeffs)

	b.coeffs = append(b.coeffs[:0], coeffs...)
	b.gain = gain

	n := len(coeffs)
	b.b0 = core.EnsureLen(b.b0, n)
	b.b1 = core.EnsureLen(b.b1, n)
	b.b2 = core.EnsureLen(b.b2, n)
	b.a1 = core.EnsureLen(b.a1, n)
	b.a2 = core.EnsureLen(b.a2, n)

	for i, c := range coeffs {
		b.b0[i] = F(c.B0)
		b.b1[i] = F(c.B1)
		b.b2[i] = F(c.B2)
		b.a1[i] = F(c.A1)
		b.a2[i] = F(c.A2)
	}

	if !sameShape {
		b.Prepare(b.channels)
	}
}

// Coefficients returns a copy of the section coefficients.
func (b *Bank[F]) Coefficients() []Coefficients {
	return append([]Coefficients(nil), b.coeffs...)
}

// Gain returns the input gain applied before the first section.
func (b *Bank[F]) Gain() float64 { return b.gain }

// NumSections returns the number of cascaded sections.
func (b *Bank[F]) NumSections() int { return len(b.coeffs) }

// Order returns the total filter order (2 per section).
func (b *Bank[F]) Order() int { return 2 * len(b.coeffs) }

// Channels returns the number of prepared channels.
func (b *Bank[F]) Channels() int { return b.channels }

// ProcessSample filters x on channel ch through every section.
func (b *Bank[F]) ProcessSample(x F, ch int) F {
	x *= F(b.gain)

	h := b.hist[ch*len(b.coeffs)*histTaps:]
	for i := range b.coeffs {
		st := h[i*histTaps : i*histTaps+histTaps : i*histTaps+histTaps]
		y := b.b0[i]*x + b.b1[i]*st[0] + b.b2[i]*st[1] - b.a1[i]*st[2] - b.a2[i]*st[3]
		st[1] = st[0]
		st[0] = x
		st[3] = st[2]
		st[2] = core.FlushDenormals(y)
		x = y
	}

	return x
}

// ProcessBlock filters buf in place on channel ch. float64 banks run each
// section over the whole block with a kernel chosen for the host CPU.
func (b *Bank[F]) ProcessBlock(buf []F, ch int) {
	if d, ok := any(buf).([]float64); ok {
		hist, _ := any(b.hist).([]float64)
		n := len(b.coeffs) * histTaps

		processBlock64(b.coeffs, b.gain, hist[ch*n:(ch+1)*n], d)

		return
	}

	for i, x := range buf {
		buf[i] = b.ProcessSample(x, ch)
	}
}

func processBlock64(coeffs []Coefficients, gain float64, hist, buf []float64) {
	if len(buf) == 0 {
		return
	}

	if gain != 1 {
		vecmath.ScaleBlockInPlace(buf, gain)
	}

	process := blockKernel()
	for i, c := range coeffs {
		process(c, hist[i*histTaps:(i+1)*histTaps], buf)
	}
}

// History returns a copy of the raw history of channel ch as
// [x1, x2, y1, y2] per section.
func (b *Bank[F]) History(ch int) []F {
	n := len(b.coeffs) * histTaps

	return append([]F(nil), b.hist[ch*n:(ch+1)*n]...)
}
