package tpt

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-vadyn/dsp/core"
)

// Mode selects the response tapped from a one-pole filter.
type Mode int

const (
	// Lowpass returns the integrator output.
	Lowpass Mode = iota
	// Highpass returns the input minus the lowpass output.
	Highpass
)

func (m Mode) String() string {
	switch m {
	case Lowpass:
		return "lowpass"
	case Highpass:
		return "highpass"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// OmegaToG converts an angular cutoff to the zero-delay-feedback gain
// G = g/(1+g) with g = tan(omega*T/2). omega is limited to
// core.MaxOmega(sampleRate); +Inf yields the fastest coefficient.
func OmegaToG(omega, sampleRate float64) float64 {
	if !(omega > 0) {
		return 0
	}

	omega = math.Min(omega, core.MaxOmega(sampleRate))
	g := math.Tan(omega * 0.5 / sampleRate)

	return g / (1 + g)
}

// TauToG converts a time constant in milliseconds to the filter gain G.
// Non-positive time constants give the fastest coefficient.
func TauToG(tauMs, sampleRate float64) float64 {
	return OmegaToG(core.TauToOmega(tauMs), sampleRate)
}

// CutoffToG converts a cutoff frequency in Hz to the filter gain G.
func CutoffToG(cutoffHz, sampleRate float64) float64 {
	return OmegaToG(2*math.Pi*cutoffHz, sampleRate)
}

// Multimode1 is a zero-delay-feedback one-pole filter with lowpass and
// highpass outputs. It is stable for any 0 <= G < 1.
type Multimode1[F core.Float] struct {
	integ      Integrator[F]
	sampleRate float64
	omega      float64
	mode       Mode
	g          F
}

// Prepare sets the sample rate and channel count, clears the state and
// recomputes the coefficient from the last cutoff.
func (m *Multimode1[F]) Prepare(sampleRate float64, numChannels int) error {
	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("tpt: sample rate must be positive and finite: %f", sampleRate)
	}

	if numChannels < 1 {
		return fmt.Errorf("tpt: channel count must be >= 1: %d", numChannels)
	}

	m.sampleRate = sampleRate
	m.integ.Prepare(numChannels)
	m.g = F(OmegaToG(m.omega, sampleRate))

	return nil
}

// Reset clears the state without reallocating.
func (m *Multimode1[F]) Reset() { m.integ.Reset() }

// SetMode selects the lowpass or highpass output.
func (m *Multimode1[F]) SetMode(mode Mode) { m.mode = mode }

// Mode returns the selected output.
func (m *Multimode1[F]) Mode() Mode { return m.mode }

// SetOmega sets the angular cutoff in rad/s.
func (m *Multimode1[F]) SetOmega(omega float64) {
	m.omega = omega
	if m.sampleRate > 0 {
		m.g = F(OmegaToG(omega, m.sampleRate))
	}
}

// SetCutoff sets the cutoff frequency in Hz.
func (m *Multimode1[F]) SetCutoff(cutoffHz float64) { m.SetOmega(2 * math.Pi * cutoffHz) }

// SetTau sets the time constant in milliseconds.
func (m *Multimode1[F]) SetTau(tauMs float64) { m.SetOmega(core.TauToOmega(tauMs)) }

// G returns the current zero-delay-feedback gain.
func (m *Multimode1[F]) G() F { return m.g }

// Channels returns the number of prepared channels.
func (m *Multimode1[F]) Channels() int { return m.integ.Channels() }

// State returns the integrator accumulator of channel ch.
func (m *Multimode1[F]) State(ch int) F { return m.integ.State(ch) }

// SetState overwrites the integrator accumulator of channel ch.
func (m *Multimode1[F]) SetState(ch int, s F) { m.integ.SetState(ch, s) }

// ProcessSample filters x on channel ch with the configured gain.
func (m *Multimode1[F]) ProcessSample(x F, ch int) F {
	return m.ProcessSampleG(x, ch, m.g)
}

// ProcessSampleG filters x on channel ch with an explicit gain G. It lets
// callers swap coefficients per sample without touching the configured
// cutoff.
func (m *Multimode1[F]) ProcessSampleG(x F, ch int, g F) F {
	v := (x - m.integ.State(ch)) * g
	y := m.integ.ProcessSample(v, ch)

	if m.mode == Highpass {
		return x - y
	}

	return y
}

// ProcessBlock filters buf in place on channel ch.
func (m *Multimode1[F]) ProcessBlock(buf []F, ch int) {
	for i, x := range buf {
		buf[i] = m.ProcessSample(x, ch)
	}
}
