package dynamics

import (
	"github.com/cwbudde/algo-vadyn/dsp/core"
	"github.com/cwbudde/algo-vadyn/dsp/filter/tpt"
)

const (
	defaultAttackMs  = 10.0
	defaultReleaseMs = 100.0

	minTimeMs = 0.1
	maxTimeMs = 1000.0
)

// BallisticsFilter is an asymmetric envelope follower built on a
// zero-delay-feedback one-pole lowpass. The attack gain is used while the
// input is at or above the previous output, the release gain otherwise.
type BallisticsFilter[F core.Float] struct {
	mm1 tpt.Multimode1[F]
	y1  []F

	sampleRate float64
	attackMs   float64
	releaseMs  float64
	ga, gr     F
}

// NewBallisticsFilter returns a follower with 10 ms attack and 100 ms
// release.
func NewBallisticsFilter[F core.Float](sampleRate float64, numChannels int) (*BallisticsFilter[F], error) {
	b := &BallisticsFilter[F]{attackMs: defaultAttackMs, releaseMs: defaultReleaseMs}
	if err := b.Prepare(sampleRate, numChannels); err != nil {
		return nil, err
	}

	return b, nil
}

// Prepare sets the sample rate and channel count, clears the state and
// recomputes both gains.
func (b *BallisticsFilter[F]) Prepare(sampleRate float64, numChannels int) error {
	if err := validateSetup(sampleRate, numChannels); err != nil {
		return err
	}

	if err := b.mm1.Prepare(sampleRate, numChannels); err != nil {
		return err
	}

	b.sampleRate = sampleRate
	b.y1 = core.Resize(b.y1, numChannels)
	b.updateGains()

	return nil
}

// Reset clears the state without reallocating.
func (b *BallisticsFilter[F]) Reset() {
	b.mm1.Reset()
	core.Zero(b.y1)
}

// SetAttack sets the attack time constant in milliseconds.
func (b *BallisticsFilter[F]) SetAttack(ms float64) error {
	if err := validateFiniteRange(ms, minTimeMs, maxTimeMs, "attack"); err != nil {
		return err
	}

	b.attackMs = ms
	b.updateGains()

	return nil
}

// SetRelease sets the release time constant in milliseconds.
func (b *BallisticsFilter[F]) SetRelease(ms float64) error {
	if err := validateFiniteRange(ms, minTimeMs, maxTimeMs, "release"); err != nil {
		return err
	}

	b.releaseMs = ms
	b.updateGains()

	return nil
}

// Attack returns the attack time in milliseconds.
func (b *BallisticsFilter[F]) Attack() float64 { return b.attackMs }

// Release returns the release time in milliseconds.
func (b *BallisticsFilter[F]) Release() float64 { return b.releaseMs }

// State returns the integrator state and previous output of channel ch.
func (b *BallisticsFilter[F]) State(ch int) (s, y1 F) { return b.mm1.State(ch), b.y1[ch] }

func (b *BallisticsFilter[F]) updateGains() {
	if b.sampleRate <= 0 {
		return
	}

	b.ga = F(tpt.TauToG(b.attackMs, b.sampleRate))
	b.gr = F(tpt.TauToG(b.releaseMs, b.sampleRate))
}

// ProcessSample follows x on channel ch.
func (b *BallisticsFilter[F]) ProcessSample(x F, ch int) F {
	g := b.ga
	if x < b.y1[ch] {
		g = b.gr
	}

	y := b.mm1.ProcessSampleG(x, ch, g)
	b.y1[ch] = y

	return y
}

// ProcessBlock follows buf in place on channel ch.
func (b *BallisticsFilter[F]) ProcessBlock(buf []F, ch int) {
	for i, x := range buf {
		buf[i] = b.ProcessSample(x, ch)
	}
}
