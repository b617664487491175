package dynamics

import (
	"errors"

	"github.com/cwbudde/algo-vadyn/dsp/core"
	"github.com/cwbudde/algo-vadyn/dsp/filter/nonlinear"
)

const (
	maxSensitivity  = 100.0
	maxNonlinearity = nonlinear.MaxNonlinearity
)

// NLBallisticsFilter is a BallisticsFilter whose cutoff rises with the
// magnitude of its previous output. Attack and release carry independent
// nonlinearity factors; with both at zero it matches BallisticsFilter.
type NLBallisticsFilter[F core.Float] struct {
	nl nonlinear.NLMM1Time[F]

	attackMs  float64
	releaseMs float64
	attackN   float64
	releaseN  float64

	sqrtAttack  float64
	sqrtRelease float64
}

// NewNLBallisticsFilter returns a follower with 10 ms attack, 100 ms
// release and no nonlinearity.
func NewNLBallisticsFilter[F core.Float](sampleRate float64, numChannels int) (*NLBallisticsFilter[F], error) {
	b := &NLBallisticsFilter[F]{}
	b.setTimes(defaultAttackMs, defaultReleaseMs)

	if err := b.Prepare(sampleRate, numChannels); err != nil {
		return nil, err
	}

	return b, nil
}

// Prepare sets the sample rate and channel count and clears the state.
func (b *NLBallisticsFilter[F]) Prepare(sampleRate float64, numChannels int) error {
	if err := validateSetup(sampleRate, numChannels); err != nil {
		return err
	}

	return b.nl.Prepare(sampleRate, numChannels)
}

// Reset clears the state without reallocating.
func (b *NLBallisticsFilter[F]) Reset() { b.nl.Reset() }

// SetAttack sets the attack time constant in milliseconds.
func (b *NLBallisticsFilter[F]) SetAttack(ms float64) error {
	if err := validateFiniteRange(ms, minTimeMs, maxTimeMs, "attack"); err != nil {
		return err
	}

	b.setTimes(ms, b.releaseMs)

	return nil
}

// SetRelease sets the release time constant in milliseconds.
func (b *NLBallisticsFilter[F]) SetRelease(ms float64) error {
	if err := validateFiniteRange(ms, minTimeMs, maxTimeMs, "release"); err != nil {
		return err
	}

	b.setTimes(b.attackMs, ms)

	return nil
}

// SetAttackNonlinearity sets N for the attack branch.
func (b *NLBallisticsFilter[F]) SetAttackNonlinearity(n float64) error {
	if err := validateFiniteRange(n, 0, maxNonlinearity, "attack nonlinearity"); err != nil {
		return err
	}

	b.attackN = n

	return nil
}

// SetReleaseNonlinearity sets N for the release branch.
func (b *NLBallisticsFilter[F]) SetReleaseNonlinearity(n float64) error {
	if err := validateFiniteRange(n, 0, maxNonlinearity, "release nonlinearity"); err != nil {
		return err
	}

	b.releaseN = n

	return nil
}

func (b *NLBallisticsFilter[F]) setTimes(attackMs, releaseMs float64) {
	b.attackMs = attackMs
	b.releaseMs = releaseMs
	b.sqrtAttack = nonlinear.SqrtOmega(attackMs)
	b.sqrtRelease = nonlinear.SqrtOmega(releaseMs)
}

// Attack returns the attack time in milliseconds.
func (b *NLBallisticsFilter[F]) Attack() float64 { return b.attackMs }

// Release returns the release time in milliseconds.
func (b *NLBallisticsFilter[F]) Release() float64 { return b.releaseMs }

// AttackNonlinearity returns N of the attack branch.
func (b *NLBallisticsFilter[F]) AttackNonlinearity() float64 { return b.attackN }

// ReleaseNonlinearity returns N of the release branch.
func (b *NLBallisticsFilter[F]) ReleaseNonlinearity() float64 { return b.releaseN }

// State returns the integrator state and previous output of channel ch.
func (b *NLBallisticsFilter[F]) State(ch int) (s, y1 F) { return b.nl.State(ch), b.nl.LastOutput(ch) }

// ProcessSample follows x on channel ch.
func (b *NLBallisticsFilter[F]) ProcessSample(x F, ch int) F {
	if x < b.nl.LastOutput(ch) {
		return b.nl.ProcessSampleWith(x, ch, b.sqrtRelease, b.releaseN)
	}

	return b.nl.ProcessSampleWith(x, ch, b.sqrtAttack, b.attackN)
}

// NLEnvelopeFilter isolates transients as the difference of a fast and a
// slow NLBallisticsFilter. The slow follower's time constants are
// (1+sensitivity) times the fast ones, so zero sensitivity yields a
// silent output.
type NLEnvelopeFilter[F core.Float] struct {
	fast NLBallisticsFilter[F]
	slow NLBallisticsFilter[F]

	attackMs    float64
	releaseMs   float64
	sensitivity float64
}

// NewNLEnvelopeFilter returns a filter with 10 ms attack, 100 ms release
// and sensitivity 1.
func NewNLEnvelopeFilter[F core.Float](sampleRate float64, numChannels int) (*NLEnvelopeFilter[F], error) {
	e := &NLEnvelopeFilter[F]{}
	e.setTimes(defaultAttackMs, defaultReleaseMs, 1)

	if err := e.Prepare(sampleRate, numChannels); err != nil {
		return nil, err
	}

	return e, nil
}

// Prepare sets the sample rate and channel count and clears the state.
func (e *NLEnvelopeFilter[F]) Prepare(sampleRate float64, numChannels int) error {
	if err := e.fast.Prepare(sampleRate, numChannels); err != nil {
		return err
	}

	return e.slow.Prepare(sampleRate, numChannels)
}

// Reset clears the state without reallocating.
func (e *NLEnvelopeFilter[F]) Reset() {
	e.fast.Reset()
	e.slow.Reset()
}

// SetAttack sets the fast attack time in milliseconds.
func (e *NLEnvelopeFilter[F]) SetAttack(ms float64) error {
	if err := validateFiniteRange(ms, minTimeMs, maxTimeMs, "attack"); err != nil {
		return err
	}

	e.setTimes(ms, e.releaseMs, e.sensitivity)

	return nil
}

// SetRelease sets the fast release time in milliseconds.
func (e *NLEnvelopeFilter[F]) SetRelease(ms float64) error {
	if err := validateFiniteRange(ms, minTimeMs, maxTimeMs, "release"); err != nil {
		return err
	}

	e.setTimes(e.attackMs, ms, e.sensitivity)

	return nil
}

// SetSensitivity sets the slow-to-fast time constant stretch.
func (e *NLEnvelopeFilter[F]) SetSensitivity(s float64) error {
	if err := validateFiniteRange(s, 0, maxSensitivity, "sensitivity"); err != nil {
		return err
	}

	e.setTimes(e.attackMs, e.releaseMs, s)

	return nil
}

// SetNonlinearity sets N for both branches of both followers.
func (e *NLEnvelopeFilter[F]) SetNonlinearity(attackN, releaseN float64) error {
	for _, b := range []*NLBallisticsFilter[F]{&e.fast, &e.slow} {
		if err := b.SetAttackNonlinearity(attackN); err != nil {
			return err
		}

		if err := b.SetReleaseNonlinearity(releaseN); err != nil {
			return err
		}
	}

	return nil
}

func (e *NLEnvelopeFilter[F]) setTimes(attackMs, releaseMs, sensitivity float64) {
	e.attackMs = attackMs
	e.releaseMs = releaseMs
	e.sensitivity = sensitivity

	stretch := 1 + sensitivity
	e.fast.setTimes(attackMs, releaseMs)
	e.slow.setTimes(stretch*attackMs, stretch*releaseMs)
}

// Sensitivity returns the configured sensitivity.
func (e *NLEnvelopeFilter[F]) Sensitivity() float64 { return e.sensitivity }

// ProcessSample returns fast(x) - slow(x) on channel ch.
func (e *NLEnvelopeFilter[F]) ProcessSample(x F, ch int) F {
	return e.fast.ProcessSample(x, ch) - e.slow.ProcessSample(x, ch)
}

// EnvelopeKind selects the envelope follower used by Processor.
type EnvelopeKind int

const (
	// EnvelopeBallistics is the linear attack/release follower.
	EnvelopeBallistics EnvelopeKind = iota
	// EnvelopeNLBallistics is the follower with saturating cutoff.
	EnvelopeNLBallistics
	// EnvelopeTransient is the fast-minus-slow transient envelope.
	EnvelopeTransient
)

func (k EnvelopeKind) String() string {
	switch k {
	case EnvelopeBallistics:
		return "Ballistics"
	case EnvelopeNLBallistics:
		return "NLBallistics"
	case EnvelopeTransient:
		return "Transient"
	default:
		return "Unknown"
	}
}

// envelope holds one follower per kind and dispatches on the active one.
type envelope[F core.Float] struct {
	kind EnvelopeKind
	lin  BallisticsFilter[F]
	nl   NLBallisticsFilter[F]
	det  NLEnvelopeFilter[F]
}

func (e *envelope[F]) prepare(sampleRate float64, numChannels int) error {
	if err := e.lin.Prepare(sampleRate, numChannels); err != nil {
		return err
	}

	if err := e.nl.Prepare(sampleRate, numChannels); err != nil {
		return err
	}

	return e.det.Prepare(sampleRate, numChannels)
}

func (e *envelope[F]) reset() {
	e.lin.Reset()
	e.nl.Reset()
	e.det.Reset()
}

func (e *envelope[F]) configure(p *Params) error {
	switch {
	case p.Personality == PersonalityTransient:
		e.kind = EnvelopeTransient
	case p.AttackNonlinearity == 0 && p.ReleaseNonlinearity == 0:
		e.kind = EnvelopeBallistics
	default:
		e.kind = EnvelopeNLBallistics
	}

	return errors.Join(
		e.lin.SetAttack(p.AttackMs),
		e.lin.SetRelease(p.ReleaseMs),
		e.nl.SetAttack(p.AttackMs),
		e.nl.SetRelease(p.ReleaseMs),
		e.nl.SetAttackNonlinearity(p.AttackNonlinearity),
		e.nl.SetReleaseNonlinearity(p.ReleaseNonlinearity),
		e.det.SetAttack(p.AttackMs),
		e.det.SetRelease(p.ReleaseMs),
		e.det.SetSensitivity(p.Sensitivity),
		e.det.SetNonlinearity(p.AttackNonlinearity, p.ReleaseNonlinearity),
	)
}

func (e *envelope[F]) processSample(x F, ch int) F {
	switch e.kind {
	case EnvelopeNLBallistics:
		return e.nl.ProcessSample(x, ch)
	case EnvelopeTransient:
		return e.det.ProcessSample(x, ch)
	default:
		return e.lin.ProcessSample(x, ch)
	}
}

// state returns the state of the active follower on channel ch.
func (e *envelope[F]) state(ch int) []F {
	switch e.kind {
	case EnvelopeNLBallistics:
		s, y1 := e.nl.State(ch)
		return []F{s, y1}
	case EnvelopeTransient:
		fs, fy := e.det.fast.State(ch)
		ss, sy := e.det.slow.State(ch)

		return []F{fs, fy, ss, sy}
	default:
		s, y1 := e.lin.State(ch)
		return []F{s, y1}
	}
}
