package dynamics

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-vadyn/dsp/filter/nonlinear"
	"github.com/cwbudde/algo-vadyn/dsp/lut"
)

const (
	defaultThresholdDB = -20.0
	defaultRatio       = 4.0
	defaultKneeDB      = 6.0
	defaultSensitivity = 1.0

	minThresholdDB    = -60.0
	maxThresholdDB    = 0.0
	minRatio          = 1.0
	maxRatio          = 1000.0
	minTransientRatio = 0.1
	maxKneeDB         = 60.0
	maxGainDB         = lut.DefaultDBMax
	minDetectorGainDB = -60.0

	defaultInputCutoffHz = 1000.0
	minInputCutoffHz     = 10.0
	maxInputCutoffHz     = 40000.0

	defaultHysteresisDrive      = 0.5
	defaultHysteresisWidth      = 0.1
	defaultHysteresisSaturation = 1.0
	minHysteresisDrive          = 1e-3
	maxHysteresisDrive          = 100.0
	minHysteresisSaturation     = 1e-3
	maxHysteresisSaturation     = 100.0
)

// SidechainMode selects the signal that drives the detector.
type SidechainMode int

const (
	// SidechainFeedforward detects on the input.
	SidechainFeedforward SidechainMode = iota
	// SidechainFeedback detects on the previous processed output.
	SidechainFeedback
	// SidechainExternal detects on a separate key signal.
	SidechainExternal
)

func (m SidechainMode) String() string {
	switch m {
	case SidechainFeedforward:
		return "Feedforward"
	case SidechainFeedback:
		return "Feedback"
	case SidechainExternal:
		return "External"
	default:
		return "Unknown"
	}
}

// Personality selects the envelope and transfer function family.
type Personality int

const (
	// PersonalityCompressor applies one ratio above threshold.
	PersonalityCompressor Personality = iota
	// PersonalityTransient shapes attacks and releases with separate
	// ratios on the fast-minus-slow envelope.
	PersonalityTransient
)

func (p Personality) String() string {
	switch p {
	case PersonalityCompressor:
		return "Compressor"
	case PersonalityTransient:
		return "Transient"
	default:
		return "Unknown"
	}
}

// InputFilterMode selects the optional nonlinear filter on the program
// signal.
type InputFilterMode int

const (
	// InputFilterOff bypasses the input filter.
	InputFilterOff InputFilterMode = iota
	// InputFilterLowpass keeps the lowpass output.
	InputFilterLowpass
	// InputFilterHighpass keeps the highpass output.
	InputFilterHighpass
)

func (m InputFilterMode) String() string {
	switch m {
	case InputFilterOff:
		return "Off"
	case InputFilterLowpass:
		return "Lowpass"
	case InputFilterHighpass:
		return "Highpass"
	default:
		return "Unknown"
	}
}

// OutputTap selects which node of the chain is written to the output.
// Taps other than OutputNormal are meant for metering and inspection.
type OutputTap int

const (
	// OutputNormal is the dry/wet mix.
	OutputNormal OutputTap = iota
	// OutputDetector is the detector level after detector gain.
	OutputDetector
	// OutputEnvelope is the envelope follower output.
	OutputEnvelope
	// OutputTransfer is the gain applied to the program signal.
	OutputTransfer
)

func (t OutputTap) String() string {
	switch t {
	case OutputNormal:
		return "Normal"
	case OutputDetector:
		return "Detector"
	case OutputEnvelope:
		return "Envelope"
	case OutputTransfer:
		return "Transfer"
	default:
		return "Unknown"
	}
}

// InputFilterParams configures the nonlinear input filter.
type InputFilterParams struct {
	Mode               InputFilterMode
	CutoffHz           float64
	Nonlinearity       float64
	FeedbackSaturation bool
	Iterations         int
}

// HysteresisParams configures the magnetic hysteresis stage applied to
// the processed signal.
type HysteresisParams struct {
	Enabled    bool
	Drive      float64
	Width      float64
	Saturation float64
}

// Params is an immutable parameter snapshot. Processor publishes a new
// snapshot for every update; the audio path reads one snapshot per
// sample.
type Params struct {
	ThresholdDB         float64
	Ratio               float64
	KneeDB              float64
	AttackMs            float64
	ReleaseMs           float64
	AttackNonlinearity  float64
	ReleaseNonlinearity float64
	Sensitivity         float64

	Sidechain     SidechainMode
	StereoLink    bool
	PreFilter     PreFilter
	Rectifier     Rectifier
	RectifierKnee float64

	DetectorGainDB float64
	WetDB          float64
	DryDB          float64

	Personality           Personality
	TransientAttackRatio  float64
	TransientReleaseRatio float64

	InputFilter InputFilterParams
	Hysteresis  HysteresisParams
	Output      OutputTap
}

// DefaultParams returns a 4:1 compressor at -20 dB with a 6 dB knee,
// 10 ms attack, 100 ms release, fully wet.
func DefaultParams() Params {
	return Params{
		ThresholdDB:           defaultThresholdDB,
		Ratio:                 defaultRatio,
		KneeDB:                defaultKneeDB,
		AttackMs:              defaultAttackMs,
		ReleaseMs:             defaultReleaseMs,
		Sensitivity:           defaultSensitivity,
		RectifierKnee:         defaultRectifierKnee,
		DryDB:                 math.Inf(-1),
		TransientAttackRatio:  1,
		TransientReleaseRatio: 1,
		InputFilter: InputFilterParams{
			CutoffHz:           defaultInputCutoffHz,
			FeedbackSaturation: true,
			Iterations:         nonlinear.DefaultIterations,
		},
		Hysteresis: HysteresisParams{
			Drive:      defaultHysteresisDrive,
			Width:      defaultHysteresisWidth,
			Saturation: defaultHysteresisSaturation,
		},
	}
}

// Validate reports every out-of-range field.
func (p *Params) Validate() error {
	errs := []error{
		validateFiniteRange(p.ThresholdDB, minThresholdDB, maxThresholdDB, "threshold"),
		validateFiniteRange(p.Ratio, minRatio, maxRatio, "ratio"),
		validateFiniteRange(p.KneeDB, 0, maxKneeDB, "knee"),
		validateFiniteRange(p.AttackMs, minTimeMs, maxTimeMs, "attack"),
		validateFiniteRange(p.ReleaseMs, minTimeMs, maxTimeMs, "release"),
		validateFiniteRange(p.AttackNonlinearity, 0, maxNonlinearity, "attack nonlinearity"),
		validateFiniteRange(p.ReleaseNonlinearity, 0, maxNonlinearity, "release nonlinearity"),
		validateFiniteRange(p.Sensitivity, 0, maxSensitivity, "sensitivity"),
		validateFiniteRange(p.RectifierKnee, minRectifierKnee, maxRectifierKnee, "rectifier knee"),
		validateFiniteRange(p.DetectorGainDB, minDetectorGainDB, maxGainDB, "detector gain"),
		validateLevelDB(p.WetDB, maxGainDB, "wet gain"),
		validateLevelDB(p.DryDB, maxGainDB, "dry gain"),
		validateFiniteRange(p.TransientAttackRatio, minTransientRatio, maxRatio, "transient attack ratio"),
		validateFiniteRange(p.TransientReleaseRatio, minTransientRatio, maxRatio, "transient release ratio"),
		validateFiniteRange(p.InputFilter.CutoffHz, minInputCutoffHz, maxInputCutoffHz, "input filter cutoff"),
		validateFiniteRange(p.InputFilter.Nonlinearity, 0, maxNonlinearity, "input filter nonlinearity"),
		validateFiniteRange(float64(p.InputFilter.Iterations), 0, nonlinear.MaxIterations, "input filter iterations"),
		validateFiniteRange(p.Hysteresis.Drive, minHysteresisDrive, maxHysteresisDrive, "hysteresis drive"),
		validateFiniteRange(p.Hysteresis.Width, 0, 1, "hysteresis width"),
		validateFiniteRange(p.Hysteresis.Saturation, minHysteresisSaturation, maxHysteresisSaturation, "hysteresis saturation"),
	}

	if p.Sidechain < SidechainFeedforward || p.Sidechain > SidechainExternal {
		errs = append(errs, fmt.Errorf("dynamics: invalid sidechain mode: %d", p.Sidechain))
	}

	if !p.PreFilter.valid() {
		errs = append(errs, fmt.Errorf("dynamics: invalid pre-filter: %d", p.PreFilter))
	}

	if !p.Rectifier.valid() {
		errs = append(errs, fmt.Errorf("dynamics: invalid rectifier: %d", p.Rectifier))
	}

	if p.Personality < PersonalityCompressor || p.Personality > PersonalityTransient {
		errs = append(errs, fmt.Errorf("dynamics: invalid personality: %d", p.Personality))
	}

	if p.InputFilter.Mode < InputFilterOff || p.InputFilter.Mode > InputFilterHighpass {
		errs = append(errs, fmt.Errorf("dynamics: invalid input filter mode: %d", p.InputFilter.Mode))
	}

	if p.Output < OutputNormal || p.Output > OutputTransfer {
		errs = append(errs, fmt.Errorf("dynamics: invalid output tap: %d", p.Output))
	}

	return errors.Join(errs...)
}

// Option updates one or more fields of a Params value.
type Option func(*Params) error

// WithParams replaces all fields with p.
func WithParams(p Params) Option {
	return func(dst *Params) error {
		if err := p.Validate(); err != nil {
			return err
		}

		*dst = p

		return nil
	}
}

// WithThreshold sets the threshold in dB, in [-60, 0].
func WithThreshold(dB float64) Option {
	return func(p *Params) error {
		if err := validateFiniteRange(dB, minThresholdDB, maxThresholdDB, "threshold"); err != nil {
			return err
		}

		p.ThresholdDB = dB

		return nil
	}
}

// WithRatio sets the compressor ratio in [1, 1000].
func WithRatio(ratio float64) Option {
	return func(p *Params) error {
		if err := validateFiniteRange(ratio, minRatio, maxRatio, "ratio"); err != nil {
			return err
		}

		p.Ratio = ratio

		return nil
	}
}

// WithKnee sets the soft-knee width in dB. Zero selects a hard knee.
func WithKnee(dB float64) Option {
	return func(p *Params) error {
		if err := validateFiniteRange(dB, 0, maxKneeDB, "knee"); err != nil {
			return err
		}

		p.KneeDB = dB

		return nil
	}
}

// WithAttack sets the attack time in milliseconds, in [0.1, 1000].
func WithAttack(ms float64) Option {
	return func(p *Params) error {
		if err := validateFiniteRange(ms, minTimeMs, maxTimeMs, "attack"); err != nil {
			return err
		}

		p.AttackMs = ms

		return nil
	}
}

// WithRelease sets the release time in milliseconds, in [0.1, 1000].
func WithRelease(ms float64) Option {
	return func(p *Params) error {
		if err := validateFiniteRange(ms, minTimeMs, maxTimeMs, "release"); err != nil {
			return err
		}

		p.ReleaseMs = ms

		return nil
	}
}

// WithNonlinearity sets the attack and release nonlinearity factors N.
// Non-zero values select the nonlinear envelope follower.
func WithNonlinearity(attackN, releaseN float64) Option {
	return func(p *Params) error {
		if err := validateFiniteRange(attackN, 0, maxNonlinearity, "attack nonlinearity"); err != nil {
			return err
		}

		if err := validateFiniteRange(releaseN, 0, maxNonlinearity, "release nonlinearity"); err != nil {
			return err
		}

		p.AttackNonlinearity = attackN
		p.ReleaseNonlinearity = releaseN

		return nil
	}
}

// WithSensitivity sets the transient envelope sensitivity.
func WithSensitivity(s float64) Option {
	return func(p *Params) error {
		if err := validateFiniteRange(s, 0, maxSensitivity, "sensitivity"); err != nil {
			return err
		}

		p.Sensitivity = s

		return nil
	}
}

// WithSidechain selects the detector source.
func WithSidechain(mode SidechainMode) Option {
	return func(p *Params) error {
		if mode < SidechainFeedforward || mode > SidechainExternal {
			return fmt.Errorf("dynamics: invalid sidechain mode: %d", mode)
		}

		p.Sidechain = mode

		return nil
	}
}

// WithStereoLink enables or disables detection on the channel mean.
func WithStereoLink(enabled bool) Option {
	return func(p *Params) error {
		p.StereoLink = enabled
		return nil
	}
}

// WithPreFilter selects the detector weighting.
func WithPreFilter(pf PreFilter) Option {
	return func(p *Params) error {
		if !pf.valid() {
			return fmt.Errorf("dynamics: invalid pre-filter: %d", pf)
		}

		p.PreFilter = pf

		return nil
	}
}

// WithRectifier selects the detector rectifier.
func WithRectifier(r Rectifier) Option {
	return func(p *Params) error {
		if !r.valid() {
			return fmt.Errorf("dynamics: invalid rectifier: %d", r)
		}

		p.Rectifier = r

		return nil
	}
}

// WithRectifierKnee sets the corner width of the soft rectifiers.
func WithRectifierKnee(k float64) Option {
	return func(p *Params) error {
		if err := validateFiniteRange(k, minRectifierKnee, maxRectifierKnee, "rectifier knee"); err != nil {
			return err
		}

		p.RectifierKnee = k

		return nil
	}
}

// WithDetectorGain sets the gain applied to the detector level in dB.
func WithDetectorGain(dB float64) Option {
	return func(p *Params) error {
		if err := validateFiniteRange(dB, minDetectorGainDB, maxGainDB, "detector gain"); err != nil {
			return err
		}

		p.DetectorGainDB = dB

		return nil
	}
}

// WithWetGain sets the processed signal gain in dB. -Inf mutes it.
func WithWetGain(dB float64) Option {
	return func(p *Params) error {
		if err := validateLevelDB(dB, maxGainDB, "wet gain"); err != nil {
			return err
		}

		p.WetDB = dB

		return nil
	}
}

// WithDryGain sets the unprocessed signal gain in dB. -Inf mutes it.
func WithDryGain(dB float64) Option {
	return func(p *Params) error {
		if err := validateLevelDB(dB, maxGainDB, "dry gain"); err != nil {
			return err
		}

		p.DryDB = dB

		return nil
	}
}

// WithPersonality selects compressor or transient designer behavior.
func WithPersonality(personality Personality) Option {
	return func(p *Params) error {
		if personality < PersonalityCompressor || personality > PersonalityTransient {
			return fmt.Errorf("dynamics: invalid personality: %d", personality)
		}

		p.Personality = personality

		return nil
	}
}

// WithTransientRatios sets the transient designer ratios for attacks and
// releases, each in [0.1, 1000]. Ratios below 1 emphasize.
func WithTransientRatios(attack, release float64) Option {
	return func(p *Params) error {
		if err := validateFiniteRange(attack, minTransientRatio, maxRatio, "transient attack ratio"); err != nil {
			return err
		}

		if err := validateFiniteRange(release, minTransientRatio, maxRatio, "transient release ratio"); err != nil {
			return err
		}

		p.TransientAttackRatio = attack
		p.TransientReleaseRatio = release

		return nil
	}
}

// WithInputFilter configures the nonlinear input filter.
func WithInputFilter(f InputFilterParams) Option {
	return func(p *Params) error {
		next := *p
		next.InputFilter = f

		if err := next.Validate(); err != nil {
			return err
		}

		p.InputFilter = f

		return nil
	}
}

// WithHysteresis configures the hysteresis stage.
func WithHysteresis(h HysteresisParams) Option {
	return func(p *Params) error {
		next := *p
		next.Hysteresis = h

		if err := next.Validate(); err != nil {
			return err
		}

		p.Hysteresis = h

		return nil
	}
}

// WithOutputTap selects the output node.
func WithOutputTap(tap OutputTap) Option {
	return func(p *Params) error {
		if tap < OutputNormal || tap > OutputTransfer {
			return fmt.Errorf("dynamics: invalid output tap: %d", tap)
		}

		p.Output = tap

		return nil
	}
}

// applyOptions applies opts to a copy of base. Nil options are skipped.
func applyOptions(base Params, opts []Option) (Params, error) {
	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&base); err != nil {
			return base, err
		}
	}

	return base, nil
}
