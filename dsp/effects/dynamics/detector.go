package dynamics

import (
	"fmt"

	"github.com/cwbudde/algo-vadyn/dsp/core"
	"github.com/cwbudde/algo-vadyn/dsp/filter/biquad"
	"github.com/cwbudde/algo-vadyn/dsp/filter/weighting"
)

const (
	defaultRectifierKnee = 0.01
	minRectifierKnee     = 1e-6
	maxRectifierKnee     = 1.0

	// Beyond this ratio x/k the exponential term is below float32 epsilon.
	softRectifyLinear = 40
)

// PreFilter selects the frequency weighting applied before rectification.
type PreFilter int

const (
	// PreFilterNone passes the sidechain unchanged.
	PreFilterNone PreFilter = iota
	// PreFilterK applies the K-weighting high shelf.
	PreFilterK
	// PreFilterA applies IEC 61672 A-weighting.
	PreFilterA
	// PreFilterC applies IEC 61672 C-weighting.
	PreFilterC
)

func (p PreFilter) String() string {
	switch p {
	case PreFilterNone:
		return "None"
	case PreFilterK:
		return "K"
	case PreFilterA:
		return "A"
	case PreFilterC:
		return "C"
	default:
		return "Unknown"
	}
}

func (p PreFilter) valid() bool { return p >= PreFilterNone && p <= PreFilterC }

var preFilterWeighting = [...]weighting.Type{
	PreFilterK: weighting.TypeK,
	PreFilterA: weighting.TypeA,
	PreFilterC: weighting.TypeC,
}

// Rectifier selects how the filtered sidechain is turned into a level.
type Rectifier int

const (
	// RectifierPeak is |x|.
	RectifierPeak Rectifier = iota
	// RectifierHalfWave passes positive half-waves through the soft
	// rectifier and blocks negative ones.
	RectifierHalfWave
	// RectifierFullWave is |x| + k*(exp(-|x|/k) - 1), a rectifier with a
	// rounded corner of width k at zero.
	RectifierFullWave
)

func (r Rectifier) String() string {
	switch r {
	case RectifierPeak:
		return "Peak"
	case RectifierHalfWave:
		return "HalfWave"
	case RectifierFullWave:
		return "FullWave"
	default:
		return "Unknown"
	}
}

func (r Rectifier) valid() bool { return r >= RectifierPeak && r <= RectifierFullWave }

// Detector conditions a sidechain signal into a non-negative level: an
// optional weighting pre-filter followed by a rectifier. All weighting
// banks are built in Prepare so switching pre-filters never allocates.
type Detector[F core.Float] struct {
	banks     [len(preFilterWeighting)]*biquad.Bank[F]
	preFilter PreFilter
	rectifier Rectifier
	knee      F

	sampleRate float64
	channels   int
}

// NewDetector returns an unweighted peak detector.
func NewDetector[F core.Float](sampleRate float64, numChannels int) (*Detector[F], error) {
	d := &Detector[F]{knee: defaultRectifierKnee}
	if err := d.Prepare(sampleRate, numChannels); err != nil {
		return nil, err
	}

	return d, nil
}

// Prepare designs the weighting filters for sampleRate and sizes their
// state for numChannels.
func (d *Detector[F]) Prepare(sampleRate float64, numChannels int) error {
	if err := validateSetup(sampleRate, numChannels); err != nil {
		return err
	}

	for pf := PreFilterK; pf <= PreFilterC; pf++ {
		coeffs, gain, err := weighting.Coefficients(preFilterWeighting[pf], sampleRate)
		if err != nil {
			return fmt.Errorf("dynamics: %s pre-filter: %w", pf, err)
		}

		if d.banks[pf] == nil {
			d.banks[pf] = biquad.NewBank[F](coeffs, gain, numChannels)
			continue
		}

		d.banks[pf].SetCoefficients(coeffs, gain)
		d.banks[pf].Prepare(numChannels)
	}

	if d.knee == 0 {
		d.knee = defaultRectifierKnee
	}

	d.sampleRate = sampleRate
	d.channels = numChannels

	return nil
}

// Reset clears all filter state.
func (d *Detector[F]) Reset() {
	for _, b := range d.banks {
		if b != nil {
			b.Reset()
		}
	}
}

// SetPreFilter selects the weighting. The newly selected filter starts
// from rest.
func (d *Detector[F]) SetPreFilter(pf PreFilter) error {
	if !pf.valid() {
		return fmt.Errorf("dynamics: invalid pre-filter: %d", pf)
	}

	if pf != d.preFilter && d.banks[pf] != nil {
		d.banks[pf].Reset()
	}

	d.preFilter = pf

	return nil
}

// SetRectifier selects the rectifier.
func (d *Detector[F]) SetRectifier(r Rectifier) error {
	if !r.valid() {
		return fmt.Errorf("dynamics: invalid rectifier: %d", r)
	}

	d.rectifier = r

	return nil
}

// SetRectifierKnee sets the corner width k of the soft rectifiers.
func (d *Detector[F]) SetRectifierKnee(k float64) error {
	if err := validateFiniteRange(k, minRectifierKnee, maxRectifierKnee, "rectifier knee"); err != nil {
		return err
	}

	d.knee = F(k)

	return nil
}

// PreFilter returns the active weighting.
func (d *Detector[F]) PreFilter() PreFilter { return d.preFilter }

// Rectifier returns the active rectifier.
func (d *Detector[F]) Rectifier() Rectifier { return d.rectifier }

// Bank returns the filter bank of the active weighting, or nil for
// PreFilterNone.
func (d *Detector[F]) Bank() *biquad.Bank[F] {
	if d.preFilter == PreFilterNone {
		return nil
	}

	return d.banks[d.preFilter]
}

// State returns a copy of the active pre-filter history of channel ch.
func (d *Detector[F]) State(ch int) []F {
	if b := d.Bank(); b != nil {
		return b.History(ch)
	}

	return nil
}

// ProcessSample returns the level of sidechain sample x on channel ch.
func (d *Detector[F]) ProcessSample(x F, ch int) F {
	if d.preFilter != PreFilterNone {
		x = d.banks[d.preFilter].ProcessSample(x, ch)
	}

	return d.Rectify(x)
}

// ProcessBlock runs the detector over buf in place on channel ch. The
// pre-filter runs as one block pass.
func (d *Detector[F]) ProcessBlock(buf []F, ch int) {
	if d.preFilter != PreFilterNone {
		d.banks[d.preFilter].ProcessBlock(buf, ch)
	}

	for i, x := range buf {
		buf[i] = d.Rectify(x)
	}
}

// Rectify applies the active rectifier to x without filtering.
func (d *Detector[F]) Rectify(x F) F {
	switch d.rectifier {
	case RectifierHalfWave:
		if x <= 0 {
			return 0
		}

		return softRectify(x, d.knee)
	case RectifierFullWave:
		if x < 0 {
			x = -x
		}

		return softRectify(x, d.knee)
	default:
		if x < 0 {
			return -x
		}

		return x
	}
}

// softRectify expects x >= 0. The result is clamped at zero to absorb the
// error of the fast exponential near the corner.
func softRectify[F core.Float](x, k F) F {
	u := x / k
	if u > softRectifyLinear {
		return x - k
	}

	return max(x+k*(core.FastExp(-u)-1), 0)
}
