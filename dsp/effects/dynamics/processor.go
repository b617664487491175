package dynamics

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/cwbudde/algo-vadyn/dsp/core"
	"github.com/cwbudde/algo-vadyn/dsp/filter/nonlinear"
	"github.com/cwbudde/algo-vadyn/dsp/filter/tpt"
	"github.com/cwbudde/algo-vadyn/dsp/lut"
)

// Envelopes below this level are read from the exact logarithm; the
// linear table is too coarse near its singularity at zero.
const gainTableLow = 1.0 / 64

// Processor is a virtual-analog dynamics processor. Per sample:
//
//	d   = Detector(sidechain) * detectorGain
//	env = Envelope(d)
//	tf  = dB2g(SoftKnee(g2dB(env), thr, knee, 1/ratio)) / env
//	out = dry*x + wet*Hysteresis(InputFilter(x) * tf)
//
// Parameters are published as immutable snapshots and may be updated from
// one control goroutine while another goroutine processes audio. Prepare
// and Reset must not run concurrently with processing.
type Processor[F core.Float] struct {
	params  atomic.Pointer[Params]
	applied *Params

	cfg      core.ProcessorConfig
	prepared bool

	detector    Detector[F]
	env         envelope[F]
	inputFilter nonlinear.NLMM1Freq[F]
	hysteresis  nonlinear.Hysteresis[F]
	mono        MonoConverter[F]

	g2dB lut.Table[F]
	dB2g lut.Table[F]

	// Derived from the applied snapshot.
	thrDB        F
	kneeDB       F
	kneeStart    F
	slope        F
	slopeAttack  F
	slopeRelease F
	detectorGain F
	wet          F
	dry          F
	personality  Personality
	sidechain    SidechainMode
	link         bool
	filterOn     bool
	hystOn       bool
	tap          OutputTap

	fb      []F
	monoBuf []F
	view    [][]F
	block   blockCursor[F]
}

// NewProcessor returns an unprepared processor configured by opts on top
// of DefaultParams.
func NewProcessor[F core.Float](opts ...Option) (*Processor[F], error) {
	params, err := applyOptions(DefaultParams(), opts)
	if err != nil {
		return nil, err
	}

	p := &Processor[F]{}
	p.params.Store(&params)

	return p, nil
}

// Prepare allocates state for numChannels and blocks of up to blockSize
// frames at sampleRate, builds the lookup tables and applies the current
// parameters. It clears all state.
func (p *Processor[F]) Prepare(sampleRate float64, numChannels, blockSize int) error {
	if err := validateSetup(sampleRate, numChannels); err != nil {
		return err
	}

	if blockSize < 1 {
		return fmt.Errorf("dynamics: block size must be >= 1: %d", blockSize)
	}

	p.prepared = false

	err := errors.Join(
		p.detector.Prepare(sampleRate, numChannels),
		p.env.prepare(sampleRate, numChannels),
		p.inputFilter.Prepare(sampleRate, numChannels),
		p.hysteresis.Prepare(sampleRate, numChannels),
		p.g2dB.Prepare(core.GainToDecibels[F], 0, lut.DefaultGainMax, lut.DefaultGainSize),
		p.dB2g.Prepare(core.DecibelsToGain[F], lut.DefaultDBMin, lut.DefaultDBMax, lut.DefaultDBSize),
	)
	if err != nil {
		return err
	}

	p.cfg = core.ApplyProcessorOptions(
		core.WithSampleRate(sampleRate),
		core.WithChannels(numChannels),
		core.WithBlockSize(blockSize),
	)
	p.mono.Prepare(numChannels)
	p.fb = core.Resize(p.fb, numChannels)
	p.monoBuf = core.Resize(p.monoBuf, blockSize)

	if cap(p.view) < numChannels {
		p.view = make([][]F, numChannels)
	}

	p.view = p.view[:numChannels]

	if err := p.apply(p.params.Load()); err != nil {
		return err
	}

	p.prepared = true

	return nil
}

// Reset clears all filter state without reallocating.
func (p *Processor[F]) Reset() {
	p.detector.Reset()
	p.env.reset()
	p.inputFilter.Reset()
	p.hysteresis.Reset()
	core.Zero(p.fb)
}

// Config returns the prepared sample rate, channel count and block size.
func (p *Processor[F]) Config() core.ProcessorConfig { return p.cfg }

// Params returns the current parameter snapshot.
func (p *Processor[F]) Params() Params { return *p.params.Load() }

// Set applies opts to a copy of the current parameters and publishes the
// result. On error nothing is published.
func (p *Processor[F]) Set(opts ...Option) error {
	for {
		cur := p.params.Load()

		next, err := applyOptions(*cur, opts)
		if err != nil {
			return err
		}

		if p.params.CompareAndSwap(cur, &next) {
			return nil
		}
	}
}

// SetThreshold sets the threshold in dB.
func (p *Processor[F]) SetThreshold(dB float64) error { return p.Set(WithThreshold(dB)) }

// SetRatio sets the compressor ratio.
func (p *Processor[F]) SetRatio(ratio float64) error { return p.Set(WithRatio(ratio)) }

// SetKnee sets the soft-knee width in dB.
func (p *Processor[F]) SetKnee(dB float64) error { return p.Set(WithKnee(dB)) }

// SetAttack sets the attack time in milliseconds.
func (p *Processor[F]) SetAttack(ms float64) error { return p.Set(WithAttack(ms)) }

// SetRelease sets the release time in milliseconds.
func (p *Processor[F]) SetRelease(ms float64) error { return p.Set(WithRelease(ms)) }

// SetSensitivity sets the transient envelope sensitivity.
func (p *Processor[F]) SetSensitivity(s float64) error { return p.Set(WithSensitivity(s)) }

// SetSidechain selects the detector source.
func (p *Processor[F]) SetSidechain(mode SidechainMode) error { return p.Set(WithSidechain(mode)) }

// SetStereoLink enables or disables the stereo link.
func (p *Processor[F]) SetStereoLink(enabled bool) error { return p.Set(WithStereoLink(enabled)) }

// SetWetGain sets the processed signal gain in dB.
func (p *Processor[F]) SetWetGain(dB float64) error { return p.Set(WithWetGain(dB)) }

// SetDryGain sets the unprocessed signal gain in dB.
func (p *Processor[F]) SetDryGain(dB float64) error { return p.Set(WithDryGain(dB)) }

// refresh applies a newly published snapshot. Snapshots are validated
// before publication, so apply cannot fail here.
// refresh applies a newly published snapshot and reports whether one was
// applied.
func (p *Processor[F]) refresh() bool {
	cur := p.params.Load()
	if cur == p.applied {
		return false
	}

	_ = p.apply(cur)

	return true
}

func (p *Processor[F]) apply(prm *Params) error {
	p.applied = prm

	p.thrDB = F(prm.ThresholdDB)
	p.kneeDB = F(prm.KneeDB)
	p.kneeStart = F(prm.ThresholdDB - prm.KneeDB/2)
	p.slope = F(1 / prm.Ratio)
	p.slopeAttack = F(1 / prm.TransientAttackRatio)
	p.slopeRelease = F(1 / prm.TransientReleaseRatio)
	p.detectorGain = core.DecibelsToGain(F(prm.DetectorGainDB))
	p.wet = core.DecibelsToGain(F(prm.WetDB))
	p.dry = core.DecibelsToGain(F(prm.DryDB))
	p.personality = prm.Personality
	p.sidechain = prm.Sidechain
	p.link = prm.StereoLink
	p.tap = prm.Output

	filterWasOn := p.filterOn
	p.filterOn = prm.InputFilter.Mode != InputFilterOff

	hystWasOn := p.hystOn
	p.hystOn = prm.Hysteresis.Enabled

	if p.filterOn && !filterWasOn {
		p.inputFilter.Reset()
	}

	if p.hystOn && !hystWasOn {
		p.hysteresis.Reset()
	}

	mode := tpt.Lowpass
	if prm.InputFilter.Mode == InputFilterHighpass {
		mode = tpt.Highpass
	}

	p.inputFilter.SetMode(mode)
	p.inputFilter.SetFeedbackSaturation(prm.InputFilter.FeedbackSaturation)

	return errors.Join(
		p.detector.SetPreFilter(prm.PreFilter),
		p.detector.SetRectifier(prm.Rectifier),
		p.detector.SetRectifierKnee(prm.RectifierKnee),
		p.env.configure(prm),
		p.inputFilter.SetCutoff(prm.InputFilter.CutoffHz),
		p.inputFilter.SetNonlinearity(prm.InputFilter.Nonlinearity),
		p.inputFilter.SetIterations(prm.InputFilter.Iterations),
		p.hysteresis.SetDrive(prm.Hysteresis.Drive),
		p.hysteresis.SetWidth(prm.Hysteresis.Width),
		p.hysteresis.SetSaturation(prm.Hysteresis.Saturation),
	)
}

// TransferGain returns the gain applied for envelope value env under the
// applied parameters.
func (p *Processor[F]) TransferGain(env F) F {
	slope := p.slope

	if p.personality == PersonalityTransient {
		slope = p.slopeAttack
		if env < 0 {
			env = -env
			slope = p.slopeRelease
		}
	}

	if slope == 1 || !(env > 0) {
		return 1
	}

	var envDB F
	if env < gainTableLow || env >= lut.DefaultGainMax {
		envDB = core.GainToDecibels(env)
	} else {
		envDB = p.g2dB.ProcessSampleUnchecked(env)
	}

	if envDB <= p.kneeStart {
		return 1
	}

	curve := core.SoftKnee(envDB, p.thrDB, p.kneeDB, slope)

	if curve >= lut.DefaultDBMax {
		return core.DecibelsToGain(curve) / env
	}

	return p.dB2g.ProcessSampleChecked(curve) / env
}

// ProcessSample processes one sample of channel ch with the given
// sidechain sample. The sidechain mode and stereo link are not applied;
// callers pass the detector source directly. Out-of-range channels and
// calls before Prepare return x unchanged. Non-finite input is treated as
// silence.
func (p *Processor[F]) ProcessSample(x, sidechain F, ch int) F {
	if !p.prepared || ch < 0 || ch >= p.cfg.Channels {
		return x
	}

	p.refresh()

	return p.processSample(x, sidechain, ch)
}

func (p *Processor[F]) processSample(x, sidechain F, ch int) F {
	if !core.IsFinite(x) {
		x = 0
	}

	if !core.IsFinite(sidechain) {
		sidechain = 0
	}

	in := x
	if p.filterOn {
		in = p.inputFilter.ProcessSample(x, ch)
	}

	d := p.detector.ProcessSample(sidechain, ch) * p.detectorGain
	env := p.env.processSample(d, ch)
	tf := p.TransferGain(env)

	y := in * tf
	if p.hystOn {
		y = p.hysteresis.ProcessSample(y, ch)
	}

	if !core.IsFinite(y) {
		y = p.fb[ch]
	}

	p.fb[ch] = y

	switch p.tap {
	case OutputDetector:
		return d
	case OutputEnvelope:
		return env
	case OutputTransfer:
		return tf
	default:
		return p.dry*x + p.wet*y
	}
}

// Process processes planar buf in place. In external sidechain mode the
// detector falls back to the input; use ProcessWithSidechain to supply a
// key signal.
func (p *Processor[F]) Process(buf [][]F) error {
	return p.ProcessWithSidechain(buf, nil)
}

// ProcessWithSidechain processes planar buf in place, detecting on
// sidechain when the external sidechain mode is selected. sidechain may be
// nil, otherwise it must match buf in shape.
func (p *Processor[F]) ProcessWithSidechain(buf, sidechain [][]F) error {
	if !p.prepared {
		return ErrNotPrepared
	}

	n, err := p.checkShape(buf, "buffer")
	if err != nil {
		return err
	}

	if sidechain != nil {
		m, err := p.checkShape(sidechain, "sidechain")
		if err != nil {
			return err
		}

		if m != n {
			return fmt.Errorf("dynamics: sidechain length %d does not match buffer length %d", m, n)
		}
	}

	for start := 0; start < n; start += p.cfg.BlockSize {
		end := min(start+p.cfg.BlockSize, n)
		p.processBlock(buf, sidechain, start, end)
	}

	return nil
}

func (p *Processor[F]) checkShape(buf [][]F, name string) (int, error) {
	if len(buf) != p.cfg.Channels {
		return 0, fmt.Errorf("dynamics: %s has %d channels, want %d", name, len(buf), p.cfg.Channels)
	}

	n := len(buf[0])
	for ch, data := range buf {
		if len(data) != n {
			return 0, fmt.Errorf("dynamics: %s channel %d has %d samples, want %d", name, ch, len(data), n)
		}
	}

	return n, nil
}

func (p *Processor[F]) processBlock(buf, sidechain [][]F, start, end int) {
	p.beginBlock(buf, sidechain, start, end)

	for i := start; i < end; i++ {
		p.processFrame(i)
	}

	p.block = blockCursor[F]{}
}

// blockCursor holds the planar block being processed and the detector
// source derived for it.
type blockCursor[F core.Float] struct {
	buf, sidechain, source [][]F
	start, end             int
	linked                 bool
}

func (p *Processor[F]) beginBlock(buf, sidechain [][]F, start, end int) {
	p.refresh()

	p.block = blockCursor[F]{buf: buf, sidechain: sidechain, start: start, end: end}
	p.selectSource(start)
}

// selectSource derives the detector source from the applied parameters.
// With the stereo link on, the channel mean from frame from to the end of
// the block is written to monoBuf.
func (p *Processor[F]) selectSource(from int) {
	b := &p.block

	b.source = b.buf
	if p.sidechain == SidechainExternal && b.sidechain != nil {
		b.source = b.sidechain
	}

	b.linked = p.link && p.sidechain != SidechainFeedback
	if !b.linked {
		return
	}

	for ch := range b.source {
		p.view[ch] = b.source[ch][from:b.end]
	}

	p.mono.ProcessBlock(p.monoBuf[from-b.start:b.end-b.start], p.view)
}

func (p *Processor[F]) processFrame(i int) {
	b := &p.block

	if i > b.start && p.refresh() {
		p.selectSource(i)
	}

	var fbMono F
	if p.link && p.sidechain == SidechainFeedback {
		fbMono = p.mono.Mean(p.fb)
	}

	for ch := range b.buf {
		var sc F

		switch {
		case p.sidechain == SidechainFeedback && p.link:
			sc = fbMono
		case p.sidechain == SidechainFeedback:
			sc = p.fb[ch]
		case b.linked:
			sc = p.monoBuf[i-b.start]
		default:
			sc = b.source[ch][i]
		}

		b.buf[ch][i] = p.processSample(b.buf[ch][i], sc, ch)
	}
}

// ProcessInterleaved processes interleaved frames in place. len(buf) must
// be a multiple of the channel count. External sidechain mode detects on
// the input.
func (p *Processor[F]) ProcessInterleaved(buf []F) error {
	if !p.prepared {
		return ErrNotPrepared
	}

	channels := p.cfg.Channels
	if len(buf)%channels != 0 {
		return fmt.Errorf("dynamics: interleaved length %d is not a multiple of %d channels", len(buf), channels)
	}

	for frame := 0; frame < len(buf); frame += channels {
		p.refresh()

		samples := buf[frame : frame+channels]

		var mono F
		if p.link {
			if p.sidechain == SidechainFeedback {
				mono = p.mono.Mean(p.fb)
			} else {
				mono = p.mono.Mean(samples)
			}
		}

		for ch, x := range samples {
			sc := x

			switch {
			case p.link:
				sc = mono
			case p.sidechain == SidechainFeedback:
				sc = p.fb[ch]
			}

			samples[ch] = p.processSample(x, sc, ch)
		}
	}

	return nil
}
