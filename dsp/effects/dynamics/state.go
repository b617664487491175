package dynamics

import "github.com/cwbudde/algo-vadyn/dsp/core"

// ChannelState is a copy of the per-channel filter state of a Processor.
type ChannelState[F core.Float] struct {
	Feedback    F
	Detector    []F
	Envelope    []F
	InputFilter F
	Hysteresis  []F
}

// State is a deep copy of a Processor's configuration and filter state,
// intended for inspection and tests. Taking it allocates.
type State[F core.Float] struct {
	Config   core.ProcessorConfig
	Params   Params
	Envelope EnvelopeKind
	Channels []ChannelState[F]
}

// State returns a snapshot of the processor. An unprepared processor
// reports no channels.
func (p *Processor[F]) State() State[F] {
	s := State[F]{
		Config:   p.cfg,
		Params:   p.Params(),
		Envelope: p.env.kind,
	}

	if !p.prepared {
		return s
	}

	s.Channels = make([]ChannelState[F], p.cfg.Channels)
	for ch := range s.Channels {
		s.Channels[ch] = ChannelState[F]{
			Feedback:    p.fb[ch],
			Detector:    p.detector.State(ch),
			Envelope:    p.env.state(ch),
			InputFilter: p.inputFilter.State(ch),
			Hysteresis:  p.hysteresis.State(ch),
		}
	}

	return s
}
