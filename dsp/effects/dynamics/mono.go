package dynamics

import (
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-vadyn/dsp/core"
)

// MonoConverter averages a multichannel signal into one channel. The
// stereo link uses it so that every channel sees the same sidechain.
type MonoConverter[F core.Float] struct {
	channels int
	scale    F
}

// Prepare sets the number of input channels.
func (m *MonoConverter[F]) Prepare(numChannels int) {
	m.channels = max(numChannels, 1)
	m.scale = 1 / F(m.channels)
}

// Channels returns the number of input channels.
func (m *MonoConverter[F]) Channels() int { return m.channels }

// Mean returns the arithmetic mean of frame, which holds one sample for
// each of the Channels() channels.
func (m *MonoConverter[F]) Mean(frame []F) F {
	var sum F
	for _, x := range frame {
		sum += x
	}

	return sum * m.scale
}

// ProcessBlock writes the per-frame channel mean of src into dst. src
// holds Channels() channels of at least len(dst) samples each.
func (m *MonoConverter[F]) ProcessBlock(dst []F, src [][]F) {
	if len(src) == 0 {
		core.Zero(dst)
		return
	}

	if d, ok := any(dst).([]float64); ok {
		s, _ := any(src).([][]float64)
		copy(d, s[0])

		for _, ch := range s[1:] {
			vecmath.AddBlockInPlace(d, ch[:len(d)])
		}

		vecmath.ScaleBlock(d, d, float64(m.scale))

		return
	}

	copy(dst, src[0])

	for _, ch := range src[1:] {
		for i := range dst {
			dst[i] += ch[i]
		}
	}

	for i := range dst {
		dst[i] *= m.scale
	}
}
