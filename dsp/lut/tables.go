package lut

import "github.com/cwbudde/algo-vadyn/dsp/core"

// Default table geometry used by the dynamics processor.
const (
	DefaultGainMax  = 8.0
	DefaultGainSize = 1 << 16
	DefaultDBMin    = core.MinusInfinityDB
	DefaultDBMax    = 24.0
	DefaultDBSize   = 1 << 13
)

// GainToDecibels builds a table of core.GainToDecibels over [0, maxGain].
func GainToDecibels[F core.Float](maxGain F, n int) (*Table[F], error) {
	return New(core.GainToDecibels[F], 0, maxGain, n)
}

// DecibelsToGain builds a table of core.DecibelsToGain over [minDB, maxDB].
func DecibelsToGain[F core.Float](minDB, maxDB F, n int) (*Table[F], error) {
	return New(core.DecibelsToGain[F], minDB, maxDB, n)
}
