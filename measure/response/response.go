package response

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-vadyn/dsp/core"
)

// ErrEmpty is returned for empty inputs.
var ErrEmpty = errors.New("response: empty input")

// Processor is a sample processor with a sidechain input, as implemented
// by dynamics.Processor[float64].
type Processor interface {
	Reset()
	ProcessSample(x, sidechain float64, ch int) float64
}

// Point is one point of a static transfer curve.
type Point struct {
	InputDB  float64
	OutputDB float64
}

// StaticCurve drives channel 0 of proc with a constant level for settle
// samples per entry of levelsDB and reports the final output level. proc
// is reset before each level.
func StaticCurve(proc Processor, levelsDB []float64, settle int) ([]Point, error) {
	if proc == nil {
		return nil, errors.New("response: nil processor")
	}

	if len(levelsDB) == 0 {
		return nil, ErrEmpty
	}

	if settle < 1 {
		return nil, fmt.Errorf("response: settle must be >= 1: %d", settle)
	}

	curve := make([]Point, len(levelsDB))

	for i, level := range levelsDB {
		if math.IsNaN(level) {
			return nil, fmt.Errorf("response: level %d is NaN", i)
		}

		x := core.DecibelsToGain(level)

		proc.Reset()

		var y float64
		for range settle {
			y = proc.ProcessSample(x, x, 0)
		}

		curve[i] = Point{InputDB: level, OutputDB: core.GainToDecibels(math.Abs(y))}
	}

	return curve, nil
}

// Magnitude returns the magnitude response in dB of impulse for the bins
// 0..fftSize/2. The impulse is truncated or zero-padded to fftSize.
func Magnitude(impulse []float64, fftSize int) ([]float64, error) {
	if len(impulse) == 0 {
		return nil, ErrEmpty
	}

	if fftSize < 2 {
		return nil, fmt.Errorf("response: fft size must be >= 2: %d", fftSize)
	}

	in := make([]complex128, fftSize)
	for i := range min(len(impulse), fftSize) {
		in[i] = complex(impulse[i], 0)
	}

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("response: fft plan: %w", err)
	}

	out := make([]complex128, fftSize)
	if err := plan.Forward(out, in); err != nil {
		return nil, fmt.Errorf("response: fft: %w", err)
	}

	bins := fftSize/2 + 1
	re := make([]float64, bins)
	im := make([]float64, bins)

	for k := range bins {
		re[k] = real(out[k])
		im[k] = imag(out[k])
	}

	mag := make([]float64, bins)
	vecmath.Magnitude(mag, re, im)

	for k, m := range mag {
		mag[k] = core.GainToDecibels(m)
	}

	return mag, nil
}

// BinFrequency returns the centre frequency in Hz of bin k.
func BinFrequency(k, fftSize int, sampleRate float64) float64 {
	return float64(k) * sampleRate / float64(fftSize)
}

// StepSettling returns the first index after which every sample of out
// is within tolDB of targetDB, or -1 if out never settles.
func StepSettling(out []float64, targetDB, tolDB float64) int {
	settled := -1

	for i, y := range out {
		if math.Abs(core.GainToDecibels(math.Abs(y))-targetDB) <= tolDB {
			if settled < 0 {
				settled = i
			}

			continue
		}

		settled = -1
	}

	return settled
}
