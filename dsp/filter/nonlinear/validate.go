package nonlinear

import (
	"fmt"
	"math"
)

func validateFiniteRange(value, lo, hi float64, name string) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("nonlinear: %s must be finite: %v", name, value)
	}

	if value < lo || value > hi {
		return fmt.Errorf("nonlinear: %s must be in [%g, %g]: %f", name, lo, hi, value)
	}

	return nil
}

func validateSetup(sampleRate float64, numChannels int) error {
	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("nonlinear: sample rate must be positive and finite: %f", sampleRate)
	}

	if numChannels < 1 {
		return fmt.Errorf("nonlinear: channel count must be >= 1: %d", numChannels)
	}

	return nil
}
