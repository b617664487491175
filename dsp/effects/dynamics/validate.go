package dynamics

import (
	"errors"
	"fmt"
	"math"
)

// ErrNotPrepared is returned when processing is requested before Prepare.
var ErrNotPrepared = errors.New("dynamics: processor not prepared")

func validateFiniteRange(value, lo, hi float64, name string) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("dynamics: %s must be finite: %v", name, value)
	}

	if value < lo || value > hi {
		return fmt.Errorf("dynamics: %s must be in [%g, %g]: %f", name, lo, hi, value)
	}

	return nil
}

// validateLevelDB accepts -Inf (silence) up to hi.
func validateLevelDB(value, hi float64, name string) error {
	if math.IsNaN(value) || math.IsInf(value, 1) || value > hi {
		return fmt.Errorf("dynamics: %s must be <= %g dB: %f", name, hi, value)
	}

	return nil
}

func validateSetup(sampleRate float64, numChannels int) error {
	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("dynamics: sample rate must be positive and finite: %f", sampleRate)
	}

	if numChannels < 1 {
		return fmt.Errorf("dynamics: channel count must be >= 1: %d", numChannels)
	}

	return nil
}
