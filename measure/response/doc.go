// Package response measures the static and dynamic behavior of dynamics
// processors and filters.
//
//   - StaticCurve: steady-state output level against constant input level
//   - Magnitude: magnitude response in dB of an impulse response
//   - StepSettling: first index after which a response stays on target
//
// # Usage
//
//	curve, err := response.StaticCurve(proc, []float64{-40, -20, 0}, 4800)
//	mag, err := response.Magnitude(bank.ImpulseResponse(4096), 4096)
package response
