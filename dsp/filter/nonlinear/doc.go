// Package nonlinear provides virtual-analog one-pole filters whose
// coefficients depend on the signal, plus a Jiles-Atherton hysteresis
// stage.
//
// [NLMM1Freq] models a saturating inductor: its cutoff rises with the
// magnitude of its own output following an inverted Froelich-Kennelly law,
//
//	Omega(y) = (sqrt(OmegaLin) + N*|y|)^2
//
// and the resulting implicit zero-delay-feedback equation is solved every
// sample with a fixed number of Newton-Raphson iterations.
//
// [NLMM1Time] applies the same law explicitly from the previous output and
// is parameterized by a time constant, which makes it the building block
// for nonlinear envelope followers.
//
// [Hysteresis] integrates the discretized Jiles-Atherton magnetization ODE
// with the trapezoidal primitives from package tpt.
//
// All processing methods are allocation-free and never return NaN or Inf
// for finite input; degenerate intermediate values fall back to the last
// good output.
package nonlinear
