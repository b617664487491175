// Package tpt provides topology-preserving (zero-delay-feedback) building
// blocks discretized with the trapezoidal rule.
//
// [Integrator] and [Differentiator] are the only stateful primitives; every
// one-pole filter in this module, linear or nonlinear, is assembled from
// them so that a single discretization rule governs the whole engine.
// [Multimode1] is the zero-delay-feedback one-pole built on [Integrator].
//
// All types are generic over [core.Float] and keep one state slot per
// channel. Processing methods never allocate.
package tpt
