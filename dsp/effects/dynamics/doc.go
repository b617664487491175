// Package dynamics provides a virtual-analog dynamics engine.
//
// Processor senses signal energy with a Detector, smooths it with an
// attack/release envelope follower and maps the envelope through a
// dB-domain soft-knee curve onto a gain that is applied back to the
// signal. One engine covers two personalities:
//   - Compressor: ballistics envelope (linear or nonlinear) with a single
//     ratio. Ratios near 1000 behave as a limiter.
//   - Transient designer: the difference of a fast and a slow envelope,
//     with separate ratios for attacks and releases.
//
// Building blocks are exported for reuse: BallisticsFilter,
// NLBallisticsFilter, NLEnvelopeFilter, Detector and MonoConverter.
package dynamics
