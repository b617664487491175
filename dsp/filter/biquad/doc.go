// Package biquad provides second-order IIR filter coefficients and a
// generic multichannel runtime.
//
// [Coefficients] describe one normalized second-order section and expose
// analytic frequency-response helpers. A [Bank] cascades one or more
// sections and keeps independent Direct Form I history (two input and two
// output taps per section) for every channel.
//
// Coefficient design for weighting curves lives in dsp/filter/weighting.
package biquad
