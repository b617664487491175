// Package weighting provides frequency weighting filters for level
// detection.
//
// Supported curves:
//
//   - A-weighting (IEC 61672, 6th order), normalized to 0 dB at 1 kHz.
//   - C-weighting (IEC 61672, 4th order), normalized to 0 dB at 1 kHz.
//   - Z-weighting: flat.
//   - K: a second-order high shelf (+4 dB above about 1.7 kHz) used as a
//     loudness pre-filter in front of dynamics detectors.
//
// [Coefficients] returns the bilinear-transformed sections and [New] wraps
// them in a multichannel [biquad.Bank].
package weighting
