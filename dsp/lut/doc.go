// Package lut provides sampled function tables with linear interpolation.
//
// A [Table] samples an expensive scalar function at uniformly spaced points
// over a closed domain and reconstructs intermediate values by linear
// interpolation. Lookups are allocation-free and safe for the audio path;
// boundary handling is chosen per call site:
//
//   - [Table.ProcessSampleUnchecked]: caller guarantees x in [a, b]
//   - [Table.ProcessSampleMinChecked]: clamps below a
//   - [Table.ProcessSampleMaxChecked]: clamps above b
//   - [Table.ProcessSampleChecked]: clamps both ends
//
// A table is immutable after [New] or [Table.Prepare] returns.
package lut
