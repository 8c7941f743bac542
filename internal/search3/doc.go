// Package search3 implements the beam spectral peak search pipeline:
// parameter validation, memory-aware batch planning, FFT and peak kernels
// executed through the device abstraction, top-k peak extraction with
// sub-bin refinement, and per-beam result aggregation.
package search3
