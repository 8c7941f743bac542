// Package testutil provides shared test utilities and fixtures.
//
// This package centralises synthetic signal generation so device and
// pipeline tests exercise the same waveforms.
package testutil

import "math"

// Tone synthesizes n real samples of a unit-amplitude cosine whose
// frequency lands on the given (possibly fractional) bin of an nfft-point
// analysis.
func Tone(n, nfft int, bin float64) []float64 {
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = math.Cos(2 * math.Pi * bin * float64(i) / float64(nfft))
	}
	return samples
}

// ToneBeams builds beamCount beams of n samples each. Beam b carries a
// tone at startBin+b, so every beam has a distinct expected peak.
func ToneBeams(beamCount, n, nfft int, startBin float64) [][]float64 {
	beams := make([][]float64, beamCount)
	for b := range beams {
		beams[b] = Tone(n, nfft, startBin+float64(b))
	}
	return beams
}

// Flatten concatenates beams into the contiguous layout device buffers use.
func Flatten(beams [][]float64) []float64 {
	if len(beams) == 0 {
		return nil
	}
	flat := make([]float64, 0, len(beams)*len(beams[0]))
	for _, beam := range beams {
		flat = append(flat, beam...)
	}
	return flat
}
