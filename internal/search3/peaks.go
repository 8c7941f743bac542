package search3

import "math"

// refineDenominatorFloor guards the parabolic interpolation against a
// numerically degenerate (near-flat) neighborhood.
const refineDenominatorFloor = 1e-12

// FFTMaxValue is one detected spectral peak: the bin index, its magnitude,
// and the complex bin value at that index before refinement.
type FFTMaxValue struct {
	IndexPoint int
	Amplitude  float64
	Phase      float64
	Real       float64
	Imag       float64
}

// ranksAbove reports whether a outranks b: higher amplitude first, ties
// broken by ascending bin index.
func ranksAbove(a, b FFTMaxValue) bool {
	if a.Amplitude != b.Amplitude {
		return a.Amplitude > b.Amplitude
	}
	return a.IndexPoint < b.IndexPoint
}

// ExtractPeaks scans the magnitude spectrum and returns up to k peaks
// ordered by descending amplitude, ties by ascending index. The selection is
// a bounded insertion into a k-sized candidate list, not a full sort of the
// spectrum. bins, when non-nil, supplies the complex value recorded for each
// selected peak. k larger than the spectrum returns every bin ranked; an
// empty spectrum returns nil.
func ExtractPeaks(mag []float64, bins []complex128, k int) []FFTMaxValue {
	n := len(mag)
	if n == 0 || k <= 0 {
		return nil
	}
	if k > n {
		k = n
	}

	peaks := make([]FFTMaxValue, 0, k)
	for i := 0; i < n; i++ {
		cand := FFTMaxValue{IndexPoint: i, Amplitude: mag[i]}
		if len(peaks) == k && !ranksAbove(cand, peaks[k-1]) {
			continue
		}
		pos := len(peaks)
		for pos > 0 && ranksAbove(cand, peaks[pos-1]) {
			pos--
		}
		if len(peaks) < k {
			peaks = append(peaks, FFTMaxValue{})
		}
		copy(peaks[pos+1:], peaks[pos:])
		peaks[pos] = cand
	}

	if bins != nil {
		for i := range peaks {
			p := &peaks[i]
			if p.IndexPoint < len(bins) {
				c := bins[p.IndexPoint]
				p.Real = real(c)
				p.Imag = imag(c)
				p.Phase = math.Atan2(imag(c), real(c))
			}
		}
	}
	return peaks
}

// RefineOffset estimates the sub-bin frequency correction of the peak at
// bin i by parabolic interpolation over its immediate neighbors. At
// spectrum edges, and when the denominator is numerically degenerate or the
// result falls outside (-0.5, 0.5), the offset is 0.
func RefineOffset(mag []float64, i int) float64 {
	if i <= 0 || i >= len(mag)-1 {
		return 0
	}
	alpha := mag[i-1]
	beta := mag[i]
	gamma := mag[i+1]

	den := alpha - 2*beta + gamma
	if math.Abs(den) < refineDenominatorFloor {
		return 0
	}
	offset := 0.5 * (alpha - gamma) / den
	if math.IsNaN(offset) || offset <= -0.5 || offset >= 0.5 {
		return 0
	}
	return offset
}

// BinWidthHz returns the spectral bin spacing for an nfft-point transform
// over samples taken every sampleIntervalSec seconds.
func BinWidthHz(nfft int, sampleIntervalSec float64) float64 {
	if nfft <= 0 || sampleIntervalSec <= 0 {
		return 0
	}
	return 1 / (sampleIntervalSec * float64(nfft))
}

// RefinedFrequency converts a peak bin index plus sub-bin offset into an
// absolute frequency.
func RefinedFrequency(index int, offset, binWidthHz float64) float64 {
	return (float64(index) + offset) * binWidthHz
}
