package search3

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPeaksRankingAndTies(t *testing.T) {
	t.Parallel()

	// Symmetric spectrum: top bin 2, then the tied 5s with the lower index
	// first.
	peaks := ExtractPeaks([]float64{1, 5, 9, 5, 1}, nil, 3)
	require.Len(t, peaks, 3)

	assert.Equal(t, 2, peaks[0].IndexPoint)
	assert.Equal(t, 9.0, peaks[0].Amplitude)
	assert.Equal(t, 1, peaks[1].IndexPoint)
	assert.Equal(t, 5.0, peaks[1].Amplitude)
	assert.Equal(t, 3, peaks[2].IndexPoint)
	assert.Equal(t, 5.0, peaks[2].Amplitude)

	// Symmetric neighbors around the top peak leave the offset at zero.
	assert.Equal(t, 0.0, RefineOffset([]float64{1, 5, 9, 5, 1}, peaks[0].IndexPoint))
}

func TestExtractPeaksKLargerThanSpectrum(t *testing.T) {
	t.Parallel()

	spectrum := []float64{1, 2, 3, 4}
	peaks := ExtractPeaks(spectrum, nil, 10)
	require.Len(t, peaks, 4, "k beyond N returns all bins ranked")

	assert.Equal(t, []int{3, 2, 1, 0}, peakIndices(peaks))
}

func TestExtractPeaksFlatSpectrum(t *testing.T) {
	t.Parallel()

	peaks := ExtractPeaks([]float64{7, 7, 7, 7, 7, 7}, nil, 4)
	require.Len(t, peaks, 4)
	assert.Equal(t, []int{0, 1, 2, 3}, peakIndices(peaks), "flat spectrum falls back to ascending index order")
}

func TestExtractPeaksEmptySpectrum(t *testing.T) {
	t.Parallel()

	assert.Nil(t, ExtractPeaks(nil, nil, 3))
	assert.Nil(t, ExtractPeaks([]float64{}, nil, 3))
	assert.Nil(t, ExtractPeaks([]float64{1, 2}, nil, 0))
}

func TestExtractPeaksComplexBins(t *testing.T) {
	t.Parallel()

	mag := []float64{0, 3, 0}
	bins := []complex128{0, complex(0, 3), 0}

	peaks := ExtractPeaks(mag, bins, 1)
	require.Len(t, peaks, 1)
	assert.Equal(t, 1, peaks[0].IndexPoint)
	assert.Equal(t, 0.0, peaks[0].Real)
	assert.Equal(t, 3.0, peaks[0].Imag)
	assert.InDelta(t, math.Pi/2, peaks[0].Phase, 1e-12)
}

func TestRefineOffsetAsymmetricNeighbors(t *testing.T) {
	t.Parallel()

	// Heavier left neighbor pulls the estimate below the bin center.
	mag := []float64{0, 6, 8, 2, 0}
	offset := RefineOffset(mag, 2)
	want := 0.5 * (6.0 - 2.0) / (6.0 - 16.0 + 2.0)
	assert.InDelta(t, want, offset, 1e-12)
	assert.Negative(t, offset)
	assert.Greater(t, offset, -0.5)
}

func TestRefineOffsetEdgesAndDegenerate(t *testing.T) {
	t.Parallel()

	mag := []float64{9, 5, 9}
	assert.Equal(t, 0.0, RefineOffset(mag, 0), "left edge skips interpolation")
	assert.Equal(t, 0.0, RefineOffset(mag, 2), "right edge skips interpolation")

	// Flat neighborhood: denominator collapses to zero.
	assert.Equal(t, 0.0, RefineOffset([]float64{4, 4, 4}, 1))

	// A near-linear slope produces an out-of-range estimate; it is
	// discarded rather than reported as a sub-bin correction.
	assert.Equal(t, 0.0, RefineOffset([]float64{3, 2.1, 1}, 1))
}

func TestBinWidthAndRefinedFrequency(t *testing.T) {
	t.Parallel()

	// 512 bins at 1 ms sampling: 1/(0.001*512) Hz per bin.
	width := BinWidthHz(512, 0.001)
	assert.InDelta(t, 1.953125, width, 1e-9)

	freq := RefinedFrequency(100, 0.25, width)
	assert.InDelta(t, 100.25*width, freq, 1e-9)

	assert.Equal(t, 0.0, BinWidthHz(0, 0.001))
	assert.Equal(t, 0.0, BinWidthHz(512, 0))
}

func peakIndices(peaks []FFTMaxValue) []int {
	out := make([]int, len(peaks))
	for i, p := range peaks {
		out[i] = p.IndexPoint
	}
	return out
}
