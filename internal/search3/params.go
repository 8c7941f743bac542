package search3

import "fmt"

// AntennaParams describes one processing request: how many beams, how many
// input samples per beam, the analysis FFT length, and how many peaks to
// report per beam. TaskID and ModuleName are opaque labels copied into the
// result. Immutable once constructed; owned by the caller for the duration
// of one request.
type AntennaParams struct {
	BeamCount         int
	CountPoints       int
	OutCountPointsFFT int
	MaxPeaksCount     int

	TaskID     string
	ModuleName string
}

// Validate checks the request before any device work starts. All four
// numeric fields must be strictly positive.
func (p AntennaParams) Validate() error {
	switch {
	case p.BeamCount <= 0:
		return fmt.Errorf("%w: beam count %d", ErrInvalidParameters, p.BeamCount)
	case p.CountPoints <= 0:
		return fmt.Errorf("%w: count points %d", ErrInvalidParameters, p.CountPoints)
	case p.OutCountPointsFFT <= 0:
		return fmt.Errorf("%w: output FFT length %d", ErrInvalidParameters, p.OutCountPointsFFT)
	case p.MaxPeaksCount <= 0:
		return fmt.Errorf("%w: max peaks count %d", ErrInvalidParameters, p.MaxPeaksCount)
	}
	return nil
}
