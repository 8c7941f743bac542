package search3

// BeamFFTResult is the output of peak search for one beam: the ranked peak
// list plus the sub-bin correction and refined frequency of the top peak.
type BeamFFTResult struct {
	Peaks            []FFTMaxValue
	FreqOffset       float64
	RefinedFrequency float64
}

// Search3FFTResult is the final result of one request: beam results
// index-aligned with the input beam order, the FFT size actually used, and
// the request labels.
type Search3FFTResult struct {
	Results    []BeamFFTResult
	NFFT       int
	TaskID     string
	ModuleName string
}

// ResultAggregator accumulates per-batch beam results, in batch order and
// beam order within each batch, and checks at finalize time that exactly the
// promised number of beams was assembled.
type ResultAggregator struct {
	expected int
	results  []BeamFFTResult
}

// NewResultAggregator creates an aggregator expecting exactly expectedBeams
// beam results.
func NewResultAggregator(expectedBeams int) *ResultAggregator {
	return &ResultAggregator{
		expected: expectedBeams,
		results:  make([]BeamFFTResult, 0, max(expectedBeams, 0)),
	}
}

// Add appends one batch of beam results in arrival order.
func (a *ResultAggregator) Add(batch []BeamFFTResult) {
	a.results = append(a.results, batch...)
}

// Count reports the number of beam results assembled so far.
func (a *ResultAggregator) Count() int { return len(a.results) }

// Finalize assembles the request result. It fails with CountMismatchError
// when the assembled count differs from the expected beam count.
func (a *ResultAggregator) Finalize(nfft int, taskID, moduleName string) (*Search3FFTResult, error) {
	if len(a.results) != a.expected {
		return nil, &CountMismatchError{Expected: a.expected, Got: len(a.results)}
	}
	return &Search3FFTResult{
		Results:    a.results,
		NFFT:       nfft,
		TaskID:     taskID,
		ModuleName: moduleName,
	}, nil
}
