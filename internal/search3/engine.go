package search3

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/AlexLan73/GPUWorkLib-sub001/internal/device"
	"github.com/AlexLan73/GPUWorkLib-sub001/internal/logsink"
	"github.com/AlexLan73/GPUWorkLib-sub001/internal/monitoring"
)

// DefaultKernelFile is the kernel source file resolved across the search
// paths at engine startup.
const DefaultKernelFile = "search3fft.cl"

const logComponent = "search3.engine"

// EngineOptions configures an Engine. Zero values select defaults.
type EngineOptions struct {
	// Log receives diagnostic records. Nil means no diagnostics.
	Log *logsink.Service
	// Metrics receives pipeline counters. Nil creates a private set.
	Metrics *monitoring.Metrics
	// Resolver locates kernel sources. Nil uses the default search paths on
	// the real filesystem.
	Resolver *device.SourceResolver
	// KernelFile overrides DefaultKernelFile.
	KernelFile string
	// SampleIntervalSec is the sampling interval used to derive bin width.
	// Zero or negative selects 1.0, making refined frequencies come out in
	// cycles-per-sample units.
	SampleIntervalSec float64
	// BatchDefaults is the batching policy used when a request passes a
	// zero BatchConfig. Zero selects DefaultBatchConfig.
	BatchDefaults BatchConfig
}

// Engine drives one full search request: validation, kernel lifecycle,
// batch planning, per-batch device execution, peak extraction, aggregation.
type Engine struct {
	backend        device.Backend
	log            *logsink.Service
	metrics        *monitoring.Metrics
	resolver       *device.SourceResolver
	kernelFile     string
	sampleInterval float64
	batchDefaults  BatchConfig
}

// NewEngine creates an engine bound to a compute backend.
func NewEngine(backend device.Backend, opts EngineOptions) (*Engine, error) {
	if backend == nil {
		return nil, device.ErrNoBackend
	}
	log := opts.Log
	if log == nil {
		log = logsink.NewService()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = monitoring.NewMetrics()
	}
	resolver := opts.Resolver
	if resolver == nil {
		resolver = device.NewSourceResolver(nil, nil)
	}
	kernelFile := opts.KernelFile
	if kernelFile == "" {
		kernelFile = DefaultKernelFile
	}
	sampleInterval := opts.SampleIntervalSec
	if sampleInterval <= 0 {
		sampleInterval = 1.0
	}
	batchDefaults := opts.BatchDefaults
	if batchDefaults == (BatchConfig{}) {
		batchDefaults = DefaultBatchConfig()
	}
	return &Engine{
		backend:        backend,
		log:            log,
		metrics:        metrics,
		resolver:       resolver,
		kernelFile:     kernelFile,
		sampleInterval: sampleInterval,
		batchDefaults:  batchDefaults,
	}, nil
}

// Metrics exposes the engine's metrics set.
func (e *Engine) Metrics() *monitoring.Metrics { return e.metrics }

// Process runs one search request over the given beams. beams must hold
// exactly params.BeamCount slices of params.CountPoints samples each. A zero
// cfg selects the engine's default batching policy. Batch failures abort the
// whole request; no partial results are returned.
func (e *Engine) Process(ctx context.Context, params AntennaParams, cfg BatchConfig, beams [][]float64) (*Search3FFTResult, error) {
	e.metrics.RequestStarted()
	res, err := e.process(ctx, params, cfg, beams)
	if err != nil {
		e.metrics.RequestFailed()
		e.log.Errorf(logComponent, "task %q failed: %v", params.TaskID, err)
		return nil, err
	}
	return res, nil
}

func (e *Engine) process(ctx context.Context, params AntennaParams, cfg BatchConfig, beams [][]float64) (*Search3FFTResult, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if len(beams) != params.BeamCount {
		return nil, fmt.Errorf("%w: got %d beams, params declare %d", ErrInvalidParameters, len(beams), params.BeamCount)
	}
	for i, beam := range beams {
		if len(beam) != params.CountPoints {
			return nil, fmt.Errorf("%w: beam %d has %d samples, params declare %d", ErrInvalidParameters, i, len(beam), params.CountPoints)
		}
	}
	if cfg == (BatchConfig{}) {
		cfg = e.batchDefaults
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if !e.backend.Available() {
		return nil, device.ErrBackendUnavailable
	}

	taskID := params.TaskID
	if taskID == "" {
		taskID = uuid.NewString()
	}

	dctx, err := e.backend.NewContext(0)
	if err != nil {
		return nil, err
	}
	defer dctx.Close()

	mgr := device.NewKernelManager(dctx)
	defer mgr.ReleaseAll()
	if err := mgr.LoadSource(e.resolver, e.kernelFile); err != nil {
		return nil, err
	}
	if err := mgr.Build(); err != nil {
		return nil, err
	}
	e.metrics.KernelBuilt()
	if err := mgr.CreateKernels(device.StandardKernelNames()); err != nil {
		return nil, err
	}

	queue, err := dctx.NewQueue()
	if err != nil {
		return nil, err
	}
	defer queue.Close()

	nfft := params.OutCountPointsFFT
	info := dctx.Device()
	mem := MemoryModel{
		PerBeamBytes:   perBeamFootprint(params.CountPoints, nfft),
		AvailableBytes: info.MemoryBytes,
	}
	sizes, err := PlanBatches(params.BeamCount, cfg, mem)
	if err != nil {
		return nil, err
	}
	e.log.Infof(logComponent, "task %q: %d beams across %d batches on %s", taskID, params.BeamCount, len(sizes), info.Name)

	agg := NewResultAggregator(params.BeamCount)
	offset := 0
	for _, size := range sizes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()
		batch, err := e.processBatch(dctx, queue, mgr, beams[offset:offset+size], params.CountPoints, nfft, params.MaxPeaksCount)
		if err != nil {
			return nil, fmt.Errorf("batch of %d beams at offset %d: %w", size, offset, err)
		}
		e.metrics.BatchCompleted(size, time.Since(start).Seconds())
		agg.Add(batch)
		offset += size
	}

	return agg.Finalize(nfft, taskID, params.ModuleName)
}

// perBeamFootprint estimates the device bytes one beam occupies across the
// batch buffers: float64 input samples, complex spectrum, float64 magnitude
// spectrum, and its slot in the per-beam peak index buffer.
func perBeamFootprint(countPoints, nfft int) int64 {
	in := int64(countPoints) * device.ElemFloat64.Bytes()
	spectrum := int64(nfft) * device.ElemComplex128.Bytes()
	magnitude := int64(nfft) * device.ElemFloat64.Bytes()
	peak := device.ElemFloat64.Bytes()
	return in + spectrum + magnitude + peak
}

// processBatch runs the three kernel passes for one batch and extracts the
// ranked peaks host-side. All batch buffers are released before returning,
// so at most one batch's footprint is resident at a time.
func (e *Engine) processBatch(dctx device.Context, queue device.Queue, mgr *device.KernelManager, beams [][]float64, countPoints, nfft, maxPeaks int) (results []BeamFFTResult, err error) {
	size := len(beams)

	in, err := dctx.NewBuffer(size*countPoints, device.ElemFloat64, device.MemReadOnly)
	if err != nil {
		return nil, err
	}
	defer releaseBuffer(in, &err)
	spectrum, err := dctx.NewBuffer(size*nfft, device.ElemComplex128, device.MemReadWrite)
	if err != nil {
		return nil, err
	}
	defer releaseBuffer(spectrum, &err)
	magnitude, err := dctx.NewBuffer(size*nfft, device.ElemFloat64, device.MemReadWrite)
	if err != nil {
		return nil, err
	}
	defer releaseBuffer(magnitude, &err)
	peakIdx, err := dctx.NewBuffer(size, device.ElemFloat64, device.MemWriteOnly)
	if err != nil {
		return nil, err
	}
	defer releaseBuffer(peakIdx, &err)

	samples := make([]float64, 0, size*countPoints)
	for _, beam := range beams {
		samples = append(samples, beam...)
	}
	if err := in.Upload(samples); err != nil {
		return nil, err
	}

	fftKernel, err := mgr.Kernel(device.KernelFFTForward)
	if err != nil {
		return nil, err
	}
	magKernel, err := mgr.Kernel(device.KernelMagnitude)
	if err != nil {
		return nil, err
	}
	peakKernel, err := mgr.Kernel(device.KernelPeakSearch)
	if err != nil {
		return nil, err
	}

	if err := queue.EnqueueKernel(fftKernel, size, in, spectrum, countPoints, nfft); err != nil {
		return nil, err
	}
	if err := queue.EnqueueKernel(magKernel, size, spectrum, magnitude, nfft); err != nil {
		return nil, err
	}
	if err := queue.EnqueueKernel(peakKernel, size, magnitude, peakIdx, nfft); err != nil {
		return nil, err
	}
	if err := queue.Synchronize(); err != nil {
		return nil, err
	}

	hostMag := make([]float64, size*nfft)
	if err := magnitude.Download(hostMag); err != nil {
		return nil, err
	}
	hostBins := make([]complex128, size*nfft)
	if err := spectrum.Download(hostBins); err != nil {
		return nil, err
	}
	hostPeaks := make([]float64, size)
	if err := peakIdx.Download(hostPeaks); err != nil {
		return nil, err
	}

	binWidth := BinWidthHz(nfft, e.sampleInterval)
	results = make([]BeamFFTResult, size)
	for b := 0; b < size; b++ {
		mag := hostMag[b*nfft : (b+1)*nfft]
		bins := hostBins[b*nfft : (b+1)*nfft]
		peaks := ExtractPeaks(mag, bins, maxPeaks)

		beam := BeamFFTResult{Peaks: peaks}
		if len(peaks) > 0 {
			top := peaks[0]
			if int(hostPeaks[b]) != top.IndexPoint {
				e.log.Warnf(logComponent, "beam %d: device peak bin %d disagrees with host ranking %d", b, int(hostPeaks[b]), top.IndexPoint)
			}
			beam.FreqOffset = RefineOffset(mag, top.IndexPoint)
			beam.RefinedFrequency = RefinedFrequency(top.IndexPoint, beam.FreqOffset, binWidth)
		}
		results[b] = beam
	}
	return results, nil
}

// releaseBuffer releases buf and surfaces the release error only when the
// batch itself succeeded.
func releaseBuffer(buf device.Buffer, errp *error) {
	if rerr := buf.Release(); rerr != nil && *errp == nil {
		*errp = rerr
	}
}
