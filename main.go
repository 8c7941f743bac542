package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AlexLan73/GPUWorkLib-sub001/internal/config"
	"github.com/AlexLan73/GPUWorkLib-sub001/internal/device"
	"github.com/AlexLan73/GPUWorkLib-sub001/internal/fsutil"
	"github.com/AlexLan73/GPUWorkLib-sub001/internal/logsink"
	"github.com/AlexLan73/GPUWorkLib-sub001/internal/monitoring"
	"github.com/AlexLan73/GPUWorkLib-sub001/internal/search3"
	"github.com/AlexLan73/GPUWorkLib-sub001/internal/testutil"
	"github.com/AlexLan73/GPUWorkLib-sub001/internal/units"
	"github.com/AlexLan73/GPUWorkLib-sub001/internal/version"
)

var (
	beamCount     = flag.Int("beams", 20, "Number of antenna beams")
	countPoints   = flag.Int("points", 1024, "Samples per beam")
	nfft          = flag.Int("nfft", 512, "FFT output size")
	maxPeaks      = flag.Int("peaks", 5, "Peaks to report per beam")
	configPath    = flag.String("config", "", "Path to JSON search config")
	freqUnits     = flag.String("units", units.Hz, "Frequency units for the report (hz, khz, mhz, ghz)")
	toneBin       = flag.Float64("tone", 40.3, "Bin of the synthetic tone injected into beam 0")
	noiseLevel    = flag.Float64("noise", 0.05, "Additive noise amplitude for synthetic beams")
	metricsListen = flag.String("metrics-listen", "", "Optional listen address for /metrics")
	verbose       = flag.Bool("v", false, "Verbose diagnostics")
	showVersion   = flag.Bool("version", false, "Print version and exit")
)

// synthesizeBeams builds one tone per beam, the first at *toneBin and the
// rest stepping up one bin per beam, with a little noise mixed in.
func synthesizeBeams(rng *rand.Rand) [][]float64 {
	beams := testutil.ToneBeams(*beamCount, *countPoints, *nfft, *toneBin)
	for _, beam := range beams {
		for i := range beam {
			beam[i] += *noiseLevel * (2*rng.Float64() - 1)
		}
	}
	return beams
}

func run() error {
	if !units.IsValid(*freqUnits) {
		return fmt.Errorf("invalid units %q (valid: %s)", *freqUnits, units.GetValidUnitsString())
	}

	cfg := config.EmptySearchConfig()
	if *configPath != "" {
		loaded, err := config.LoadSearchConfig(*configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	logService := logsink.NewService(logsink.NewStdSink())
	defer logService.Close()

	metrics := monitoring.NewMetrics()
	if *metricsListen != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))
		go func() {
			if err := http.ListenAndServe(*metricsListen, mux); err != nil && err != http.ErrServerClosed {
				log.Printf("metrics server error: %v", err)
			}
		}()
	}

	resolver := device.NewSourceResolver(fsutil.OSFileSystem{}, cfg.GetKernelPaths())

	backend := device.NewMockBackend()
	eng, err := search3.NewEngine(backend, search3.EngineOptions{
		Log:               logService,
		Metrics:           metrics,
		Resolver:          resolver,
		KernelFile:        cfg.GetKernelFile(),
		SampleIntervalSec: cfg.GetSampleIntervalSec(),
		BatchDefaults:     cfg.GetBatchConfig(),
	})
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	params := search3.AntennaParams{
		BeamCount:         *beamCount,
		CountPoints:       *countPoints,
		OutCountPointsFFT: *nfft,
		MaxPeaksCount:     *maxPeaks,
		ModuleName:        "search3fft",
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	beams := synthesizeBeams(rng)

	start := time.Now()
	res, err := eng.Process(ctx, params, cfg.GetBatchConfig(), beams)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	elapsed := time.Since(start)

	fmt.Printf("task %s: %d beams, nfft %d, %s\n", res.TaskID, len(res.Results), res.NFFT, elapsed.Round(time.Microsecond))
	for b, beam := range res.Results {
		fmt.Printf("beam %3d: peak @ %s (offset %+.4f)\n",
			b, units.FormatFrequency(beam.RefinedFrequency, *freqUnits), beam.FreqOffset)
		if *verbose {
			for rank, p := range beam.Peaks {
				fmt.Printf("    #%d bin %4d amplitude %.3f phase %+.3f\n",
					rank+1, p.IndexPoint, p.Amplitude, p.Phase)
			}
		}
	}
	return nil
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("gpuworklib %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	if err := run(); err != nil {
		log.Fatalf("%v", err)
	}
	os.Exit(0)
}
