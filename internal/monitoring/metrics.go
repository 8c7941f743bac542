// Package monitoring provides process metrics for the search pipeline.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the search pipeline. Each
// Metrics instance owns a private registry so multiple engines (and parallel
// tests) never fight over collector registration.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal        prometheus.Counter
	requestFailuresTotal prometheus.Counter
	batchesTotal         prometheus.Counter
	kernelBuildsTotal    prometheus.Counter
	beamsProcessedTotal  prometheus.Counter
	batchDuration        prometheus.Histogram
}

// NewMetrics creates a metrics set on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requestsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "search3_requests_total",
			Help: "Total search requests processed",
		}),
		requestFailuresTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "search3_request_failures_total",
			Help: "Total search requests that ended in an error",
		}),
		batchesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "search3_batches_total",
			Help: "Total beam batches executed on the device",
		}),
		kernelBuildsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "search3_kernel_builds_total",
			Help: "Total kernel program builds",
		}),
		beamsProcessedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "search3_beams_processed_total",
			Help: "Total beams run through FFT and peak search",
		}),
		batchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "search3_batch_duration_seconds",
			Help:    "Wall time per batch, upload through peak extraction",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
	}
}

// Registry exposes the private registry for scrapers or test gathering.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// RequestStarted counts one incoming request.
func (m *Metrics) RequestStarted() { m.requestsTotal.Inc() }

// RequestFailed counts one failed request.
func (m *Metrics) RequestFailed() { m.requestFailuresTotal.Inc() }

// KernelBuilt counts one successful program build.
func (m *Metrics) KernelBuilt() { m.kernelBuildsTotal.Inc() }

// BatchCompleted records one finished batch and its duration in seconds.
func (m *Metrics) BatchCompleted(beams int, seconds float64) {
	m.batchesTotal.Inc()
	m.beamsProcessedTotal.Add(float64(beams))
	m.batchDuration.Observe(seconds)
}
