// Package telemetry exposes per-policy simulation counters as Prometheus metrics.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cachemrc"

// Recorder holds the metrics of one run in a private registry.
// All methods are safe for concurrent use and are no-ops on a nil *Recorder,
// so simulations can run without metrics.
type Recorder struct {
	registry *prometheus.Registry

	AccessesTotal        *prometheus.CounterVec
	SampledAccessesTotal *prometheus.CounterVec
	RejectedTotal        *prometheus.CounterVec
	SimulationDuration   *prometheus.GaugeVec
	MinMissRatio         *prometheus.GaugeVec
}

// NewRecorder creates and registers all metrics.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	policy := []string{"policy"}

	return &Recorder{
		registry: reg,
		AccessesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accesses_total",
			Help:      "Trace accesses replayed by a policy's simulation, sampled or not",
		}, policy),
		SampledAccessesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sampled_accesses_total",
			Help:      "Accesses kept by the sampler and simulated against every capacity bucket",
		}, policy),
		RejectedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejected_admissions_total",
			Help:      "Admissions refused because the object exceeded a bucket's capacity, summed over buckets",
		}, policy),
		SimulationDuration: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "simulation_duration_seconds",
			Help:      "Wall time of the last completed simulation",
		}, policy),
		MinMissRatio: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "min_miss_ratio",
			Help:      "Lowest miss ratio on the computed curve",
		}, policy),
	}
}

// Registry returns the registry backing this recorder.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler serves the recorder's metrics in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// AddAccesses records n more replayed accesses for policy.
func (r *Recorder) AddAccesses(policy string, n uint64) {
	if r == nil || n == 0 {
		return
	}
	r.AccessesTotal.WithLabelValues(policy).Add(float64(n))
}

// RecordRun records the end-of-run figures for policy.
func (r *Recorder) RecordRun(policy string, sampled, rejected uint64, seconds, minMissRatio float64) {
	if r == nil {
		return
	}
	r.SampledAccessesTotal.WithLabelValues(policy).Add(float64(sampled))
	r.RejectedTotal.WithLabelValues(policy).Add(float64(rejected))
	r.SimulationDuration.WithLabelValues(policy).Set(seconds)
	r.MinMissRatio.WithLabelValues(policy).Set(minMissRatio)
}
