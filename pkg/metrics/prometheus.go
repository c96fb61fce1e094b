package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	invocations  *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	inFlight     *prometheus.GaugeVec
	cacheLookups *prometheus.CounterVec
}

// New creates a recorder and registers its collectors with reg. A nil reg
// means the default registry.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	r := &Recorder{
		invocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stocksignal_worker_invocations_total",
				Help: "Worker invocations by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stocksignal_worker_duration_seconds",
				Help:    "Wall time of worker invocations in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 15, 20, 25, 30},
			},
			[]string{"kind"},
		),
		inFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stocksignal_worker_in_flight",
				Help: "Worker processes currently running",
			},
			[]string{"kind"},
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stocksignal_cache_lookups_total",
				Help: "Outcome cache lookups by kind and result",
			},
			[]string{"kind", "result"},
		),
	}
	r.invocations = adopt(reg, r.invocations).(*prometheus.CounterVec)
	r.duration = adopt(reg, r.duration).(*prometheus.HistogramVec)
	r.inFlight = adopt(reg, r.inFlight).(*prometheus.GaugeVec)
	r.cacheLookups = adopt(reg, r.cacheLookups).(*prometheus.CounterVec)
	return r
}

// adopt registers c or returns the collector already registered under the same
// name, so New can be called more than once against one registry.
func adopt(reg prometheus.Registerer, c prometheus.Collector) prometheus.Collector {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector
		}
		panic(err)
	}
	return c
}

// RecordInvocation counts a finished invocation and observes its duration.
func (r *Recorder) RecordInvocation(kind, outcome string, seconds float64) {
	r.invocations.WithLabelValues(kind, outcome).Inc()
	r.duration.WithLabelValues(kind).Observe(seconds)
}

func (r *Recorder) WorkerStarted(kind string) {
	r.inFlight.WithLabelValues(kind).Inc()
}

func (r *Recorder) WorkerFinished(kind string) {
	r.inFlight.WithLabelValues(kind).Dec()
}

// RecordCacheLookup counts a hit or miss.
func (r *Recorder) RecordCacheLookup(kind string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(kind, result).Inc()
}
