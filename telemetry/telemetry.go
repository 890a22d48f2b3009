package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var registry *prometheus.Registry

// Counter is the subset of prometheus.Counter the service uses.
type Counter interface {
	Inc()
	Add(float64)
}

// Gauge is the subset of prometheus.Gauge the service uses.
type Gauge interface {
	Set(float64)
	Inc()
	Dec()
}

// Histogram observes a single value distribution.
type Histogram interface {
	Observe(float64)
}

// CounterVec is a counter partitioned by label values.
type CounterVec interface {
	With(labels ...string) Counter
}

// NoopStat satisfies Counter, Gauge and Histogram when telemetry is disabled.
type NoopStat struct{}

func (NoopStat) Inc()            {}
func (NoopStat) Add(float64)     {}
func (NoopStat) Set(float64)     {}
func (NoopStat) Dec()            {}
func (NoopStat) Observe(float64) {}

type noopCounterVec struct{}

func (noopCounterVec) With(labels ...string) Counter { return NoopStat{} }

type promCounterVec struct {
	vec *prometheus.CounterVec
}

func (p *promCounterVec) With(labelValues ...string) Counter {
	return p.vec.WithLabelValues(labelValues...)
}

// NewCounter registers a counter, or returns a noop when telemetry is
// disabled.
func NewCounter(name, help string) Counter {
	if registry == nil {
		return NoopStat{}
	}

	ret := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ally",
		Subsystem: "transactions",
		Name:      name,
		Help:      help,
	})
	registry.MustRegister(ret)
	return ret
}

// NewGauge registers a gauge, or returns a noop when telemetry is disabled.
func NewGauge(name, help string) Gauge {
	if registry == nil {
		return NoopStat{}
	}

	ret := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ally",
		Subsystem: "transactions",
		Name:      name,
		Help:      help,
	})
	registry.MustRegister(ret)
	return ret
}

// NewHistogram registers a histogram with the given buckets, or returns a
// noop when telemetry is disabled.
func NewHistogram(name, help string, buckets []float64) Histogram {
	if registry == nil {
		return NoopStat{}
	}

	ret := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "ally",
		Subsystem: "transactions",
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	})
	registry.MustRegister(ret)
	return ret
}

// NewCounterVec registers a labeled counter, or returns a noop when
// telemetry is disabled.
func NewCounterVec(name, help string, labels []string) CounterVec {
	if registry == nil {
		return noopCounterVec{}
	}

	ret := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ally",
		Subsystem: "transactions",
		Name:      name,
		Help:      help,
	}, labels)
	registry.MustRegister(ret)
	return &promCounterVec{vec: ret}
}

// Initialize creates the metric registry and swaps the package metric
// variables from noops to live collectors. When enabled is false every
// metric stays a noop.
func Initialize(enabled bool) {
	if !enabled {
		return
	}

	registry = prometheus.NewRegistry()
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registry.MustRegister(collectors.NewGoCollector())

	initMetrics()

	log.Info().Msg("Prometheus metrics enabled")
}

// MetricsHandler returns the HTTP handler for the metrics endpoint. When
// telemetry is disabled the endpoint answers 404.
func MetricsHandler() http.Handler {
	if registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
}
