// Package monitoring exposes Prometheus metrics for resolution and analysis
// runs and raises threshold alerts on a finished report.
package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hubmatch"

// Metrics holds the collectors of one process. Each instance owns its
// registry so tests can create as many as they like.
type Metrics struct {
	reg *prometheus.Registry

	resolveTotal    *prometheus.CounterVec
	resolveDuration *prometheus.HistogramVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	hubs          prometheus.Gauge
	assignments   prometheus.Gauge
	unresolved    prometheus.Gauge
	mismatches    prometheus.Gauge
	multiAssigned prometheus.Gauge
	maxDifference prometheus.Gauge
	lastRun       prometheus.Gauge
}

// NewMetrics registers all collectors, plus the Go and process collectors,
// on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		resolveTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolve_total",
			Help:      "Postal code lookups by backend and outcome.",
		}, []string{"backend", "outcome"}),
		resolveDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "resolve_duration_seconds",
			Help:      "Latency of postal code lookups in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"backend"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}, []string{"method", "route", "status"}),
		hubs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "hubs",
			Help:      "Hubs in the last analysed registry.",
		}),
		assignments: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "assignments",
			Help:      "(hub, postal code) pairs in the last report.",
		}),
		unresolved: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "unresolved_postal_codes",
			Help:      "Distinct postal codes without coordinates in the last report.",
		}),
		mismatches: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mismatches",
			Help:      "Mismatch records in the last report.",
		}),
		multiAssigned: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "multi_assigned_postal_codes",
			Help:      "Postal codes listed under more than one hub.",
		}),
		maxDifference: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "max_difference_km",
			Help:      "Largest mismatch difference in the last report.",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last completed analysis.",
		}),
	}

	m.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.resolveTotal, m.resolveDuration,
		m.httpRequests, m.httpDuration,
		m.hubs, m.assignments, m.unresolved, m.mismatches,
		m.multiAssigned, m.maxDifference, m.lastRun,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// ObserveResolve records one lookup. It satisfies resolve.Observer.
func (m *Metrics) ObserveResolve(backend, outcome string, elapsed time.Duration) {
	m.resolveTotal.WithLabelValues(backend, outcome).Inc()
	m.resolveDuration.WithLabelValues(backend).Observe(elapsed.Seconds())
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	st := strconv.Itoa(status)
	m.httpRequests.WithLabelValues(method, route, st).Inc()
	m.httpDuration.WithLabelValues(method, route, st).Observe(elapsed.Seconds())
}

// ObserveSnapshot publishes the gauges of a report snapshot.
func (m *Metrics) ObserveSnapshot(snap *Snapshot) {
	m.hubs.Set(float64(snap.Hubs))
	m.assignments.Set(float64(snap.Assignments))
	m.unresolved.Set(float64(snap.Unresolved))
	m.mismatches.Set(float64(snap.Mismatches))
	m.multiAssigned.Set(float64(snap.MultiAssigned))
	m.maxDifference.Set(snap.MaxDifferenceKM)
	m.lastRun.Set(float64(snap.CollectedAt.Unix()))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}
