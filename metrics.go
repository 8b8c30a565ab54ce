package marketcache

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts what the pipelines do. A nil *Metrics records nothing.
type Metrics struct {
	lookups         *prometheus.CounterVec
	fallbacks       *prometheus.CounterVec
	upstreamErrors  *prometheus.CounterVec
	upstreamLatency *prometheus.HistogramVec
	writeErrors     *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marketcache",
			Name:      "lookups_total",
			Help:      "Cache lookups by class and outcome (hit, miss, stale, forced).",
		}, []string{"class", "outcome"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marketcache",
			Name:      "fallbacks_total",
			Help:      "Upstream failures resolved from cache (served) or not (absent).",
		}, []string{"class", "outcome"}),
		upstreamErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marketcache",
			Name:      "upstream_errors_total",
			Help:      "Upstream calls that failed, timed out or returned no usable data.",
		}, []string{"class"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "marketcache",
			Name:      "upstream_duration_seconds",
			Help:      "Upstream call duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 10, 15},
		}, []string{"class"}),
		writeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marketcache",
			Name:      "write_errors_total",
			Help:      "Background cache writes that failed.",
		}, []string{"class"}),
	}
	reg.MustRegister(m.lookups, m.fallbacks, m.upstreamErrors, m.upstreamLatency, m.writeErrors)
	return m
}

func (m *Metrics) lookup(c Class, outcome string) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(c.String(), outcome).Inc()
}

func (m *Metrics) fallback(c Class, served bool) {
	if m == nil {
		return
	}
	outcome := "absent"
	if served {
		outcome = "served"
	}
	m.fallbacks.WithLabelValues(c.String(), outcome).Inc()
}

func (m *Metrics) upstream(c Class, start time.Time, err error) {
	if m == nil {
		return
	}
	m.upstreamLatency.WithLabelValues(c.String()).Observe(time.Since(start).Seconds())
	if err != nil {
		m.upstreamErrors.WithLabelValues(c.String()).Inc()
	}
}

func (m *Metrics) writeError(c Class) {
	if m == nil {
		return
	}
	m.writeErrors.WithLabelValues(c.String()).Inc()
}
