package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the service's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	attributionRuns *prometheus.CounterVec
	spikes          *prometheus.CounterVec
	reportDuration  *prometheus.HistogramVec
	fallbacks       *prometheus.CounterVec
	cacheRequests   *prometheus.CounterVec
}

// New registers the collectors on reg. A nil registerer yields a no-op Metrics.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	m := &Metrics{
		attributionRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recho",
			Name:      "attribution_runs_total",
			Help:      "Attribution engine invocations by kind.",
		}, []string{"kind"}),
		spikes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recho",
			Name:      "spikes_detected_total",
			Help:      "Spike indices flagged per series.",
		}, []string{"series"}),
		reportDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "recho",
			Name:      "report_duration_seconds",
			Help:      "Time to assemble a report tab.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"tab"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recho",
			Name:      "datastore_fallbacks_total",
			Help:      "Datastore reads that fell back to generated data.",
		}, []string{"op"}),
		cacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recho",
			Name:      "cache_requests_total",
			Help:      "Report cache lookups by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.attributionRuns, m.spikes, m.reportDuration, m.fallbacks, m.cacheRequests)
	return m
}

func (m *Metrics) IncAttribution(kind string) {
	if m == nil || m.attributionRuns == nil {
		return
	}
	m.attributionRuns.WithLabelValues(normalizeLabel(kind)).Inc()
}

func (m *Metrics) AddSpikes(series string, n int) {
	if m == nil || m.spikes == nil || n <= 0 {
		return
	}
	m.spikes.WithLabelValues(normalizeLabel(series)).Add(float64(n))
}

func (m *Metrics) ObserveReport(tab string, d time.Duration) {
	if m == nil || m.reportDuration == nil {
		return
	}
	m.reportDuration.WithLabelValues(normalizeLabel(tab)).Observe(d.Seconds())
}

func (m *Metrics) IncFallback(op string) {
	if m == nil || m.fallbacks == nil {
		return
	}
	m.fallbacks.WithLabelValues(normalizeLabel(op)).Inc()
}

func (m *Metrics) IncCache(result string) {
	if m == nil || m.cacheRequests == nil {
		return
	}
	m.cacheRequests.WithLabelValues(normalizeLabel(result)).Inc()
}

func normalizeLabel(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
