package metrics

import "github.com/prometheus/client_golang/prometheus"

// AgendaMetrics exposes counters/histograms for agenda builds and the
// external calendar fetch behind them.
type AgendaMetrics struct {
	buildLatency  *prometheus.HistogramVec
	externalFetch *prometheus.CounterVec
	itemsTotal    *prometheus.CounterVec
	staleDropped  prometheus.Counter
	invertedTotal prometheus.Counter
}

func NewAgendaMetrics(reg prometheus.Registerer) *AgendaMetrics {
	m := &AgendaMetrics{
		buildLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "trainerdesk",
			Subsystem: "agenda",
			Name:      "build_latency_seconds",
			Help:      "Latency of building one agenda result",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		externalFetch: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trainerdesk",
			Subsystem: "agenda",
			Name:      "external_fetch_total",
			Help:      "External calendar fetches by provider and outcome",
		}, []string{"provider", "outcome"}),
		itemsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trainerdesk",
			Subsystem: "agenda",
			Name:      "items_total",
			Help:      "Agenda items returned, by kind",
		}, []string{"kind"}),
		staleDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trainerdesk",
			Subsystem: "agenda",
			Name:      "stale_results_dropped_total",
			Help:      "Agenda results discarded because a newer request superseded them",
		}),
		invertedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trainerdesk",
			Subsystem: "agenda",
			Name:      "inverted_items_total",
			Help:      "External events whose end preceded their start",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.buildLatency, m.externalFetch, m.itemsTotal, m.staleDropped, m.invertedTotal)
	return m
}

func (m *AgendaMetrics) ObserveBuild(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.buildLatency.WithLabelValues(outcome).Observe(seconds)
}

// ObserveExternalFetch records one provider call. outcome is ok, error,
// reconnect or not_connected.
func (m *AgendaMetrics) ObserveExternalFetch(provider, outcome string) {
	if m == nil {
		return
	}
	if provider == "" {
		provider = "none"
	}
	m.externalFetch.WithLabelValues(provider, outcome).Inc()
}

func (m *AgendaMetrics) ObserveItems(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.itemsTotal.WithLabelValues(kind).Add(float64(n))
}

func (m *AgendaMetrics) IncStaleDropped() {
	if m == nil {
		return
	}
	m.staleDropped.Inc()
}

func (m *AgendaMetrics) IncInverted() {
	if m == nil {
		return
	}
	m.invertedTotal.Inc()
}
