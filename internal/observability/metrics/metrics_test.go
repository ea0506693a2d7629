package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

// counterValue sums every series of the named family with the given label value.
func counterValue(t *testing.T, reg *prometheus.Registry, name, label, value string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	total := 0.0
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			match := label == ""
			for _, lp := range m.GetLabel() {
				if lp.GetName() == label && lp.GetValue() == value {
					match = true
				}
			}
			if match {
				total += m.GetCounter().GetValue()
			}
		}
	}
	return total
}

func TestAgendaMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewAgendaMetrics(reg)
	m.ObserveBuild("ok", 0.02)
	m.ObserveExternalFetch("google", "ok")
	m.ObserveExternalFetch("google", "reconnect")
	m.ObserveExternalFetch("", "not_connected")
	m.ObserveItems("internal", 3)
	m.ObserveItems("external", 0)
	m.IncStaleDropped()
	m.IncInverted()

	if got := counterValue(t, reg, "trainerdesk_agenda_external_fetch_total", "outcome", "reconnect"); got != 1 {
		t.Errorf("reconnect fetches = %v, want 1", got)
	}
	if got := counterValue(t, reg, "trainerdesk_agenda_external_fetch_total", "provider", "none"); got != 1 {
		t.Errorf("fetches without provider = %v, want 1", got)
	}
	if got := counterValue(t, reg, "trainerdesk_agenda_items_total", "kind", "internal"); got != 3 {
		t.Errorf("internal items = %v, want 3", got)
	}
	if got := counterValue(t, reg, "trainerdesk_agenda_items_total", "kind", "external"); got != 0 {
		t.Errorf("external items = %v, want 0", got)
	}
	if got := counterValue(t, reg, "trainerdesk_agenda_stale_results_dropped_total", "", ""); got != 1 {
		t.Errorf("stale dropped = %v, want 1", got)
	}
}

func TestAgendaMetricsCustomRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewAgendaMetrics(reg)
	m.ObserveBuild("error", 0.1)
	if _, err := reg.Gather(); err != nil {
		t.Fatalf("Gather: %v", err)
	}
}

func TestAgendaMetricsNilSafe(t *testing.T) {
	var m *AgendaMetrics
	m.ObserveBuild("ok", 0.1)
	m.ObserveExternalFetch("ics", "error")
	m.ObserveItems("external", 2)
	m.IncStaleDropped()
	m.IncInverted()
}
