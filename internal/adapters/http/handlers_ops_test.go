package web

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"trainerdesk/internal/adapters/http/perf"
)

func TestHealth(t *testing.T) {
	app := newTestApp(t)
	rec, body := get(t, app.handler, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", rec.Code)
	}
	if strings.TrimSpace(body) != `{"status":"ok"}` {
		t.Errorf("body = %q", body)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	app := newTestApp(t)
	get(t, app.handler, "/calendar")

	rec, body := get(t, app.handler, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /metrics = %d", rec.Code)
	}
	for _, want := range []string{
		"trainerdesk_agenda_build_latency_seconds",
		"trainerdesk_agenda_items_total",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %s", want)
		}
	}
}

func TestPerfEndpoint(t *testing.T) {
	app := newTestApp(t)
	get(t, app.handler, "/health")
	get(t, app.handler, "/calendar")

	rec, body := get(t, app.handler, "/api/perf?minutes=5&top=3")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/perf = %d", rec.Code)
	}
	var snap perf.Snapshot
	if err := json.Unmarshal([]byte(body), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.TotalRecorded < 2 {
		t.Errorf("TotalRecorded = %d, want at least 2", snap.TotalRecorded)
	}
	if app.collector.TotalRecorded() < 2 {
		t.Errorf("collector recorded %d requests", app.collector.TotalRecorded())
	}
}
