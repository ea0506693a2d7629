package web

import (
	"net/http"
	"strconv"
	"time"

	"trainerdesk/internal/adapters/http/perf"
)

// handleHealth reports liveness.
func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handlePerf returns the request, query and external fetch timing snapshot.
// ?minutes= bounds the window (default 15) and ?top= the list length.
func handlePerf(w http.ResponseWriter, r *http.Request) {
	minutes := 15
	if v, err := strconv.Atoi(r.URL.Query().Get("minutes")); err == nil && v > 0 {
		minutes = v
	}
	top := perf.DefaultTopN
	if v, err := strconv.Atoi(r.URL.Query().Get("top")); err == nil && v > 0 {
		top = v
	}
	snap := perfCollector.Snapshot(timeNow().Add(-time.Duration(minutes)*time.Minute), top)
	writeJSON(w, http.StatusOK, snap)
}
