package web

import (
	"net/http"
	"time"
)

// handleAdminPerf handles GET /api/admin/perf?window=1h&top=10.
// It reports request percentiles, the slowest routes and queries, and roster
// commit throughput recorded since now minus window.
func handleAdminPerf(w http.ResponseWriter, r *http.Request) {
	window := time.Hour
	if v := r.URL.Query().Get("window"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			http.Error(w, "invalid window (e.g. 15m, 24h)", http.StatusBadRequest)
			return
		}
		window = d
	}
	top, err := intParam(r, "top", 10)
	if err != nil || top == 0 {
		http.Error(w, "invalid top", http.StatusBadRequest)
		return
	}
	if perfCollector == nil {
		http.Error(w, "performance collection is disabled", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, perfCollector.Snapshot(time.Now().Add(-window), top))
}
