package web

import (
	"net/http"
	"time"

	auditStore "trainingops/internal/adapters/storage/audit"
	"trainingops/internal/domain/audit"
)

// handleListAudit handles GET /api/admin/audit.
// Filters: category, action, actor, resource_id, from, to (YYYY-MM-DD), limit.
func handleListAudit(w http.ResponseWriter, r *http.Request) {
	if stores.AuditStore == nil {
		http.Error(w, "audit trail not configured", http.StatusServiceUnavailable)
		return
	}
	q := r.URL.Query()
	filter := auditStore.Filter{
		Category:   audit.Category(q.Get("category")),
		Action:     audit.Action(q.Get("action")),
		ActorEmail: q.Get("actor"),
		ResourceID: q.Get("resource_id"),
		From:       q.Get("from"),
		To:         q.Get("to"),
	}
	for _, d := range []string{filter.From, filter.To} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(dateLayout, d); err != nil {
			http.Error(w, "dates must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
	}
	limit, err := intParam(r, "limit", 100)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	events, err := stores.AuditStore.List(r.Context(), filter, min(max(limit, 1), 1000))
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(events))
}
