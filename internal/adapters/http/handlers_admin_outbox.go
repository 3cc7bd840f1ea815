package web

import (
	"context"
	"errors"
	"net/http"

	"trainingops/internal/adapters/http/middleware"
	"trainingops/internal/adapters/storage"
	"trainingops/internal/application/orchestrators"
	"trainingops/internal/domain/audit"
	"trainingops/internal/domain/outbox"
)

var outboxStatuses = map[string]bool{
	"":                     true,
	outbox.StatusPending:   true,
	outbox.StatusRetrying:  true,
	outbox.StatusSent:      true,
	outbox.StatusFailed:    true,
	outbox.StatusAbandoned: true,
}

// handleListOutbox handles GET /api/admin/outbox?status=&limit=.
// status defaults to failed; "all" lists every entry.
func handleListOutbox(w http.ResponseWriter, r *http.Request) {
	if stores.OutboxStore == nil {
		http.Error(w, "outbox not configured", http.StatusServiceUnavailable)
		return
	}
	limit, err := intParam(r, "limit", 50)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	status := r.URL.Query().Get("status")
	switch status {
	case "":
		status = outbox.StatusFailed
	case "all":
		status = ""
	}
	if !outboxStatuses[status] {
		http.Error(w, "unknown status", http.StatusBadRequest)
		return
	}

	entries, err := stores.OutboxStore.ListByStatus(r.Context(), status, min(max(limit, 1), 100))
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(entries))
}

// handleRetryOutbox handles POST /api/admin/outbox/{entryID}/retry.
func handleRetryOutbox(w http.ResponseWriter, r *http.Request) {
	outboxAction(w, r, audit.ActionRetry, (*orchestrators.OutboxProcessor).ProcessSingle)
}

// handleAbandonOutbox handles POST /api/admin/outbox/{entryID}/abandon.
func handleAbandonOutbox(w http.ResponseWriter, r *http.Request) {
	outboxAction(w, r, audit.ActionAbandon, (*orchestrators.OutboxProcessor).AbandonEntry)
}

func outboxAction(w http.ResponseWriter, r *http.Request, name audit.Action,
	action func(*orchestrators.OutboxProcessor, context.Context, string) (outbox.Entry, error)) {
	if stores.OutboxStore == nil {
		http.Error(w, "outbox not configured", http.StatusServiceUnavailable)
		return
	}
	processor := orchestrators.NewOutboxProcessor(stores.OutboxStore, emailSender)
	entry, err := action(processor, r.Context(), r.PathValue("entryID"))
	switch {
	case errors.Is(err, storage.ErrNotFound):
		http.Error(w, "outbox entry not found", http.StatusNotFound)
	case errors.Is(err, outbox.ErrTerminal):
		http.Error(w, err.Error(), http.StatusConflict)
	case err != nil:
		internalError(w, err)
	default:
		orchestrators.RecordAudit(r.Context(), stores.AuditStore,
			audit.NewEvent(operatorEmail(r), audit.CategoryOutbox, name).
				WithResource("outbox", entry.ID).
				WithDescription(entry.Subject+": "+entry.Status).
				WithRequest(middleware.ClientIP(r), r.UserAgent()))
		writeJSON(w, http.StatusOK, entry)
	}
}
