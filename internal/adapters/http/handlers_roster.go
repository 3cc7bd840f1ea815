package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"trainingops/internal/adapters/http/middleware"
	"trainingops/internal/adapters/spreadsheet"
	"trainingops/internal/application/orchestrators"
	"trainingops/internal/domain/outbox"
	"trainingops/internal/domain/rosterimport"
)

// multipartOverhead is allowed on top of the file cap for form boundaries and headers.
const multipartOverhead = 1 << 20

func uploadLimit() int64 {
	if settings.MaxUploadBytes > 0 {
		return settings.MaxUploadBytes
	}
	return spreadsheet.DefaultMaxBytes
}

func importOptions() rosterimport.Options {
	return rosterimport.Options{SyntheticEmailDomain: settings.SyntheticEmailDomain}
}

type candidatesRequest struct {
	Candidates     []rosterimport.Candidate `json:"candidates"`
	NotifyOperator bool                     `json:"notify_operator,omitempty"`
}

type commitResponse struct {
	orchestrators.CommitRosterResult
	ReportID string `json:"report_id,omitempty"`
}

type previewResponse struct {
	EventID string `json:"event_id"`
	orchestrators.ParseRosterResult
}

// handleRosterPreview handles POST /api/events/{eventID}/roster/import/preview.
// The upload is a multipart form with the sheet in field "file".
func handleRosterPreview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eventID := r.PathValue("eventID")
	if _, err := stores.EventStore.GetByID(ctx, eventID); err != nil {
		notFoundOr(w, err, "event")
		return
	}

	limit := uploadLimit()
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			http.Error(w, spreadsheet.ErrTooLarge.Error(), http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, `multipart field "file" is required`, http.StatusBadRequest)
		return
	}
	defer file.Close()

	res, err := orchestrators.ExecuteParseRoster(ctx,
		orchestrators.ParseRosterInput{Filename: header.Filename, Reader: file},
		orchestrators.ParseRosterDeps{Limits: spreadsheet.Limits{MaxBytes: limit}, Options: importOptions()},
	)
	if err != nil {
		writeParseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, previewResponse{EventID: eventID, ParseRosterResult: res})
}

func writeParseError(w http.ResponseWriter, err error) {
	var schemaErr *rosterimport.SchemaError
	switch {
	case errors.Is(err, spreadsheet.ErrTooLarge):
		http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
	case errors.Is(err, spreadsheet.ErrUnsupportedFormat):
		http.Error(w, err.Error(), http.StatusUnsupportedMediaType)
	case errors.Is(err, spreadsheet.ErrUnreadable):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &schemaErr):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		internalError(w, err)
	}
}

// handleRosterPrecheck handles POST /api/events/{eventID}/roster/import/precheck.
func handleRosterPrecheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, err := stores.EventStore.GetByID(ctx, r.PathValue("eventID")); err != nil {
		notFoundOr(w, err, "event")
		return
	}
	var req candidatesRequest
	if err := strictDecode(w, r, &req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	res, err := orchestrators.ExecutePrecheckRoster(ctx,
		orchestrators.PrecheckRosterInput{Candidates: req.Candidates},
		orchestrators.PrecheckRosterDeps{Directory: stores.PersonStore, Options: importOptions()},
	)
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleRosterCommit handles POST /api/events/{eventID}/roster/import/commit.
// Per-row failures are reported in the body with status 200.
func handleRosterCommit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eventID := r.PathValue("eventID")
	ev, err := stores.EventStore.GetByID(ctx, eventID)
	if err != nil {
		notFoundOr(w, err, "event")
		return
	}
	var req candidatesRequest
	if err := strictDecode(w, r, &req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if len(req.Candidates) == 0 {
		http.Error(w, "no candidates to commit", http.StatusBadRequest)
		return
	}

	operator := operatorEmail(r)
	res, err := orchestrators.ExecuteCommitRoster(ctx,
		orchestrators.CommitRosterInput{EventID: eventID, Candidates: req.Candidates, Operator: operator},
		orchestrators.CommitRosterDeps{
			Directory:  stores.PersonStore,
			References: stores.ReferenceStore,
			Roster:     stores.RosterStore,
			Options:    importOptions(),
			Perf:       perfCollector,
		},
	)
	switch {
	case errors.Is(err, orchestrators.ErrEventRequired):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, orchestrators.ErrEventNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	case err != nil:
		internalError(w, err)
		return
	}

	orchestrators.RecordAudit(context.WithoutCancel(ctx), stores.AuditStore,
		orchestrators.ImportAuditEvent(operator, res).WithRequest(middleware.ClientIP(r), r.UserAgent()))

	resp := commitResponse{CommitRosterResult: res}
	if req.NotifyOperator && operator != "" {
		resp.ReportID = queueImportReport(context.WithoutCancel(ctx), operator, ev.Title, res)
	}
	writeJSON(w, http.StatusOK, resp)
}

// queueImportReport stores the operator's report and makes one immediate
// delivery attempt; the outbox worker retries failures. The commit has already
// happened, so errors are only logged.
func queueImportReport(ctx context.Context, operator, title string, res orchestrators.CommitRosterResult) string {
	if stores.OutboxStore == nil {
		return ""
	}
	entry, err := orchestrators.ExecuteEnqueueImportReport(ctx,
		orchestrators.SendImportReportInput{Operator: operator, EventTitle: title, Result: res},
		orchestrators.EnqueueImportReportDeps{Outbox: stores.OutboxStore, From: emailFromAddress},
	)
	if err != nil {
		slog.Warn("import_report_skipped", "event_id", res.EventID, "error", err)
		return ""
	}
	attempted, err := orchestrators.NewOutboxProcessor(stores.OutboxStore, emailSender).ProcessSingle(ctx, entry.ID)
	if err != nil {
		slog.Warn("import_report_deferred", "entry_id", entry.ID, "error", err)
	} else if attempted.Status != outbox.StatusSent {
		slog.Warn("import_report_deferred", "entry_id", entry.ID, "error", attempted.ErrorMessage)
	}
	return entry.ID
}

// handleListRoster handles GET /api/events/{eventID}/roster.
func handleListRoster(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eventID := r.PathValue("eventID")
	if _, err := stores.EventStore.GetByID(ctx, eventID); err != nil {
		notFoundOr(w, err, "event")
		return
	}
	members, err := stores.RosterStore.ListByEvent(ctx, eventID)
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"event_id": eventID,
		"count":    len(members),
		"members":  nonNil(members),
	})
}

// nonNil keeps empty lists encoding as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
