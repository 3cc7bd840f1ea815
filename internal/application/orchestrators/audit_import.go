package orchestrators

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"trainingops/internal/domain/audit"
)

// AuditRecorder persists audit events.
type AuditRecorder interface {
	Save(ctx context.Context, e audit.Event) error
}

// ImportAuditEvent builds the audit record for a finished commit.
// POST: severity is warning when any row failed or the run was cancelled
func ImportAuditEvent(operator string, res CommitRosterResult) audit.Event {
	meta, _ := json.Marshal(map[string]any{
		"rows":              len(res.Outcomes),
		"created":           res.Created,
		"matched_existing":  res.MatchedExisting,
		"skipped_duplicate": res.SkippedDuplicate,
		"validation_errors": res.ValidationErrors,
		"failed":            res.Failed,
		"associated":        res.Associated,
		"cancelled":         res.Cancelled,
	})
	e := audit.NewEvent(operator, audit.CategoryRoster, audit.ActionImport).
		WithResource("event", res.EventID).
		WithDescription(fmt.Sprintf("%d rows: %d created, %d matched, %d already on roster, %d invalid, %d failed",
			len(res.Outcomes), res.Created, res.MatchedExisting, res.SkippedDuplicate, res.ValidationErrors, res.Failed)).
		WithMetadata(string(meta))
	if res.Failed > 0 || res.Cancelled {
		e = e.WithSeverity(audit.SeverityWarning)
	}
	return e
}

// RecordAudit saves e when a recorder is configured. Failures are logged, not returned.
func RecordAudit(ctx context.Context, recorder AuditRecorder, e audit.Event) {
	if recorder == nil {
		return
	}
	if err := recorder.Save(ctx, e); err != nil {
		slog.Warn("audit_record_failed", "category", e.Category, "action", e.Action, "resource_id", e.ResourceID, "error", err)
	}
}
