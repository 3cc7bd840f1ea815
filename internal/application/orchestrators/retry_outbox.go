package orchestrators

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	emailAdapter "trainingops/internal/adapters/email"
	domain "trainingops/internal/domain/outbox"
)

// OutboxStore is the persistence the outbox processor needs.
type OutboxStore interface {
	GetByID(ctx context.Context, id string) (domain.Entry, error)
	Save(ctx context.Context, e domain.Entry) error
	ListDue(ctx context.Context, now time.Time, limit int) ([]domain.Entry, error)
}

// EnqueueImportReportDeps holds dependencies for ExecuteEnqueueImportReport.
type EnqueueImportReportDeps struct {
	Outbox     OutboxStore
	From       string
	GenerateID func() string
	Now        func() time.Time
}

// ExecuteEnqueueImportReport renders the operator's import report and queues it for delivery.
// PRE: Input.Operator is an email address
// POST: one pending outbox entry holds the rendered message
func ExecuteEnqueueImportReport(ctx context.Context, input SendImportReportInput, deps EnqueueImportReportDeps) (domain.Entry, error) {
	if deps.GenerateID == nil {
		deps.GenerateID = uuid.NewString
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	msg, err := BuildImportReport(input, deps.From)
	if err != nil {
		return domain.Entry{}, err
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return domain.Entry{}, fmt.Errorf("encode import report: %w", err)
	}

	entry := domain.Entry{
		ID:         deps.GenerateID(),
		ActionType: domain.ActionImportReport,
		Payload:    string(payload),
		Subject:    msg.Subject,
		CreatedAt:  deps.Now().UTC(),
	}
	if err := entry.Validate(); err != nil {
		return domain.Entry{}, err
	}
	if err := deps.Outbox.Save(ctx, entry); err != nil {
		return domain.Entry{}, fmt.Errorf("queue import report: %w", err)
	}
	slog.Info("import_report_queued", "entry_id", entry.ID, "event_id", input.Result.EventID, "to", msg.To[0])
	return entry, nil
}

// OutboxProcessor delivers queued messages with exponential backoff.
type OutboxProcessor struct {
	store     OutboxStore
	sender    emailAdapter.Sender
	baseDelay time.Duration
	maxDelay  time.Duration
	batchSize int
	now       func() time.Time
}

// NewOutboxProcessor creates a new outbox processor.
func NewOutboxProcessor(store OutboxStore, sender emailAdapter.Sender) *OutboxProcessor {
	return &OutboxProcessor{
		store:     store,
		sender:    sender,
		baseDelay: 30 * time.Second,
		maxDelay:  1 * time.Hour,
		batchSize: 10,
		now:       time.Now,
	}
}

// ProcessPending attempts every entry that is due.
// PRE: Context is valid
// POST: due entries are attempted once; returns how many were delivered
func (p *OutboxProcessor) ProcessPending(ctx context.Context) (int, error) {
	entries, err := p.store.ListDue(ctx, p.now(), p.batchSize)
	if err != nil {
		return 0, fmt.Errorf("list due outbox entries: %w", err)
	}

	delivered := 0
	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		entry, err := p.attempt(ctx, entry)
		if err != nil {
			slog.Error("outbox_process_failed", "entry_id", entry.ID, "action_type", entry.ActionType, "error", err)
			continue
		}
		if entry.Status == domain.StatusSent {
			delivered++
		}
	}
	return delivered, nil
}

// ProcessSingle attempts one entry immediately, ignoring its backoff window.
// PRE: entryID is non-empty
// POST: returns domain.ErrTerminal for sent or abandoned entries; the stored entry reflects the attempt
func (p *OutboxProcessor) ProcessSingle(ctx context.Context, entryID string) (domain.Entry, error) {
	entry, err := p.store.GetByID(ctx, entryID)
	if err != nil {
		return domain.Entry{}, fmt.Errorf("get outbox entry: %w", err)
	}
	if entry.Status == domain.StatusSent || entry.Status == domain.StatusAbandoned {
		return entry, fmt.Errorf("entry %s: %w", entryID, domain.ErrTerminal)
	}
	if entry.Attempts >= entry.MaxAttempts {
		// A manual retry grants one more attempt.
		entry.MaxAttempts = entry.Attempts + 1
	}
	return p.attempt(ctx, entry)
}

// AbandonEntry marks an entry as abandoned.
// PRE: entryID is non-empty
// POST: Entry status set to abandoned; sent entries return domain.ErrTerminal
func (p *OutboxProcessor) AbandonEntry(ctx context.Context, entryID string) (domain.Entry, error) {
	entry, err := p.store.GetByID(ctx, entryID)
	if err != nil {
		return domain.Entry{}, fmt.Errorf("get outbox entry: %w", err)
	}
	if err := entry.MarkAbandoned(); err != nil {
		return entry, fmt.Errorf("entry %s: %w", entryID, err)
	}
	slog.Info("outbox_entry_abandoned", "entry_id", entry.ID)
	return entry, p.store.Save(ctx, entry)
}

// attempt runs one delivery and persists the outcome. The returned error is
// only for persistence failures; delivery failures are recorded on the entry.
func (p *OutboxProcessor) attempt(ctx context.Context, entry domain.Entry) (domain.Entry, error) {
	entry.MarkAttempt(p.now())
	externalID, err := p.execute(ctx, entry)
	if err != nil {
		entry.MarkFailed(err, p.baseDelay, p.maxDelay)
		slog.Warn("outbox_action_failed", "entry_id", entry.ID, "attempt", entry.Attempts, "status", entry.Status, "error", err)
	} else {
		entry.MarkSuccess(externalID)
		slog.Info("outbox_action_succeeded", "entry_id", entry.ID, "action_type", entry.ActionType, "external_id", externalID)
	}
	return entry, p.store.Save(ctx, entry)
}

func (p *OutboxProcessor) execute(ctx context.Context, entry domain.Entry) (string, error) {
	switch entry.ActionType {
	case domain.ActionImportReport:
		if p.sender == nil {
			return "", errors.New("no email sender configured")
		}
		var msg emailAdapter.Message
		if err := json.Unmarshal([]byte(entry.Payload), &msg); err != nil {
			return "", fmt.Errorf("unmarshal payload: %w", err)
		}
		receipt, err := p.sender.Send(ctx, msg)
		if err != nil {
			return "", err
		}
		return receipt.MessageID, nil
	}
	return "", fmt.Errorf("no executor registered for action type: %s", entry.ActionType)
}

// StartBackgroundWorker starts a background goroutine that periodically processes due outbox entries.
// PRE: stopCh is provided to signal shutdown
// POST: Worker runs until stopCh is closed
func StartBackgroundWorker(processor *OutboxProcessor, interval time.Duration, stopCh <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
				if _, err := processor.ProcessPending(ctx); err != nil {
					slog.Error("outbox_background_process_failed", "error", err)
				}
				cancel()
			case <-stopCh:
				slog.Info("outbox_background_worker_stopped")
				return
			}
		}
	}()
}
