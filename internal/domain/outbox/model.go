package outbox

import (
	"errors"
	"time"
)

// Status constants for outbox entry lifecycle.
const (
	StatusPending   = "pending"
	StatusRetrying  = "retrying"
	StatusSent      = "sent"
	StatusFailed    = "failed"
	StatusAbandoned = "abandoned"
)

// ActionImportReport delivers a roster import report to its operator.
const ActionImportReport = "import_report"

// DefaultMaxAttempts applies when an entry is saved without a limit.
const DefaultMaxAttempts = 5

// Domain errors.
var (
	ErrEmptyActionType = errors.New("action type is required")
	ErrEmptyPayload    = errors.New("payload is required")
	ErrTerminal        = errors.New("entry is in a terminal state")
)

// Entry is one queued outbound delivery.
type Entry struct {
	ID              string    `json:"id"`
	ActionType      string    `json:"action_type"`
	Payload         string    `json:"-"` // JSON replayed by the executor
	Subject         string    `json:"subject,omitempty"`
	Status          string    `json:"status"`
	Attempts        int       `json:"attempts"`
	MaxAttempts     int       `json:"max_attempts"`
	LastAttemptedAt time.Time `json:"last_attempted_at,omitzero"`
	NextAttemptAt   time.Time `json:"next_attempt_at,omitzero"`
	CreatedAt       time.Time `json:"created_at"`
	ExternalID      string    `json:"external_id,omitempty"` // provider message ID once sent
	ErrorMessage    string    `json:"error_message,omitempty"`
}

// Validate checks that the Entry has valid data.
// PRE: Entry struct is populated
// POST: Returns nil if valid; fills Status and MaxAttempts defaults
func (e *Entry) Validate() error {
	if e.ActionType == "" {
		return ErrEmptyActionType
	}
	if e.Payload == "" {
		return ErrEmptyPayload
	}
	if e.CreatedAt.IsZero() {
		return errors.New("created_at must be set")
	}
	if e.MaxAttempts <= 0 {
		e.MaxAttempts = DefaultMaxAttempts
	}
	if e.Status == "" {
		e.Status = StatusPending
	}
	return nil
}

// IsTerminal reports whether no further delivery will be attempted.
func (e *Entry) IsTerminal() bool {
	switch e.Status {
	case StatusSent, StatusAbandoned:
		return true
	case StatusFailed:
		return e.Attempts >= e.MaxAttempts
	}
	return false
}

// Due reports whether the background worker should attempt the entry at now.
func (e *Entry) Due(now time.Time) bool {
	if e.Status != StatusPending && e.Status != StatusRetrying {
		return false
	}
	return e.NextAttemptAt.IsZero() || !now.Before(e.NextAttemptAt)
}

// MarkAttempt records the start of a delivery attempt.
// POST: Attempts incremented, LastAttemptedAt = now, status retrying
func (e *Entry) MarkAttempt(now time.Time) {
	e.Attempts++
	e.LastAttemptedAt = now
	e.Status = StatusRetrying
}

// MarkSuccess marks the entry as delivered.
func (e *Entry) MarkSuccess(externalID string) {
	e.Status = StatusSent
	e.ExternalID = externalID
	e.ErrorMessage = ""
	e.NextAttemptAt = time.Time{}
}

// MarkFailed records a failed attempt and schedules the next one.
// PRE: MarkAttempt was called for this attempt
// POST: status failed once Attempts reaches MaxAttempts, otherwise NextAttemptAt
// is pushed back by NextRetryDelay
func (e *Entry) MarkFailed(err error, baseDelay, maxDelay time.Duration) {
	e.ErrorMessage = err.Error()
	if e.Attempts >= e.MaxAttempts {
		e.Status = StatusFailed
		e.NextAttemptAt = time.Time{}
		return
	}
	e.NextAttemptAt = e.LastAttemptedAt.Add(e.NextRetryDelay(baseDelay, maxDelay))
}

// MarkAbandoned stops further delivery.
// POST: returns ErrTerminal for sent entries
func (e *Entry) MarkAbandoned() error {
	if e.Status == StatusSent {
		return ErrTerminal
	}
	e.Status = StatusAbandoned
	e.NextAttemptAt = time.Time{}
	return nil
}

// NextRetryDelay calculates the delay before the next retry attempt.
// Uses exponential backoff: 2^(attempts-1) * baseDelay, capped at maxDelay.
func (e *Entry) NextRetryDelay(baseDelay time.Duration, maxDelay time.Duration) time.Duration {
	n := max(e.Attempts-1, 0)
	if n > 30 {
		return maxDelay
	}
	delay := baseDelay * (1 << n)
	if delay > maxDelay || delay <= 0 {
		return maxDelay
	}
	return delay
}
