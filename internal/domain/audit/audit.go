package audit

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Category represents the type of audit event.
type Category string

const (
	CategoryRoster Category = "roster"
	CategoryOutbox Category = "outbox"
)

// Action represents the action that occurred.
type Action string

const (
	ActionImport  Action = "import"
	ActionRetry   Action = "retry"
	ActionAbandon Action = "abandon"
)

// Severity represents the severity level of an audit event.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// Event represents a single audit log entry.
type Event struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Category     Category  `json:"category"`
	Action       Action    `json:"action"`
	Severity     Severity  `json:"severity"`
	ActorEmail   string    `json:"actor_email,omitempty"`
	ResourceType string    `json:"resource_type,omitempty"`
	ResourceID   string    `json:"resource_id,omitempty"`
	Description  string    `json:"description"`
	IPAddress    string    `json:"ip_address,omitempty"`
	UserAgent    string    `json:"user_agent,omitempty"`
	Metadata     string    `json:"metadata,omitempty"` // JSON
}

// ErrIncomplete is returned by Validate for events missing their identity fields.
var ErrIncomplete = errors.New("audit event needs an id, timestamp, category and action")

// NewEvent creates a new audit event with the current timestamp.
// PRE: category and action are non-empty; actorEmail may be empty for anonymous callers
// POST: Returns an info-level Event with a fresh ID
func NewEvent(actorEmail string, category Category, action Action) Event {
	return Event{
		ID:         uuid.NewString(),
		Timestamp:  time.Now().UTC(),
		Category:   category,
		Action:     action,
		Severity:   SeverityInfo,
		ActorEmail: actorEmail,
	}
}

// Validate checks that the event can be stored.
func (e Event) Validate() error {
	if e.ID == "" || e.Timestamp.IsZero() || e.Category == "" || e.Action == "" {
		return ErrIncomplete
	}
	return nil
}

// WithSeverity sets the severity level.
func (e Event) WithSeverity(s Severity) Event {
	e.Severity = s
	return e
}

// WithResource sets resource information.
func (e Event) WithResource(resourceType, resourceID string) Event {
	e.ResourceType = resourceType
	e.ResourceID = resourceID
	return e
}

// WithDescription sets the event description.
func (e Event) WithDescription(desc string) Event {
	e.Description = desc
	return e
}

// WithRequest sets IP address and user agent from HTTP request.
func (e Event) WithRequest(ipAddress, userAgent string) Event {
	e.IPAddress = ipAddress
	e.UserAgent = userAgent
	return e
}

// WithMetadata sets optional JSON metadata.
// PRE: metadata is valid JSON or empty
func (e Event) WithMetadata(metadata string) Event {
	e.Metadata = metadata
	return e
}
