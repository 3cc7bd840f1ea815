// Package email delivers operator notifications such as import reports.
package email

import (
	"context"
	"errors"
	"time"
)

// ErrNoRecipients is returned when a message has nobody to go to.
var ErrNoRecipients = errors.New("email has no recipients")

// Message is one outgoing notification. It is stored as JSON while queued.
type Message struct {
	To      []string          `json:"to"`
	From    string            `json:"from,omitempty"` // falls back to the sender's default when empty
	Subject string            `json:"subject"`
	HTML    string            `json:"html,omitempty"`
	Text    string            `json:"text,omitempty"` // plain-text alternative
	ReplyTo string            `json:"reply_to,omitempty"`
	Tags    map[string]string `json:"tags,omitempty"`
}

// Receipt is the provider's acknowledgement of a send.
type Receipt struct {
	MessageID string
	SentAt    time.Time
}

// Sender delivers messages through an external provider.
type Sender interface {
	Send(ctx context.Context, msg Message) (Receipt, error)
}
