package rosterimport

import (
	"errors"
	"fmt"
)

// ErrEmptySheet is the reason carried by a SchemaError when no data rows follow the header.
var ErrEmptySheet = errors.New("sheet has no data rows")

// ErrNoRows is the reason carried by a SchemaError when the sheet has no rows at all.
var ErrNoRows = errors.New("sheet is empty")

// SchemaError aborts a whole import before preview.
type SchemaError struct {
	Layout Layout
	Reason error
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	if e.Layout == "" {
		return fmt.Sprintf("roster schema: %v", e.Reason)
	}
	return fmt.Sprintf("roster schema (%s layout): %v", e.Layout, e.Reason)
}

// Unwrap exposes the underlying reason for errors.Is.
func (e *SchemaError) Unwrap() error {
	return e.Reason
}

// RowValidationError describes why a single row cannot be committed.
// It is surfaced in the preview and never aborts the import.
type RowValidationError struct {
	Row     int
	Message string
}

// Error implements the error interface.
func (e *RowValidationError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}
