package event

import (
	"strings"
	"testing"
	"time"
)

// TestEvent_Validate tests Event validation rules.
func TestEvent_Validate(t *testing.T) {
	valid := Event{
		ID:        "e1",
		Title:     "Product training, wave 3",
		Kind:      KindTraining,
		StartDate: time.Now(),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid event, got: %v", err)
	}

	tests := []struct {
		name    string
		modify  func(e *Event)
		wantErr string
	}{
		{"empty title", func(e *Event) { e.Title = "" }, "title cannot be empty"},
		{"title too long", func(e *Event) { e.Title = strings.Repeat("x", MaxTitleLength+1) }, "title cannot exceed"},
		{"invalid kind", func(e *Event) { e.Kind = "party" }, "kind must be"},
		{"missing start date", func(e *Event) { e.StartDate = time.Time{} }, "start date is required"},
		{"end before start", func(e *Event) { e.EndDate = e.StartDate.Add(-time.Hour) }, "end date cannot be before"},
		{"description too long", func(e *Event) { e.Description = strings.Repeat("x", MaxDescriptionLength+1) }, "description cannot exceed"},
		{"location too long", func(e *Event) { e.Location = strings.Repeat("x", MaxLocationLength+1) }, "location cannot exceed"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := valid
			tc.modify(&e)
			err := e.Validate()
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tc.wantErr)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err, tc.wantErr)
			}
		})
	}
}

// TestEvent_IsMultiDay tests the multi-day check.
func TestEvent_IsMultiDay(t *testing.T) {
	now := time.Date(2026, 10, 5, 9, 0, 0, 0, time.UTC)

	if (&Event{StartDate: now}).IsMultiDay() {
		t.Fatal("event without end date should not be multi-day")
	}
	if (&Event{StartDate: now, EndDate: now.Add(2 * time.Hour)}).IsMultiDay() {
		t.Fatal("same-day event should not be multi-day")
	}
	if !(&Event{StartDate: now, EndDate: now.Add(48 * time.Hour)}).IsMultiDay() {
		t.Fatal("multi-day event should be multi-day")
	}
}
