package orchestrators

import (
	"context"
	"strings"
	"testing"

	emailAdapter "trainingops/internal/adapters/email"
)

func reportFixture() CommitRosterResult {
	return CommitRosterResult{
		EventID: "e1",
		Outcomes: []RosterOutcome{
			{Row: 2, FullName: "Ivanov I.I.", Outcome: OutcomeCreated},
			{Row: 3, FullName: "", Outcome: OutcomeValidationError, Reason: "full name is required"},
			{Row: 4, FullName: "<b>Petrov|P</b>", Outcome: OutcomeFailed, Reason: "row 4: lookup: database is locked"},
		},
		Created:          1,
		ValidationErrors: 1,
		Failed:           1,
	}
}

// TestRenderImportReport verifies totals and the problem table.
func TestRenderImportReport(t *testing.T) {
	md := RenderImportReport("Wave 1", reportFixture())
	for _, want := range []string{
		"# Roster import: Wave 1",
		"- Created: 1",
		"- Failed: 1",
		"| 3 |  | validation_error | full name is required |",
		"&lt;b&gt;Petrov\\|P&lt;/b&gt;",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("report missing %q:\n%s", want, md)
		}
	}
	if strings.Contains(md, "Ivanov") {
		t.Error("clean rows should not be listed")
	}

	clean := RenderImportReport("", CommitRosterResult{EventID: "e9", Created: 2})
	if !strings.Contains(clean, "# Roster import: e9") || !strings.Contains(clean, "All rows were imported.") {
		t.Errorf("clean report = %s", clean)
	}
}

// TestSendImportReport verifies the message sent to the operator.
// PRE: noop sender; result with two problem rows.
// POST: one message to the operator with an HTML table and the markdown text part.
func TestSendImportReport(t *testing.T) {
	sender := emailAdapter.NewNoopSender()
	_, err := ExecuteSendImportReport(context.Background(),
		SendImportReportInput{Operator: "ops@x.com", EventTitle: "Wave 1", Result: reportFixture()},
		SendImportReportDeps{Sender: sender, From: "noreply@x.com"},
	)
	if err != nil {
		t.Fatalf("ExecuteSendImportReport: %v", err)
	}
	sent := sender.Sent()
	if len(sent) != 1 {
		t.Fatalf("sent = %d, want 1", len(sent))
	}
	msg := sent[0]
	if msg.To[0] != "ops@x.com" || msg.Subject != "Roster import: Wave 1" || msg.From != "noreply@x.com" {
		t.Errorf("message = %+v", msg)
	}
	if !strings.Contains(msg.HTML, "<table>") || strings.Contains(msg.HTML, "<b>Petrov") {
		t.Errorf("html = %s", msg.HTML)
	}
	if !strings.HasPrefix(msg.Text, "# Roster import") {
		t.Errorf("text = %q", msg.Text)
	}
}

func TestSendImportReport_NoAddress(t *testing.T) {
	_, err := ExecuteSendImportReport(context.Background(),
		SendImportReportInput{Operator: "cli"},
		SendImportReportDeps{Sender: emailAdapter.NewNoopSender()},
	)
	if err == nil {
		t.Error("expected error for operator without an address")
	}
}
