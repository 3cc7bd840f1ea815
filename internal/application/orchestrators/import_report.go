package orchestrators

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	emailAdapter "trainingops/internal/adapters/email"
)

// reportRenderer renders GFM tables. Raw HTML is dropped since WithUnsafe is not set.
var reportRenderer = goldmark.New(goldmark.WithExtensions(extension.Table))

// SendImportReportInput carries a finished commit to summarize for its operator.
type SendImportReportInput struct {
	Operator   string // recipient address
	EventTitle string
	Result     CommitRosterResult
}

// SendImportReportDeps holds dependencies for ExecuteSendImportReport.
type SendImportReportDeps struct {
	Sender emailAdapter.Sender
	From   string
}

// BuildImportReport renders the operator's report message for a finished commit.
// PRE: Input.Operator is an email address
// POST: the markdown body doubles as the text part
func BuildImportReport(input SendImportReportInput, from string) (emailAdapter.Message, error) {
	to := strings.TrimSpace(input.Operator)
	if !strings.Contains(to, "@") {
		return emailAdapter.Message{}, fmt.Errorf("operator %q has no email address", input.Operator)
	}

	md := RenderImportReport(input.EventTitle, input.Result)
	var html bytes.Buffer
	if err := reportRenderer.Convert([]byte(md), &html); err != nil {
		return emailAdapter.Message{}, fmt.Errorf("render import report: %w", err)
	}

	title := input.EventTitle
	if title == "" {
		title = input.Result.EventID
	}
	return emailAdapter.Message{
		To:      []string{to},
		From:    from,
		Subject: "Roster import: " + title,
		HTML:    html.String(),
		Text:    md,
		Tags:    map[string]string{"category": "roster_import"},
	}, nil
}

// ExecuteSendImportReport mails the operator a table of the rows that did not
// import cleanly along with the totals.
// PRE: Input.Operator is an email address
// POST: one message is sent
func ExecuteSendImportReport(ctx context.Context, input SendImportReportInput, deps SendImportReportDeps) (emailAdapter.Receipt, error) {
	if deps.Sender == nil {
		return emailAdapter.Receipt{}, errors.New("no email sender configured")
	}
	msg, err := BuildImportReport(input, deps.From)
	if err != nil {
		return emailAdapter.Receipt{}, err
	}
	receipt, err := deps.Sender.Send(ctx, msg)
	if err != nil {
		slog.Error("import_report_send_failed", "event_id", input.Result.EventID, "to", msg.To[0], "error", err)
		return emailAdapter.Receipt{}, err
	}
	slog.Info("import_report_sent", "event_id", input.Result.EventID, "to", msg.To[0], "message_id", receipt.MessageID)
	return receipt, nil
}

// RenderImportReport formats a commit result as markdown.
func RenderImportReport(eventTitle string, r CommitRosterResult) string {
	var b strings.Builder
	title := eventTitle
	if title == "" {
		title = r.EventID
	}
	fmt.Fprintf(&b, "# Roster import: %s\n\n", mdEscape(title))
	if r.Cancelled {
		b.WriteString("**The import was cancelled before all rows were processed.**\n\n")
	}
	fmt.Fprintf(&b, "- Created: %d\n", r.Created)
	fmt.Fprintf(&b, "- Matched existing: %d\n", r.MatchedExisting)
	fmt.Fprintf(&b, "- Already on roster: %d\n", r.SkippedDuplicate)
	fmt.Fprintf(&b, "- Validation errors: %d\n", r.ValidationErrors)
	fmt.Fprintf(&b, "- Failed: %d\n", r.Failed)

	var problems []RosterOutcome
	for _, o := range r.Outcomes {
		if o.Outcome == OutcomeValidationError || o.Outcome == OutcomeFailed {
			problems = append(problems, o)
		}
	}
	if len(problems) == 0 {
		b.WriteString("\nAll rows were imported.\n")
		return b.String()
	}

	b.WriteString("\n| Row | Name | Outcome | Reason |\n|---|---|---|---|\n")
	for _, o := range problems {
		fmt.Fprintf(&b, "| %d | %s | %s | %s |\n", o.Row, mdEscape(o.FullName), o.Outcome, mdEscape(o.Reason))
	}
	return b.String()
}

var mdReplacer = strings.NewReplacer(
	"\\", "\\\\",
	"|", "\\|",
	"*", "\\*",
	"_", "\\_",
	"`", "\\`",
	"[", "\\[",
	"]", "\\]",
	"<", "&lt;",
	">", "&gt;",
	"\n", " ",
)

func mdEscape(s string) string {
	return mdReplacer.Replace(s)
}
