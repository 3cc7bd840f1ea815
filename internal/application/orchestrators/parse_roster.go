package orchestrators

import (
	"context"
	"io"
	"log/slog"

	"trainingops/internal/adapters/spreadsheet"
	"trainingops/internal/domain/rosterimport"
)

// ParseRosterInput carries one uploaded roster file.
// PRE: Filename carries the original extension; Reader yields the whole file
type ParseRosterInput struct {
	Filename string
	Reader   io.Reader
}

// ParseRosterDeps holds the parsing limits and normalization options.
type ParseRosterDeps struct {
	Limits  spreadsheet.Limits
	Options rosterimport.Options
}

// ParseRosterResult is the operator preview of an upload.
type ParseRosterResult struct {
	rosterimport.Parsed
	Summary rosterimport.Summary `json:"summary"`
}

// ExecuteParseRoster reads an uploaded sheet and builds the preview candidates.
// PRE: none; boundary checks run before any parsing
// POST: returns spreadsheet.ErrTooLarge / ErrUnsupportedFormat / ErrUnreadable for
// rejected files and *rosterimport.SchemaError when no data rows are found;
// otherwise every data row yields one candidate
// INVARIANT: nothing is written to any store
func ExecuteParseRoster(ctx context.Context, input ParseRosterInput, deps ParseRosterDeps) (ParseRosterResult, error) {
	if err := ctx.Err(); err != nil {
		return ParseRosterResult{}, err
	}
	cells, err := spreadsheet.ReadFrom(input.Reader, input.Filename, deps.Limits)
	if err != nil {
		slog.Warn("roster_parse_rejected", "file", input.Filename, "error", err)
		return ParseRosterResult{}, err
	}

	rows := make([]rosterimport.RawRow, len(cells))
	for i, c := range cells {
		rows[i] = rosterimport.RawRow(c)
	}

	parsed, err := rosterimport.DetectAndParse(rows, deps.Options)
	if err != nil {
		slog.Warn("roster_parse_failed", "file", input.Filename, "rows", len(rows), "error", err)
		return ParseRosterResult{}, err
	}

	result := ParseRosterResult{Parsed: parsed, Summary: rosterimport.Summarize(parsed.Candidates)}
	slog.Info("roster_parse",
		"file", input.Filename,
		"layout", parsed.Layout,
		"header_row", parsed.HeaderRowIndex,
		"candidates", result.Summary.Total,
		"invalid", result.Summary.Invalid,
	)
	return result, nil
}
