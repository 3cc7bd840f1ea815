package orchestrators

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"trainingops/internal/adapters/spreadsheet"
	"trainingops/internal/domain/rosterimport"
)

// TestParseRoster_CSV verifies the scenario sheet through the whole read path.
// PRE: semicolon CSV with a header and two rows, the second missing its name.
// POST: generic layout; candidate 1 new, candidate 2 error; summary 2/1/1.
func TestParseRoster_CSV(t *testing.T) {
	csv := "ФИО;Email\nIvanov I.I.;i@x.com\n;j@x.com\n"
	res, err := ExecuteParseRoster(context.Background(),
		ParseRosterInput{Filename: "wave1.csv", Reader: strings.NewReader(csv)},
		ParseRosterDeps{},
	)
	if err != nil {
		t.Fatalf("ExecuteParseRoster: %v", err)
	}
	if res.Layout != rosterimport.LayoutGeneric || len(res.Candidates) != 2 {
		t.Fatalf("result = %+v", res)
	}
	if res.Candidates[0].Status != rosterimport.StatusNew || res.Candidates[1].Status != rosterimport.StatusError {
		t.Errorf("statuses = %s/%s", res.Candidates[0].Status, res.Candidates[1].Status)
	}
	if res.Summary.Total != 2 || res.Summary.New != 1 || res.Summary.Invalid != 1 {
		t.Errorf("summary = %+v", res.Summary)
	}
}

// TestParseRoster_XLSXSpecialized verifies numeric cells and the synthetic address.
// PRE: personnel-list workbook: title row with the marker, header row, one data row.
// POST: identifier "50161090", email "50161090@corp.example", approval status kept.
func TestParseRoster_XLSXSpecialized(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheetRows := [][]any{
		{"Список сотрудников для обучения"},
		{},
		{"№", "ФИО", "Таб. номер", "Должность", "Территория", "Стаж", "Email", "Телефон", "Статус"},
		{1, "Petrov P.P.", 50161090, "Sales Rep", "Branch-A", 129, "", "+7900", "Approved"},
	}
	for i, r := range sheetRows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		row := r
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}

	res, err := ExecuteParseRoster(context.Background(),
		ParseRosterInput{Filename: "list.xlsx", Reader: bytes.NewReader(buf.Bytes())},
		ParseRosterDeps{Options: rosterimport.Options{SyntheticEmailDomain: "corp.example"}},
	)
	if err != nil {
		t.Fatalf("ExecuteParseRoster: %v", err)
	}
	if res.Layout != rosterimport.LayoutSpecialized || len(res.Candidates) != 1 {
		t.Fatalf("result = %+v", res)
	}
	c := res.Candidates[0]
	if c.IdentifierCode != "50161090" || c.Email != "50161090@corp.example" || c.ApprovalStatus != "Approved" {
		t.Errorf("candidate = %+v", c)
	}
}

// TestParseRoster_Rejections verifies boundary and schema errors surface unchanged.
func TestParseRoster_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		body     string
		limits   spreadsheet.Limits
		check    func(error) bool
	}{
		{"extension", "roster.xls", "x", spreadsheet.Limits{}, func(err error) bool { return errors.Is(err, spreadsheet.ErrUnsupportedFormat) }},
		{"size", "roster.csv", strings.Repeat("a;b\n", 20), spreadsheet.Limits{MaxBytes: 8}, func(err error) bool { return errors.Is(err, spreadsheet.ErrTooLarge) }},
		{"header only", "roster.csv", "ФИО;Email\n", spreadsheet.Limits{}, func(err error) bool {
			var se *rosterimport.SchemaError
			return errors.As(err, &se) && errors.Is(err, rosterimport.ErrEmptySheet)
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ExecuteParseRoster(context.Background(),
				ParseRosterInput{Filename: tc.filename, Reader: strings.NewReader(tc.body)},
				ParseRosterDeps{Limits: tc.limits},
			)
			if !tc.check(err) {
				t.Errorf("err = %v", err)
			}
		})
	}
}
