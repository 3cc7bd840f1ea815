package rosterimport

import (
	"errors"
	"strings"
	"testing"

	"trainingops/internal/domain/person"
)

func genericMapping() ColumnMapping {
	return MapColumns(RawRow{"ФИО", "Табельный номер", "Должность", "Территория", "Стаж", "Телефон", "Email"})
}

// TestNormalizeRow_Generic tests generic-layout validation rules.
func TestNormalizeRow_Generic(t *testing.T) {
	m := genericMapping()
	tests := []struct {
		name       string
		row        RawRow
		wantStatus string
		wantErr    string
	}{
		{"name and email", RawRow{"Ivanov I.I.", "", "", "", "", "", "i@x.com"}, StatusNew, ""},
		{"name and code", RawRow{"Ivanov I.I.", "123", "", "", "", "", ""}, StatusNew, ""},
		{"missing name", RawRow{"", "", "", "", "", "", "j@x.com"}, StatusError, "full name is required"},
		{"missing both keys", RawRow{"Sidorov S.S.", "", "Trainer"}, StatusError, "identifier code or email is required"},
		{"invalid email", RawRow{"Sidorov S.S.", "", "", "", "", "", "not-an-email"}, StatusError, "invalid email: not-an-email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := NormalizeRow(tt.row, 5, m, LayoutGeneric, Options{})
			if !ok {
				t.Fatal("row unexpectedly dropped")
			}
			if c.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", c.Status, tt.wantStatus)
			}
			if c.ValidationError != tt.wantErr {
				t.Errorf("validation error = %q, want %q", c.ValidationError, tt.wantErr)
			}
			if c.Row != 5 {
				t.Errorf("row = %d, want 5", c.Row)
			}
		})
	}
}

// TestNormalizeRow_GenericValues tests trimming and coercion of generic values.
func TestNormalizeRow_GenericValues(t *testing.T) {
	row := RawRow{"  Ivanov   Ivan ", "50161090.0", " Sales Rep ", "Branch-A", "12,5", "+7 (900) 123-45-67", " I@X.COM "}
	c, ok := NormalizeRow(row, 2, genericMapping(), LayoutGeneric, Options{})
	if !ok || !c.IsValid() {
		t.Fatalf("candidate = %+v, want valid", c)
	}
	if c.FullName != "Ivanov Ivan" {
		t.Errorf("full name = %q", c.FullName)
	}
	if c.IdentifierCode != "50161090" {
		t.Errorf("identifier = %q, want 50161090", c.IdentifierCode)
	}
	if c.Email != "i@x.com" {
		t.Errorf("email = %q, want i@x.com", c.Email)
	}
	if c.PositionLabel != "Sales Rep" || c.TerritoryLabel != "Branch-A" {
		t.Errorf("labels = %q / %q", c.PositionLabel, c.TerritoryLabel)
	}
	if c.ExperienceDays != 12 {
		t.Errorf("experience = %d, want 12", c.ExperienceDays)
	}
	if c.Phone != "+79001234567" {
		t.Errorf("phone = %q", c.Phone)
	}
	if c.Specialized {
		t.Error("generic row flagged as specialized")
	}
}

// TestParseDays_NeverFails tests numeric coercion defaults.
func TestParseDays_NeverFails(t *testing.T) {
	cases := map[string]int{"": 0, "abc": 0, "129": 129, "129.9": 129, "-3": 0, "NaN": 0, "1e20": 0, " 7 ": 7}
	for in, want := range cases {
		if got := parseDays(in); got != want {
			t.Errorf("parseDays(%q) = %d, want %d", in, got, want)
		}
	}
}

// TestNormalizeRow_BlankDropped verifies wholly blank rows never become candidates.
func TestNormalizeRow_BlankDropped(t *testing.T) {
	if _, ok := NormalizeRow(RawRow{"", "  ", ""}, 3, genericMapping(), LayoutGeneric, Options{}); ok {
		t.Error("blank row should be dropped")
	}
}

// TestNormalizeRow_SpecializedScenario verifies the positional personnel-list row.
// PRE: row without email, valid identifier code.
// POST: synthesized identifier-based email, approval status passed through.
func TestNormalizeRow_SpecializedScenario(t *testing.T) {
	row := RawRow{"1", "Petrov P.P.", "50161090", "Sales Rep", "Branch-A", "129", "", "+7900...", "Approved"}
	c, ok := NormalizeRow(row, 4, ColumnMapping{}, LayoutSpecialized, Options{SyntheticEmailDomain: "corp.example"})
	if !ok {
		t.Fatal("row unexpectedly dropped")
	}
	if !c.IsValid() || c.Status != StatusNew {
		t.Fatalf("candidate = %+v, want valid new", c)
	}
	if c.IdentifierCode != "50161090" {
		t.Errorf("identifier = %q", c.IdentifierCode)
	}
	if c.Email != "50161090@corp.example" {
		t.Errorf("email = %q, want 50161090@corp.example", c.Email)
	}
	if c.ApprovalStatus != "Approved" {
		t.Errorf("approval = %q", c.ApprovalStatus)
	}
	if c.ExperienceDays != 129 || c.PositionLabel != "Sales Rep" || c.TerritoryLabel != "Branch-A" {
		t.Errorf("unexpected attributes: %+v", c)
	}
	if !c.Specialized {
		t.Error("specialized flag not set")
	}
}

// TestNormalizeRow_SpecializedDefaultDomain verifies the default synthetic domain.
func TestNormalizeRow_SpecializedDefaultDomain(t *testing.T) {
	c, _ := NormalizeRow(RawRow{"7", "Petrov P.P.", "42"}, 4, ColumnMapping{}, LayoutSpecialized, Options{})
	if c.Email != "42@"+DefaultSyntheticEmailDomain {
		t.Errorf("email = %q", c.Email)
	}
}

// TestNormalizeRow_SpecializedSeparators verifies non-data rows are dropped silently.
func TestNormalizeRow_SpecializedSeparators(t *testing.T) {
	drops := []RawRow{
		{"", "Отдел продаж"},
		{"Итого", "15"},
		{"2", "A."},
	}
	for _, r := range drops {
		if c, ok := NormalizeRow(r, 9, ColumnMapping{}, LayoutSpecialized, Options{}); ok {
			t.Errorf("row %v should be dropped, got %+v", r, c)
		}
	}
}

// TestNormalizeRow_SpecializedMissingCode verifies identifier is required and no email is synthesized.
func TestNormalizeRow_SpecializedMissingCode(t *testing.T) {
	c, ok := NormalizeRow(RawRow{"3", "Sidorov S.S.", ""}, 6, ColumnMapping{}, LayoutSpecialized, Options{})
	if !ok {
		t.Fatal("row unexpectedly dropped")
	}
	if c.Status != StatusError || c.ValidationError != "identifier code is required" {
		t.Errorf("candidate = %+v", c)
	}
	if c.Email != "" {
		t.Errorf("email = %q, want none for invalid row", c.Email)
	}
}

// TestRevalidate_RoundTrip verifies fixing a missing field clears the error.
func TestRevalidate_RoundTrip(t *testing.T) {
	c, _ := NormalizeRow(RawRow{"", "", "", "", "", "", "j@x.com"}, 3, genericMapping(), LayoutGeneric, Options{})
	if c.IsValid() {
		t.Fatal("expected invalid candidate")
	}
	c.FullName = "Jones J."
	c = Revalidate(c, Options{})
	if !c.IsValid() || c.Status != StatusNew {
		t.Errorf("after fix = %+v, want valid new", c)
	}

	c.Email = ""
	c = Revalidate(c, Options{})
	if c.IsValid() || c.Status != StatusError {
		t.Errorf("after breaking = %+v, want error", c)
	}
}

// TestValidate_ReturnsRowValidationError verifies the typed error carries the row.
func TestValidate_ReturnsRowValidationError(t *testing.T) {
	err := Validate(Candidate{Row: 11})
	var rv *RowValidationError
	if !errors.As(err, &rv) {
		t.Fatalf("err = %v, want RowValidationError", err)
	}
	if rv.Row != 11 {
		t.Errorf("row = %d, want 11", rv.Row)
	}
}

// TestValidate_LengthLimitsInCharacters verifies directory length limits are
// enforced at preview and counted in characters, not bytes.
// PRE: Cyrillic names and codes at and just over the directory limits.
// POST: at-limit values pass; over-limit values fail with a row error.
func TestValidate_LengthLimitsInCharacters(t *testing.T) {
	tests := []struct {
		name    string
		cand    Candidate
		wantErr bool
	}{
		{"name at limit", Candidate{FullName: strings.Repeat("ж", person.MaxNameLength), Email: "a@x.com"}, false},
		{"name over limit", Candidate{FullName: strings.Repeat("ж", person.MaxNameLength+1), Email: "a@x.com"}, true},
		{"code at limit", Candidate{FullName: "Иванов", IdentifierCode: strings.Repeat("ж", person.MaxCodeLength)}, false},
		{"code over limit", Candidate{FullName: "Иванов", IdentifierCode: strings.Repeat("ж", person.MaxCodeLength+1)}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.cand)
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
