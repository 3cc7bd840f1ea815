package rosterimport

import "testing"

// TestMapColumns_FullHeader verifies each known header lands on its field with no fallbacks.
func TestMapColumns_FullHeader(t *testing.T) {
	header := RawRow{"№", "ФИО", "Табельный номер", "Должность", "Территория", "Стаж (дней)", "Телефон", "E-mail"}
	m := MapColumns(header)

	want := map[Field]int{
		FieldFullName:       1,
		FieldIdentifierCode: 2,
		FieldPosition:       3,
		FieldTerritory:      4,
		FieldExperienceDays: 5,
		FieldPhone:          6,
		FieldEmail:          7,
	}
	for f, idx := range want {
		got, ok := m.Column(f)
		if !ok || got != idx {
			t.Errorf("%s -> %d (mapped=%v), want %d", f, got, ok, idx)
		}
		if m.IsFallback(f) {
			t.Errorf("%s should not be a fallback", f)
		}
	}
	if len(m.Unmapped()) != 0 {
		t.Errorf("unmapped = %v, want none", m.Unmapped())
	}
}

// TestMapColumns_EnglishHeaders verifies English keywords and keyword ordering.
func TestMapColumns_EnglishHeaders(t *testing.T) {
	m := MapColumns(RawRow{"Full Name", "Position name", "Region", "Mobile phone", "Email address"})
	cases := map[Field]int{
		FieldFullName:  0,
		FieldPosition:  1,
		FieldTerritory: 2,
		FieldPhone:     3,
		FieldEmail:     4,
	}
	for f, idx := range cases {
		if got, ok := m.Column(f); !ok || got != idx {
			t.Errorf("%s -> %d (mapped=%v), want %d", f, got, ok, idx)
		}
	}
}

// TestMapColumns_FallbackDoesNotOverwrite verifies unmapped fields take free legacy columns only.
// PRE: header maps full_name to 0 and email to 1.
// POST: identifier_code (legacy column 1) stays unmapped; position falls back to column 2.
func TestMapColumns_FallbackDoesNotOverwrite(t *testing.T) {
	m := MapColumns(RawRow{"ФИО", "Email"})

	if idx, ok := m.Column(FieldEmail); !ok || idx != 1 {
		t.Fatalf("email -> %d, want 1", idx)
	}
	if _, ok := m.Column(FieldIdentifierCode); ok {
		t.Error("identifier_code must stay unmapped when its legacy column is taken")
	}
	if idx, ok := m.Column(FieldPosition); !ok || idx != 2 || !m.IsFallback(FieldPosition) {
		t.Errorf("position -> %d fallback=%v, want 2 fallback", idx, m.IsFallback(FieldPosition))
	}
	unmapped := m.Unmapped()
	if len(unmapped) != 1 || unmapped[0] != FieldIdentifierCode {
		t.Errorf("unmapped = %v, want [identifier_code]", unmapped)
	}
}

// TestMapColumns_CodeColumnsOfOtherFields verifies "code" headers of other
// attributes never claim identifier_code.
// PRE: header with a territory code column and no personnel code column.
// POST: territory maps to the code column; identifier_code stays unmapped.
func TestMapColumns_CodeColumnsOfOtherFields(t *testing.T) {
	tests := []struct {
		name      string
		header    RawRow
		field     Field
		wantIndex int
	}{
		{"territory code", RawRow{"ФИО", "Email", "Должность", "Код территории"}, FieldTerritory, 3},
		{"branch code", RawRow{"ФИО", "Email", "Код филиала"}, FieldTerritory, 2},
		{"position code", RawRow{"ФИО", "Email", "Код должности"}, FieldPosition, 2},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := MapColumns(tc.header)
			if idx, ok := m.Column(FieldIdentifierCode); ok {
				t.Errorf("identifier_code -> %d, want unmapped", idx)
			}
			if idx, ok := m.Column(tc.field); !ok || idx != tc.wantIndex || m.IsFallback(tc.field) {
				t.Errorf("%s -> %d (mapped=%v fallback=%v), want %d", tc.field, idx, ok, m.IsFallback(tc.field), tc.wantIndex)
			}
		})
	}

	m := MapColumns(RawRow{"ФИО", "Код сотрудника"})
	if idx, ok := m.Column(FieldIdentifierCode); !ok || idx != 1 || m.IsFallback(FieldIdentifierCode) {
		t.Errorf("identifier_code -> %d (mapped=%v), want header column 1", idx, ok)
	}
}

// TestMapColumns_FirstHeaderWins verifies a second header for the same field is ignored
// and never reused as a fallback column.
func TestMapColumns_FirstHeaderWins(t *testing.T) {
	m := MapColumns(RawRow{"Name", "Full name"})
	if idx, _ := m.Column(FieldFullName); idx != 0 {
		t.Errorf("full_name -> %d, want 0", idx)
	}
	if _, ok := m.Column(FieldIdentifierCode); ok {
		t.Error("identifier_code must not fall back onto a recognised name column")
	}
}

// TestMapColumns_NoHeaders verifies an unrecognised header gives the full legacy layout.
func TestMapColumns_NoHeaders(t *testing.T) {
	m := MapColumns(RawRow{"", "", ""})
	for f, idx := range legacyColumns {
		got, ok := m.Column(f)
		if !ok || got != idx || !m.IsFallback(f) {
			t.Errorf("%s -> %d fallback=%v, want legacy %d", f, got, m.IsFallback(f), idx)
		}
	}
}

// TestMapColumns_Pure verifies mapping the same header twice yields the same result.
func TestMapColumns_Pure(t *testing.T) {
	header := RawRow{"ФИО", "Должность", "Email"}
	a, b := MapColumns(header), MapColumns(header)
	for _, f := range Fields {
		ai, aok := a.Column(f)
		bi, bok := b.Column(f)
		if ai != bi || aok != bok {
			t.Errorf("%s differs between runs", f)
		}
	}
}
