package rosterimport

import "strings"

// Field is a canonical candidate attribute a source column can feed.
type Field string

// Canonical fields.
const (
	FieldFullName       Field = "full_name"
	FieldIdentifierCode Field = "identifier_code"
	FieldPosition       Field = "position"
	FieldTerritory      Field = "territory"
	FieldExperienceDays Field = "experience_days"
	FieldPhone          Field = "phone"
	FieldEmail          Field = "email"
)

// Fields lists every canonical field in legacy template column order.
var Fields = []Field{
	FieldFullName,
	FieldIdentifierCode,
	FieldPosition,
	FieldTerritory,
	FieldExperienceDays,
	FieldPhone,
	FieldEmail,
}

// legacyColumns is the column layout of the original roster template,
// used for any field no header claims.
var legacyColumns = map[Field]int{
	FieldFullName:       0,
	FieldIdentifierCode: 1,
	FieldPosition:       2,
	FieldTerritory:      3,
	FieldExperienceDays: 4,
	FieldPhone:          5,
	FieldEmail:          6,
}

// headerKeywords is evaluated top to bottom for every header cell; the first
// field with a matching keyword claims the column. Generic keywords (name) sit
// last so that "position name" or "e-mail" never land on full_name.
var headerKeywords = []struct {
	Field    Field
	Keywords []string
}{
	{FieldEmail, []string{"e-mail", "email", "эл. почта", "почта", "mail"}},
	{FieldPhone, []string{"телефон", "тел.", "phone", "mobile", "моб"}},
	{FieldIdentifierCode, []string{"табельн", "таб. №", "таб.№", "personnel", "employee id", "employee code", "id code", "код сотрудника", "табельный код"}},
	{FieldPosition, []string{"должност", "position", "job title", "title"}},
	{FieldTerritory, []string{"территор", "territory", "регион", "region", "филиал", "branch"}},
	{FieldExperienceDays, []string{"стаж", "experience", "tenure", "days"}},
	{FieldFullName, []string{"фио", "ф.и.о", "фамилия", "full name", "fullname", "surname", "name", "имя"}},
}

// ColumnMapping resolves canonical fields to source column indices.
// A field is either mapped from a header, mapped by legacy fallback, or unmapped.
type ColumnMapping struct {
	columns  map[Field]int
	fallback map[Field]bool
}

// Column returns the source column for f and whether f is mapped at all.
func (m ColumnMapping) Column(f Field) (int, bool) {
	idx, ok := m.columns[f]
	return idx, ok
}

// IsFallback reports whether f was assigned its legacy positional column
// because no header matched it.
func (m ColumnMapping) IsFallback(f Field) bool {
	return m.fallback[f]
}

// Unmapped lists the fields that have no source column.
func (m ColumnMapping) Unmapped() []Field {
	var out []Field
	for _, f := range Fields {
		if _, ok := m.columns[f]; !ok {
			out = append(out, f)
		}
	}
	return out
}

// MapColumns builds a ColumnMapping from a header row.
// PRE: header is the generic-layout header row (specialized sheets use fixed positions)
// POST: no two fields share a source column; earlier assignments are never overwritten
func MapColumns(header RawRow) ColumnMapping {
	m := ColumnMapping{
		columns:  make(map[Field]int, len(Fields)),
		fallback: make(map[Field]bool),
	}
	claimed := make(map[int]bool, len(header))

	for idx, h := range header {
		text := foldCell(h)
		if text == "" {
			continue
		}
		f, ok := matchHeader(text)
		if !ok {
			continue
		}
		// A recognised header is never reused as a positional fallback,
		// even when its field was already claimed by an earlier column.
		claimed[idx] = true
		if _, taken := m.columns[f]; !taken {
			m.columns[f] = idx
		}
	}

	for _, f := range Fields {
		if _, ok := m.columns[f]; ok {
			continue
		}
		idx := legacyColumns[f]
		if claimed[idx] {
			continue
		}
		m.columns[f] = idx
		m.fallback[f] = true
		claimed[idx] = true
	}
	return m
}

func matchHeader(text string) (Field, bool) {
	for _, hk := range headerKeywords {
		for _, kw := range hk.Keywords {
			if strings.Contains(text, kw) {
				return hk.Field, true
			}
		}
	}
	return "", false
}
