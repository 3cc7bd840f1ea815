package rosterimport

import "strings"

// ScanRows is how many leading rows the detector inspects.
const ScanRows = 15

// SpecializedHeaderRow is the fixed header row of personnel-list exports.
// Their structure is stable: a title line, a subtitle line, then the header.
const SpecializedHeaderRow = 2

// LegacyHeaderRow is used when no header row can be found in a generic sheet.
const LegacyHeaderRow = 0

// specializedMarkers identify personnel-list exports. Matched against the
// folded text of a whole row, so only title phrases belong here: column
// headers such as "Табельный номер" also appear in generic sheets.
var specializedMarkers = []string{
	"список персонала",
	"список сотрудников",
	"штатная расстановка",
	"personnel list",
	"staff roster export",
}

// nameHeaderKeywords locate the header row of a generic sheet.
var nameHeaderKeywords = []string{
	"фио",
	"ф.и.о",
	"фамилия",
	"full name",
	"fullname",
	"surname",
	"name",
}

// Detection is the result of inspecting the top of a sheet.
type Detection struct {
	Layout         Layout `json:"layout"`
	HeaderRowIndex int    `json:"header_row_index"`
}

// DataStart returns the index of the first row after the header.
func (d Detection) DataStart() int {
	return d.HeaderRowIndex + 1
}

// DetectSchema decides which layout a sheet follows and where its header row is.
// PRE: rows are in sheet order
// POST: returns a SchemaError wrapping ErrNoRows or ErrEmptySheet when nothing follows the header
func DetectSchema(rows []RawRow) (Detection, error) {
	if len(rows) == 0 {
		return Detection{}, &SchemaError{Reason: ErrNoRows}
	}

	limit := min(len(rows), ScanRows)

	det := Detection{Layout: LayoutGeneric, HeaderRowIndex: LegacyHeaderRow}
	found := false
	for i := 0; i < limit && !found; i++ {
		if hasMarker(rowText(rows[i])) {
			det = Detection{Layout: LayoutSpecialized, HeaderRowIndex: SpecializedHeaderRow}
			found = true
		}
	}
	for i := 0; i < limit && !found; i++ {
		if isNameHeaderRow(rows[i]) {
			det.HeaderRowIndex = i
			found = true
		}
	}

	if !hasDataAfter(rows, det.DataStart()) {
		return det, &SchemaError{Layout: det.Layout, Reason: ErrEmptySheet}
	}
	return det, nil
}

func hasMarker(text string) bool {
	for _, m := range specializedMarkers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

// isNameHeaderRow reports whether any cell of the row looks like a name column header.
func isNameHeaderRow(row RawRow) bool {
	for _, c := range row {
		f := foldCell(c)
		if f == "" || len([]rune(f)) > 40 {
			continue
		}
		for _, kw := range nameHeaderKeywords {
			if strings.Contains(f, kw) {
				return true
			}
		}
	}
	return false
}

func hasDataAfter(rows []RawRow, start int) bool {
	for i := start; i < len(rows); i++ {
		if !isBlank(rows[i]) {
			return true
		}
	}
	return false
}
