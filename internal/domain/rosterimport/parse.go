package rosterimport

// Parsed is the preview of an uploaded sheet.
type Parsed struct {
	Layout         Layout      `json:"layout"`
	HeaderRowIndex int         `json:"header_row_index"`
	Candidates     []Candidate `json:"candidates"`
}

// DetectAndParse runs detection, column mapping and row normalization over a whole sheet.
// PRE: rows is the first sheet in order, header included
// POST: every data row yields exactly one candidate (valid or with a validation error);
//
//	non-data rows are dropped; a SchemaError aborts the whole parse
func DetectAndParse(rows []RawRow, opts Options) (Parsed, error) {
	det, err := DetectSchema(rows)
	if err != nil {
		return Parsed{}, err
	}

	var mapping ColumnMapping
	if det.Layout == LayoutGeneric && det.HeaderRowIndex < len(rows) {
		mapping = MapColumns(rows[det.HeaderRowIndex])
	}

	out := Parsed{Layout: det.Layout, HeaderRowIndex: det.HeaderRowIndex}
	for i := det.DataStart(); i < len(rows); i++ {
		c, ok := NormalizeRow(rows[i], i+1, mapping, det.Layout, opts)
		if !ok {
			continue
		}
		out.Candidates = append(out.Candidates, c)
	}

	if len(out.Candidates) == 0 {
		return out, &SchemaError{Layout: det.Layout, Reason: ErrEmptySheet}
	}
	return out, nil
}
