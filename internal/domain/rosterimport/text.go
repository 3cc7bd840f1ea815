package rosterimport

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// cleanCell trims a cell, folds it to NFC and collapses inner whitespace
// (including non-breaking spaces left behind by spreadsheet exports).
func cleanCell(s string) string {
	if s == "" {
		return ""
	}
	s = norm.NFC.String(s)
	return strings.Join(strings.Fields(strings.ReplaceAll(s, " ", " ")), " ")
}

// foldCell is cleanCell plus lowercasing, used for keyword comparisons.
func foldCell(s string) string {
	return strings.ToLower(cleanCell(s))
}

// rowText joins every non-empty cell of a row into one folded string.
func rowText(row RawRow) string {
	parts := make([]string, 0, len(row))
	for _, c := range row {
		if f := foldCell(c); f != "" {
			parts = append(parts, f)
		}
	}
	return strings.Join(parts, " ")
}

// isBlank reports whether every cell of the row is empty after cleaning.
func isBlank(row RawRow) bool {
	for _, c := range row {
		if cleanCell(c) != "" {
			return false
		}
	}
	return true
}

// cell returns the cleaned value at idx, or "" when idx is out of range.
func cell(row RawRow, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return cleanCell(row[idx])
}
