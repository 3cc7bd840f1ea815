package spreadsheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// decodeText returns data as UTF-8. Files without a BOM that are not valid
// UTF-8 are taken to be Windows-1251, the default of Russian-locale exports.
func decodeText(data []byte) ([]byte, string, error) {
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		return data[len(bomUTF8):], "utf-8-bom", nil
	case bytes.HasPrefix(data, bomUTF16LE), bytes.HasPrefix(data, bomUTF16BE):
		dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
		out, _, err := transform.Bytes(dec, data)
		if err != nil {
			return nil, "", err
		}
		return out, "utf-16", nil
	case utf8.Valid(data):
		return data, "utf-8", nil
	}
	out, err := charmap.Windows1251.NewDecoder().Bytes(data)
	if err != nil {
		return nil, "", err
	}
	return out, "windows-1251", nil
}

// sniffDelimiter picks the separator that occurs most often in the first
// non-empty line, outside quotes.
func sniffDelimiter(data []byte) rune {
	line := data
	for len(line) > 0 {
		i := bytes.IndexByte(line, '\n')
		var cur []byte
		if i < 0 {
			cur, line = line, nil
		} else {
			cur, line = line[:i], line[i+1:]
		}
		if len(bytes.TrimSpace(cur)) > 0 {
			line = cur
			break
		}
	}

	counts := map[rune]int{}
	inQuotes := false
	for _, r := range string(line) {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case inQuotes:
		case r == ';', r == ',', r == '\t':
			counts[r]++
		}
	}
	best, bestN := ',', 0
	for _, r := range []rune{';', ',', '\t'} {
		if counts[r] > bestN {
			best, bestN = r, counts[r]
		}
	}
	return best
}

func readCSV(data []byte) ([][]string, error) {
	decoded, _, err := decodeText(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	r := csv.NewReader(bytes.NewReader(decoded))
	r.Comma = sniffDelimiter(decoded)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
		}
		rows = append(rows, rec)
	}
	return rows, nil
}
