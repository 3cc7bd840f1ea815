// Package spreadsheet turns uploaded roster files into rows of cell text.
package spreadsheet

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// DefaultMaxBytes is the upload cap applied when Limits.MaxBytes is unset.
const DefaultMaxBytes = 10 << 20

// Format is a supported input file format.
type Format string

// Supported formats.
const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// Boundary errors. Both are reported before any parsing happens.
var (
	ErrTooLarge          = errors.New("file exceeds the upload size limit")
	ErrUnsupportedFormat = errors.New("unsupported file format: expected .xlsx, .xlsm or .csv")
	ErrUnreadable        = errors.New("file could not be read as a spreadsheet")
)

// Limits bounds what Read accepts.
type Limits struct {
	MaxBytes int64
}

func (l Limits) maxBytes() int64 {
	if l.MaxBytes > 0 {
		return l.MaxBytes
	}
	return DefaultMaxBytes
}

// DetectFormat maps a file name to a Format by extension.
// PRE: none
// POST: returns ErrUnsupportedFormat for anything but .xlsx, .xlsm and .csv
func DetectFormat(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".csv":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("%w (got %q)", ErrUnsupportedFormat, filepath.Ext(filename))
}

// Read extracts the rows of the first sheet.
// PRE: data is the complete file content
// POST: rows are in sheet order; empty cells are ""; numbers keep their raw text
func Read(filename string, data []byte, limits Limits) ([][]string, error) {
	format, err := DetectFormat(filename)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limits.maxBytes() {
		return nil, fmt.Errorf("%w (%d bytes, limit %d)", ErrTooLarge, len(data), limits.maxBytes())
	}
	switch format {
	case FormatXLSX:
		return readXLSX(data)
	default:
		return readCSV(data)
	}
}

// ReadFrom is Read over a stream. At most MaxBytes+1 bytes are consumed.
func ReadFrom(r io.Reader, filename string, limits Limits) ([][]string, error) {
	if _, err := DetectFormat(filename); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(r, limits.maxBytes()+1)); err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return Read(filename, buf.Bytes(), limits)
}
