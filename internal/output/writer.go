// Package output serializes extraction records to tabular formats.
package output

import (
	"fmt"
	"io"

	"github.com/paperscan/paperscan/pkg/record"
)

// Format represents output format types.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat parses an output format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatCSV, "":
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s (use csv or xlsx)", s)
	}
}

// Columns is the output column set, in order: one row per field, value and
// classification first, provenance after.
var Columns = []string{
	"field_name", "value", "match_type", "comment",
	"page", "xmin", "ymin", "xmax", "ymax",
}

// Writer serializes records. Records are written in the order given, which
// callers keep aligned with schema order.
type Writer interface {
	// Write outputs a single record.
	Write(rec record.Record) error

	// WriteAll outputs multiple records.
	WriteAll(recs []record.Record) error

	// Flush ensures all buffered data reaches the destination.
	Flush() error
}

// NewWriter creates a writer for the specified format.
func NewWriter(w io.Writer, format Format) (Writer, error) {
	switch format {
	case FormatCSV:
		return NewCSVWriter(w), nil
	case FormatXLSX:
		return NewXLSXWriter(w), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}
