package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/paperscan/paperscan/pkg/record"
)

// CSVWriter writes records as CSV rows, header first.
type CSVWriter struct {
	w             *csv.Writer
	headerWritten bool
}

// NewCSVWriter creates a CSV writer.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{w: csv.NewWriter(w)}
}

// Write outputs a single record as one CSV row.
func (w *CSVWriter) Write(rec record.Record) error {
	if !w.headerWritten {
		if err := w.w.Write(Columns); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
		w.headerWritten = true
	}
	if err := w.w.Write(rowCells(rec)); err != nil {
		return fmt.Errorf("failed to write record %s: %w", rec.FieldName, err)
	}
	return nil
}

// WriteAll outputs multiple records.
func (w *CSVWriter) WriteAll(recs []record.Record) error {
	for _, rec := range recs {
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying CSV writer.
func (w *CSVWriter) Flush() error {
	w.w.Flush()
	return w.w.Error()
}

// rowCells renders a record into output cells. Absent values, pages, and
// locations become empty cells.
func rowCells(rec record.Record) []string {
	cells := []string{
		rec.FieldName,
		valueCell(rec.Value),
		string(rec.MatchType),
		rec.Comment,
		"", "", "", "", "",
	}
	if rec.Page > 0 {
		cells[4] = strconv.Itoa(rec.Page)
	}
	if rec.BBox != nil {
		cells[5] = formatFloat(rec.BBox.XMin)
		cells[6] = formatFloat(rec.BBox.YMin)
		cells[7] = formatFloat(rec.BBox.XMax)
		cells[8] = formatFloat(rec.BBox.YMax)
	}
	return cells
}

func valueCell(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return formatFloat(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ReadCSV parses previously emitted CSV back into records. Value cells carry
// no type marker, so any cell that parses as a number decodes as float64 and
// the literals "true"/"false" decode as bool — a string value that happens to
// look like one of those reads back as the typed form. Everything else round
// trips losslessly.
func ReadCSV(r io.Reader) ([]record.Record, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if len(header) != len(Columns) {
		return nil, fmt.Errorf("unexpected column count %d, want %d", len(header), len(Columns))
	}

	var records []record.Record
	for {
		cells, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}

		rec := record.Record{
			FieldName: cells[0],
			Value:     parseValueCell(cells[1]),
			MatchType: record.MatchType(cells[2]),
			Comment:   cells[3],
		}
		if cells[4] != "" {
			page, err := strconv.Atoi(cells[4])
			if err != nil {
				return nil, fmt.Errorf("row %s: bad page %q", cells[0], cells[4])
			}
			rec.Page = page
		}
		if cells[5] != "" {
			bbox := &record.BBox{}
			for i, target := range []*float64{&bbox.XMin, &bbox.YMin, &bbox.XMax, &bbox.YMax} {
				n, err := strconv.ParseFloat(cells[5+i], 64)
				if err != nil {
					return nil, fmt.Errorf("row %s: bad coordinate %q", cells[0], cells[5+i])
				}
				*target = n
			}
			rec.BBox = bbox
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseValueCell(s string) any {
	if s == "" {
		return nil
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return n
	}
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}
