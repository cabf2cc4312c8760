package schema

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// SchemaError reports an unusable schema definition: a missing required
// column, a duplicate or invalid field, or an empty source. It is fatal and
// raised before any model call is attempted.
type SchemaError struct {
	Row    int // 1-indexed data row, 0 when not row-specific
	Reason string
	Err    error
}

func (e *SchemaError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("schema row %d: %s", e.Row, e.Reason)
	}
	return "schema: " + e.Reason
}

func (e *SchemaError) Unwrap() error { return e.Err }

// Schema is the ordered, immutable set of fields for one extraction run.
// Order is significant: it defines prompt enumeration and output column order.
type Schema struct {
	Fields []FieldSpec `json:"fields" yaml:"fields"`
}

// Len returns the number of fields.
func (s Schema) Len() int { return len(s.Fields) }

// Names returns the field names in schema order.
func (s Schema) Names() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Batches splits the fields into chunks of at most size, preserving order.
// A size <= 0 yields a single batch.
func (s Schema) Batches(size int) [][]FieldSpec {
	if size <= 0 || size >= len(s.Fields) {
		if len(s.Fields) == 0 {
			return nil
		}
		return [][]FieldSpec{s.Fields}
	}
	batches := make([][]FieldSpec, 0, (len(s.Fields)+size-1)/size)
	for start := 0; start < len(s.Fields); start += size {
		end := start + size
		if end > len(s.Fields) {
			end = len(s.Fields)
		}
		batches = append(batches, s.Fields[start:end])
	}
	return batches
}

var validate = validator.New()

// FromFile loads a schema from a CSV or YAML file.
func FromFile(path string) (Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Schema{}, &SchemaError{Reason: "failed to read schema file", Err: err}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FromYAML(data)
	default:
		return ParseCSV(strings.NewReader(string(data)))
	}
}

// FromYAML parses a schema from YAML data with the same constraints as CSV.
func FromYAML(data []byte) (Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Schema{}, &SchemaError{Reason: "failed to parse YAML schema", Err: err}
	}
	for i := range s.Fields {
		kind, err := ParseKind(string(s.Fields[i].Kind))
		if err != nil {
			return Schema{}, &SchemaError{Row: i + 1, Reason: err.Error(), Err: err}
		}
		s.Fields[i].Kind = kind
	}
	if err := check(s.Fields); err != nil {
		return Schema{}, err
	}
	return s, nil
}

// ParseCSV parses a schema from tabular input. The header must contain a
// field_name and a description column; kind, infer, and expected_unit columns
// are optional.
func ParseCSV(r io.Reader) (Schema, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return Schema{}, &SchemaError{Reason: "schema is empty"}
	}
	if err != nil {
		return Schema{}, &SchemaError{Reason: "failed to read schema header", Err: err}
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	nameCol, ok := cols["field_name"]
	if !ok {
		return Schema{}, &SchemaError{Reason: "missing required column field_name"}
	}
	descCol, ok := cols["description"]
	if !ok {
		return Schema{}, &SchemaError{Reason: "missing required column description"}
	}
	kindCol, hasKind := cols["kind"]
	inferCol, hasInfer := cols["infer"]
	unitCol, hasUnit := cols["expected_unit"]

	var fields []FieldSpec
	for row := 1; ; row++ {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Schema{}, &SchemaError{Row: row, Reason: "failed to parse row", Err: err}
		}

		field := FieldSpec{
			Name:        strings.TrimSpace(rec[nameCol]),
			Description: strings.TrimSpace(rec[descCol]),
			Kind:        KindText,
		}
		if hasKind {
			kind, err := ParseKind(rec[kindCol])
			if err != nil {
				return Schema{}, &SchemaError{Row: row, Reason: err.Error(), Err: err}
			}
			field.Kind = kind
		}
		if hasInfer {
			infer, err := ParseInfer(rec[inferCol])
			if err != nil {
				return Schema{}, &SchemaError{Row: row, Reason: err.Error(), Err: err}
			}
			field.Infer = infer
		}
		if hasUnit {
			field.ExpectedUnit = strings.TrimSpace(rec[unitCol])
		}
		fields = append(fields, field)
	}

	if err := check(fields); err != nil {
		return Schema{}, err
	}
	return Schema{Fields: fields}, nil
}

// check enforces per-field constraints and name uniqueness across the schema.
func check(fields []FieldSpec) error {
	if len(fields) == 0 {
		return &SchemaError{Reason: "schema is empty"}
	}

	seen := make(map[string]struct{}, len(fields))
	for i, f := range fields {
		row := i + 1
		if err := validate.Struct(f); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) && len(verrs) > 0 {
				return &SchemaError{
					Row:    row,
					Reason: fmt.Sprintf("field %q: %s %s", f.Name, strings.ToLower(verrs[0].Field()), describeConstraint(verrs[0])),
					Err:    err,
				}
			}
			return &SchemaError{Row: row, Reason: err.Error(), Err: err}
		}
		if _, dup := seen[f.Name]; dup {
			return &SchemaError{Row: row, Reason: fmt.Sprintf("duplicate field name %q", f.Name)}
		}
		seen[f.Name] = struct{}{}
	}
	return nil
}

func describeConstraint(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("exceeds %s characters", e.Param())
	case "ascii":
		return "contains non-ASCII characters"
	default:
		return fmt.Sprintf("failed validation %q", e.Tag())
	}
}
