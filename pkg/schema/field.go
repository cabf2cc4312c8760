// Package schema defines the extraction field model loaded from user-supplied
// schema files (CSV or YAML).
package schema

import (
	"fmt"
	"strings"
)

// Kind is the coarse value type a field is expected to hold.
type Kind string

const (
	KindCategorical Kind = "categorical"
	KindNumber      Kind = "number"
	KindText        Kind = "text"
)

// ParseKind parses a kind column value. The empty string defaults to text.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return KindText, nil
	case "categorical":
		return KindCategorical, nil
	case "number":
		return KindNumber, nil
	case "text":
		return KindText, nil
	default:
		return "", fmt.Errorf("invalid kind %q: must be one of categorical, number, text", s)
	}
}

// JSONType returns the JSON Schema type used for this kind's value.
func (k Kind) JSONType() string {
	if k == KindNumber {
		return "number"
	}
	return "string"
}

// FieldSpec is one user-requested extraction target.
type FieldSpec struct {
	// Name identifies the field. It is unique within a schema and becomes
	// the key of the model's reply and the first output column.
	Name string `json:"field_name" yaml:"field_name" validate:"required,max=16,ascii"`

	// Description is free text that guides the model.
	Description string `json:"description" yaml:"description" validate:"required,max=100,ascii"`

	// Kind selects the value type requested from the model.
	Kind Kind `json:"kind,omitempty" yaml:"kind,omitempty"`

	// Infer permits a best-guess value when the field is not explicitly
	// present in the document.
	Infer bool `json:"infer,omitempty" yaml:"infer,omitempty"`

	// ExpectedUnit, when set, asks the validator to normalize unit-bearing
	// values to this unit (e.g. "count", "percent", "g").
	ExpectedUnit string `json:"expected_unit,omitempty" yaml:"expected_unit,omitempty"`
}

// ParseInfer parses an infer column value. Accepts true/false, yes/no, 1/0.
func ParseInfer(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "false", "no", "0":
		return false, nil
	case "true", "yes", "1":
		return true, nil
	default:
		return false, fmt.Errorf("invalid infer value %q: must be true/false, yes/no, or 1/0", s)
	}
}
