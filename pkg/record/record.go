// Package record defines the per-field extraction record and the
// validator/normalizer that maps raw model replies onto a schema.
package record

import "fmt"

// MatchType classifies how a field's value was obtained.
type MatchType string

const (
	MatchFound    MatchType = "found"
	MatchNotFound MatchType = "not_found"
	MatchInferred MatchType = "inferred"
)

// ParseMatchType coerces a raw match_type string to the closed enum.
func ParseMatchType(s string) (MatchType, bool) {
	switch MatchType(s) {
	case MatchFound, MatchNotFound, MatchInferred:
		return MatchType(s), true
	default:
		return MatchNotFound, false
	}
}

// BBox is a bounding rectangle locating a value within a page. Origin is the
// top left of the page; xmin/ymin is the top-left corner, xmax/ymax the
// bottom-right. Units (pixels or points) depend on the prompt variant.
type BBox struct {
	XMin float64
	YMin float64
	XMax float64
	YMax float64
}

// Record is one validated per-field extraction result.
type Record struct {
	// FieldName matches a FieldSpec name in the schema.
	FieldName string

	// Value is the extracted scalar: string, float64, bool, or nil.
	Value any

	MatchType MatchType

	// Comment is a short explanation; it also carries anomaly and
	// unit-normalization annotations.
	Comment string

	// Page is the 1-indexed page number, 0 when unknown.
	Page int

	// BBox is nil when no complete location was reported.
	BBox *BBox
}

// HasLocation reports whether the record carries a complete provenance
// rectangle.
func (r Record) HasLocation() bool { return r.BBox != nil }

// MalformedResponseError is raised when a model reply is so malformed that no
// extraction result can be produced from it at all. Per-field anomalies never
// produce this; they are absorbed into the records themselves.
type MalformedResponseError struct {
	Detail string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed model response: %s", e.Detail)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }
