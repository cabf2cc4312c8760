package record

import (
	"fmt"
	"strings"

	"github.com/paperscan/paperscan/internal/logger"
	"github.com/paperscan/paperscan/pkg/schema"
)

// maxCommentWords caps record comments at strictly under 16 words.
const maxCommentWords = 15

// Normalize maps the raw per-field reply objects onto the schema, producing
// exactly one record per field in schema order. Fields absent from the reply
// become not_found records; extra keys in the reply are ignored. It never
// fails: all per-field anomalies are absorbed into match_type and comment.
func Normalize(s schema.Schema, raw map[string]any) []Record {
	records := make([]Record, 0, s.Len())
	for _, spec := range s.Fields {
		entry, ok := raw[spec.Name]
		records = append(records, NormalizeField(spec, entry, ok))
	}
	return records
}

// NormalizeField converts one raw reply entry into a well-formed record. It
// is total: model noise downgrades the record, it never produces an error.
func NormalizeField(spec schema.FieldSpec, entry any, present bool) Record {
	rec := Record{FieldName: spec.Name, MatchType: MatchNotFound}
	if !present {
		return rec
	}

	obj, ok := entry.(map[string]any)
	if !ok {
		rec.Comment = fmt.Sprintf("unrecognized entry shape %T", entry)
		return rec
	}

	var notes []string

	rawMatch, _ := obj["match_type"].(string)
	matchType, known := ParseMatchType(rawMatch)
	if !known {
		notes = append(notes, fmt.Sprintf("unrecognized match_type '%s'", rawMatch))
	}
	rec.MatchType = matchType

	value := scalarValue(obj["value"])

	// A record must never assert a match without a value.
	if value == nil && rec.MatchType != MatchNotFound {
		notes = append(notes, fmt.Sprintf("%s without value", rec.MatchType))
		rec.MatchType = MatchNotFound
	}

	if comment, ok := obj["comment"].(string); ok && comment != "" {
		notes = append([]string{comment}, notes...)
	}

	if rec.MatchType != MatchNotFound {
		rec.Value = value
		if spec.ExpectedUnit != "" {
			value, note := normalizeValueUnit(value, spec.ExpectedUnit)
			rec.Value = value
			if note != "" {
				notes = append(notes, note)
			}
		}
		rec.Page = pageNumber(obj["page"])
		rec.BBox = boundingBox(spec.Name, obj)
	}

	rec.Comment = clipComment(strings.Join(notes, "; "))
	return rec
}

// normalizeValueUnit applies unit conversion to a unit-bearing value. The
// returned note records the original and converted form, or the failed
// attempt; conversion failure keeps the raw value.
func normalizeValueUnit(value any, expected string) (any, string) {
	raw, ok := value.(string)
	if !ok {
		// Bare numbers are taken to already be in the expected unit.
		return value, ""
	}

	converted, err := ConvertUnit(raw, expected)
	if err != nil {
		return value, fmt.Sprintf("could not normalize '%s' to %s", raw, expected)
	}
	return converted, fmt.Sprintf("normalized from '%s' to %s", raw, formatNumber(converted))
}

// scalarValue restricts a decoded JSON value to the scalar types a record may
// hold. Composite values are rejected as absent.
func scalarValue(v any) any {
	switch v := v.(type) {
	case string:
		if v == "" {
			return nil
		}
		return v
	case float64, bool:
		return v
	case int:
		return float64(v)
	default:
		return nil
	}
}

func pageNumber(v any) int {
	n, ok := v.(float64)
	if !ok || n < 1 || n != float64(int(n)) {
		return 0
	}
	return int(n)
}

// boundingBox returns a rectangle only when all four coordinates are present
// and numeric. Half-filled rectangles are dropped and logged, never emitted.
func boundingBox(field string, obj map[string]any) *BBox {
	coords := [4]float64{}
	missing := 0
	for i, key := range [4]string{"xmin", "ymin", "xmax", "ymax"} {
		n, ok := obj[key].(float64)
		if !ok {
			missing++
			continue
		}
		coords[i] = n
	}
	if missing == 4 {
		return nil
	}
	if missing > 0 {
		logger.Debug("dropping partial bounding box", "field", field, "missing", missing)
		return nil
	}
	if coords == ([4]float64{}) {
		// All-zero rectangles are a common model placeholder for "no location".
		return nil
	}
	return &BBox{XMin: coords[0], YMin: coords[1], XMax: coords[2], YMax: coords[3]}
}

// clipComment truncates a comment to the word budget rather than rejecting
// the record.
func clipComment(comment string) string {
	words := strings.Fields(comment)
	if len(words) <= maxCommentWords {
		return comment
	}
	return strings.Join(words[:maxCommentWords], " ")
}
