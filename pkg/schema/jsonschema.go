package schema

// ResponseSchema builds the JSON Schema for the model's structured reply: an
// object keyed by field name whose values all share the extraction record
// shape {value, match_type, comment, page, xmin, ymin, xmax, ymax}. Value is
// typed by the field's kind and nullable; every record key is required and
// additional properties are rejected so providers with strict JSON modes can
// enforce the shape.
func ResponseSchema(fields []FieldSpec) map[string]any {
	properties := make(map[string]any, len(fields))
	required := make([]string, 0, len(fields))

	for _, f := range fields {
		properties[f.Name] = map[string]any{
			"type": "object",
			"properties": map[string]any{
				"value": map[string]any{
					"type":        []string{f.Kind.JSONType(), "null"},
					"description": f.Description,
				},
				"match_type": map[string]any{
					"type": "string",
					"enum": []string{"found", "not_found", "inferred"},
				},
				"comment": map[string]any{
					"type": []string{"string", "null"},
				},
				"page": map[string]any{"type": "integer"},
				"xmin": map[string]any{"type": "number"},
				"ymin": map[string]any{"type": "number"},
				"xmax": map[string]any{"type": "number"},
				"ymax": map[string]any{"type": "number"},
			},
			"required": []string{
				"value", "match_type", "comment", "page",
				"xmin", "ymin", "xmax", "ymax",
			},
			"additionalProperties": false,
		}
		required = append(required, f.Name)
	}

	return map[string]any{
		"type":                 "object",
		"properties":           properties,
		"required":             required,
		"additionalProperties": false,
	}
}
