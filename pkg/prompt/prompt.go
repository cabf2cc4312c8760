// Package prompt renders a schema into the instruction text sent to the
// model. Two fixed template variants are supported; rendering is
// deterministic and performs no I/O.
package prompt

import (
	"embed"
	"fmt"
	"strings"

	"github.com/paperscan/paperscan/pkg/schema"
)

//go:embed basic.md extended.md
var templates embed.FS

// Variant selects the instruction template.
type Variant string

const (
	// VariantBasic requests pixel coordinates and no unit handling.
	VariantBasic Variant = "basic"

	// VariantExtended adds the top-left-origin point-coordinate convention
	// and the unit-normalization directive.
	VariantExtended Variant = "extended"
)

// ParseVariant parses a template variant name.
func ParseVariant(s string) (Variant, error) {
	switch Variant(strings.ToLower(strings.TrimSpace(s))) {
	case VariantBasic, "":
		return VariantBasic, nil
	case VariantExtended:
		return VariantExtended, nil
	default:
		return "", fmt.Errorf("unknown template variant %q (use basic or extended)", s)
	}
}

// CoordinateUnit returns the unit of bbox coordinates requested by this
// variant, recorded alongside results so consumers can interpret locations.
func (v Variant) CoordinateUnit() string {
	if v == VariantExtended {
		return "point"
	}
	return "pixel"
}

// Render builds the full instruction text for a set of fields. Every field's
// name and description appear literally, in order.
func Render(v Variant, fields []schema.FieldSpec) string {
	name := "basic.md"
	if v == VariantExtended {
		name = "extended.md"
	}
	tmpl, err := templates.ReadFile(name)
	if err != nil {
		// Both templates are embedded; this cannot happen at runtime.
		panic(err)
	}
	return strings.Replace(string(tmpl), "{{FIELDS_LIST}}", fieldsList(v, fields), 1)
}

func fieldsList(v Variant, fields []schema.FieldSpec) string {
	var sb strings.Builder
	for _, f := range fields {
		fmt.Fprintf(&sb, "- **%s**: %s\n", f.Name, f.Description)
		if f.Kind == schema.KindNumber || f.Kind == schema.KindCategorical {
			fmt.Fprintf(&sb, "  (Expected value type: %s)\n", f.Kind)
		}
		if f.Infer {
			sb.WriteString("  (This field should be inferred if not explicitly found)\n")
		}
		if v == VariantExtended && f.ExpectedUnit != "" {
			fmt.Fprintf(&sb, "  (Report the value in %s)\n", f.ExpectedUnit)
		}
	}
	return sb.String()
}
