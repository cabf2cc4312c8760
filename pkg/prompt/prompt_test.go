package prompt

import (
	"strings"
	"testing"

	"github.com/paperscan/paperscan/pkg/schema"
)

var promptFields = []schema.FieldSpec{
	{Name: "title", Description: "paper title", Kind: schema.KindText},
	{Name: "sample_size", Description: "number of study participants", Kind: schema.KindNumber, Infer: true, ExpectedUnit: "count"},
	{Name: "country", Description: "country of the study", Kind: schema.KindCategorical},
}

func TestRender_ContainsFieldsInOrder(t *testing.T) {
	for _, v := range []Variant{VariantBasic, VariantExtended} {
		out := Render(v, promptFields)

		last := -1
		for _, f := range promptFields {
			idx := strings.Index(out, "**"+f.Name+"**")
			if idx < 0 {
				t.Fatalf("%s: field name %q missing from prompt", v, f.Name)
			}
			if !strings.Contains(out, f.Description) {
				t.Errorf("%s: description %q missing from prompt", v, f.Description)
			}
			if idx < last {
				t.Errorf("%s: field %q out of schema order", v, f.Name)
			}
			last = idx
		}
	}
}

func TestRender_RecordShape(t *testing.T) {
	out := Render(VariantBasic, promptFields)
	for _, key := range []string{`"value"`, `"match_type"`, `"comment"`, `"page"`, `"xmin"`, `"ymin"`, `"xmax"`, `"ymax"`} {
		if !strings.Contains(out, key) {
			t.Errorf("prompt missing record key %s", key)
		}
	}
	for _, enum := range []string{`"found"`, `"not_found"`, `"inferred"`} {
		if !strings.Contains(out, enum) {
			t.Errorf("prompt missing match_type value %s", enum)
		}
	}
}

func TestRender_Directives(t *testing.T) {
	out := Render(VariantBasic, promptFields)
	if !strings.Contains(out, "under 16 words") {
		t.Error("comment budget missing")
	}
	if !strings.Contains(out, "most prominent occurrence") {
		t.Error("prominence directive missing")
	}
	if !strings.Contains(out, "inferred if not explicitly found") {
		t.Error("infer note missing for inferable field")
	}
}

func TestRender_VariantDifferences(t *testing.T) {
	basic := Render(VariantBasic, promptFields)
	extended := Render(VariantExtended, promptFields)

	if !strings.Contains(basic, "pixels") {
		t.Error("basic variant should request pixel coordinates")
	}
	if !strings.Contains(extended, "PDF points") || !strings.Contains(extended, "top-left") {
		t.Error("extended variant should state the point-coordinate convention")
	}
	if !strings.Contains(extended, "normalize it to a standard form") {
		t.Error("extended variant should carry the unit-normalization directive")
	}
	if strings.Contains(basic, "normalize it to a standard form") {
		t.Error("basic variant must not carry the unit directive")
	}
	if !strings.Contains(extended, "(Report the value in count)") {
		t.Error("extended variant should carry per-field unit hints")
	}
}

func TestParseVariant(t *testing.T) {
	if v, err := ParseVariant(""); err != nil || v != VariantBasic {
		t.Errorf("empty variant should default to basic, got %v, %v", v, err)
	}
	if v, err := ParseVariant("Extended"); err != nil || v != VariantExtended {
		t.Errorf("ParseVariant(Extended) = %v, %v", v, err)
	}
	if _, err := ParseVariant("fancy"); err == nil {
		t.Error("expected error for unknown variant")
	}
}

func TestCoordinateUnit(t *testing.T) {
	if VariantBasic.CoordinateUnit() != "pixel" || VariantExtended.CoordinateUnit() != "point" {
		t.Error("coordinate units wrong")
	}
}
