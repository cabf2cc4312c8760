package schema

import (
	"errors"
	"strings"
	"testing"
)

func parse(t *testing.T, csv string) (Schema, error) {
	t.Helper()
	return ParseCSV(strings.NewReader(csv))
}

func TestParseCSV_Valid(t *testing.T) {
	s, err := parse(t, "field_name,description,kind,infer\n"+
		"title,Paper title,text,false\n"+
		"year,Publication year,number,true\n")
	if err != nil {
		t.Fatalf("ParseCSV failed: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 fields, got %d", s.Len())
	}
	if s.Fields[0].Name != "title" || s.Fields[1].Name != "year" {
		t.Errorf("unexpected field order: %v", s.Names())
	}
	if s.Fields[1].Kind != KindNumber || !s.Fields[1].Infer {
		t.Errorf("year field parsed wrong: %+v", s.Fields[1])
	}
}

func TestParseCSV_OptionalColumns(t *testing.T) {
	s, err := parse(t, "field_name,description\ntitle,Paper title\n")
	if err != nil {
		t.Fatalf("ParseCSV failed: %v", err)
	}
	f := s.Fields[0]
	if f.Kind != KindText || f.Infer || f.ExpectedUnit != "" {
		t.Errorf("defaults not applied: %+v", f)
	}
}

func TestParseCSV_ExpectedUnit(t *testing.T) {
	s, err := parse(t, "field_name,description,expected_unit\nsample_size,Study sample size,count\n")
	if err != nil {
		t.Fatalf("ParseCSV failed: %v", err)
	}
	if s.Fields[0].ExpectedUnit != "count" {
		t.Errorf("expected unit 'count', got %q", s.Fields[0].ExpectedUnit)
	}
}

func TestParseCSV_Errors(t *testing.T) {
	tests := []struct {
		name string
		csv  string
		want string
	}{
		{
			name: "missing field_name column",
			csv:  "name,description\ntitle,Paper title\n",
			want: "missing required column field_name",
		},
		{
			name: "missing description column",
			csv:  "field_name,kind\ntitle,text\n",
			want: "missing required column description",
		},
		{
			name: "empty source",
			csv:  "",
			want: "schema is empty",
		},
		{
			name: "header only",
			csv:  "field_name,description\n",
			want: "schema is empty",
		},
		{
			name: "duplicate field name",
			csv:  "field_name,description\ndup,First\ndup,Second\n",
			want: "duplicate field name",
		},
		{
			name: "field name too long",
			csv:  "field_name,description\nthis_field_name_17,Valid description\n",
			want: "exceeds 16 characters",
		},
		{
			name: "non-ASCII field name",
			csv:  "field_name,description\nfield_émoji,Valid description\n",
			want: "non-ASCII",
		},
		{
			name: "description too long",
			csv: "field_name,description\nfield," +
				strings.Repeat("x", 101) + "\n",
			want: "exceeds 100 characters",
		},
		{
			name: "invalid kind",
			csv:  "field_name,description,kind\nfield,Valid description,invalid_type\n",
			want: "invalid kind",
		},
		{
			name: "invalid infer",
			csv:  "field_name,description,infer\nfield,Valid description,maybe\n",
			want: "invalid infer value",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parse(t, tt.csv)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			var serr *SchemaError
			if !errors.As(err, &serr) {
				t.Fatalf("expected *SchemaError, got %T", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.want)
			}
		})
	}
}

func TestParseInfer_Values(t *testing.T) {
	truthy := []string{"true", "yes", "1", "TRUE", "Yes"}
	falsy := []string{"false", "no", "0", ""}

	for _, v := range truthy {
		got, err := ParseInfer(v)
		if err != nil || !got {
			t.Errorf("ParseInfer(%q) = %v, %v; want true", v, got, err)
		}
	}
	for _, v := range falsy {
		got, err := ParseInfer(v)
		if err != nil || got {
			t.Errorf("ParseInfer(%q) = %v, %v; want false", v, got, err)
		}
	}
}

func TestParseKind_CaseInsensitive(t *testing.T) {
	s, err := parse(t, "field_name,description,kind\n"+
		"f1,Desc,TEXT\nf2,Desc,Number\nf3,Desc,categorical\n")
	if err != nil {
		t.Fatalf("ParseCSV failed: %v", err)
	}
	want := []Kind{KindText, KindNumber, KindCategorical}
	for i, k := range want {
		if s.Fields[i].Kind != k {
			t.Errorf("field %d: kind = %q, want %q", i, s.Fields[i].Kind, k)
		}
	}
}

func TestFromYAML(t *testing.T) {
	data := []byte(`fields:
  - field_name: title
    description: Paper title
  - field_name: sample_size
    description: Study sample size
    kind: number
    infer: true
    expected_unit: count
`)
	s, err := FromYAML(data)
	if err != nil {
		t.Fatalf("FromYAML failed: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 fields, got %d", s.Len())
	}
	if s.Fields[0].Kind != KindText {
		t.Errorf("kind default not applied: %q", s.Fields[0].Kind)
	}
	if !s.Fields[1].Infer || s.Fields[1].ExpectedUnit != "count" {
		t.Errorf("second field parsed wrong: %+v", s.Fields[1])
	}

	if _, err := FromYAML([]byte("fields: []\n")); err == nil {
		t.Error("expected error for empty YAML schema")
	}
}

func TestFromYAML_InvalidKind(t *testing.T) {
	data := []byte(`fields:
  - field_name: flavor
    description: Preferred flavor
    kind: banana
`)
	_, err := FromYAML(data)
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError for invalid kind, got %v", err)
	}
	if schemaErr.Row != 1 || !strings.Contains(schemaErr.Reason, "banana") {
		t.Errorf("error = %v", schemaErr)
	}

	// Kind names are case-insensitive, same as the CSV path.
	s, err := FromYAML([]byte("fields:\n  - field_name: n\n    description: D\n    kind: Number\n"))
	if err != nil {
		t.Fatalf("FromYAML failed: %v", err)
	}
	if s.Fields[0].Kind != KindNumber {
		t.Errorf("kind = %q, want %q", s.Fields[0].Kind, KindNumber)
	}
}

func TestBatches(t *testing.T) {
	csv := "field_name,description\n"
	for _, n := range []string{"a", "b", "c", "d", "e"} {
		csv += n + ",Desc\n"
	}
	s, err := parse(t, csv)
	if err != nil {
		t.Fatalf("ParseCSV failed: %v", err)
	}

	batches := s.Batches(2)
	if len(batches) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(batches))
	}
	if len(batches[0]) != 2 || len(batches[2]) != 1 {
		t.Errorf("unexpected batch sizes: %d, %d, %d", len(batches[0]), len(batches[1]), len(batches[2]))
	}

	// Order must be preserved across batches.
	var names []string
	for _, b := range batches {
		for _, f := range b {
			names = append(names, f.Name)
		}
	}
	if strings.Join(names, "") != "abcde" {
		t.Errorf("batching broke order: %v", names)
	}

	if got := s.Batches(0); len(got) != 1 || len(got[0]) != 5 {
		t.Errorf("Batches(0) should return one batch of all fields")
	}
}

func TestResponseSchema(t *testing.T) {
	fields := []FieldSpec{
		{Name: "title", Description: "Paper title", Kind: KindText},
		{Name: "n", Description: "Sample size", Kind: KindNumber},
	}
	js := ResponseSchema(fields)

	props, ok := js["properties"].(map[string]any)
	if !ok {
		t.Fatal("missing properties")
	}
	if len(props) != 2 {
		t.Fatalf("expected 2 properties, got %d", len(props))
	}

	required, ok := js["required"].([]string)
	if !ok || len(required) != 2 {
		t.Fatalf("required = %v", js["required"])
	}

	title := props["title"].(map[string]any)
	titleProps := title["properties"].(map[string]any)
	for _, key := range []string{"value", "match_type", "comment", "page", "xmin", "ymin", "xmax", "ymax"} {
		if _, ok := titleProps[key]; !ok {
			t.Errorf("record shape missing key %q", key)
		}
	}

	value := titleProps["value"].(map[string]any)
	if types := value["type"].([]string); types[0] != "string" {
		t.Errorf("text field value type = %v", types)
	}
	nValue := props["n"].(map[string]any)["properties"].(map[string]any)["value"].(map[string]any)
	if types := nValue["type"].([]string); types[0] != "number" {
		t.Errorf("number field value type = %v", types)
	}
}
