package paperscan

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/paperscan/paperscan/internal/document"
	"github.com/paperscan/paperscan/pkg/llm"
	"github.com/paperscan/paperscan/pkg/record"
	"github.com/paperscan/paperscan/pkg/schema"
)

// mockProvider records requests and replies via a configurable function.
type mockProvider struct {
	mu       sync.Mutex
	requests []llm.Request
	reply    func(req llm.Request) (llm.Response, error)
	noDocs   bool
}

func (m *mockProvider) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	return m.reply(req)
}

func (m *mockProvider) Name() string            { return "mock" }
func (m *mockProvider) SupportsDocuments() bool { return !m.noDocs }

// echoReply answers every requested field as found, with a recognizable
// value derived from the field name.
func echoReply(req llm.Request) (llm.Response, error) {
	props, _ := req.JSONSchema["properties"].(map[string]any)
	fields := make(map[string]any, len(props))
	for name := range props {
		fields[name] = map[string]any{
			"value":      "v-" + name,
			"match_type": "found",
			"comment":    "",
			"page":       1,
		}
	}
	content, err := json.Marshal(fields)
	if err != nil {
		return llm.Response{}, err
	}
	return llm.Response{
		Content: string(content),
		Model:   "mock-model",
		Usage:   llm.Usage{InputTokens: 10, OutputTokens: 5},
	}, nil
}

func testSchema(names ...string) schema.Schema {
	fields := make([]schema.FieldSpec, len(names))
	for i, name := range names {
		fields[i] = schema.FieldSpec{Name: name, Description: "the " + name, Kind: schema.KindText}
	}
	return schema.Schema{Fields: fields}
}

func testDocument() *document.Document {
	return &document.Document{Filename: "paper.pdf", Data: []byte("%PDF-1.4 stub"), Pages: 7}
}

func newTestPaperscan(t *testing.T, mock *mockProvider, opts ...Option) *Paperscan {
	t.Helper()
	p, err := New(append([]Option{WithLLM(mock)}, opts...)...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return p
}

func TestExtract_OneRecordPerFieldInOrder(t *testing.T) {
	mock := &mockProvider{reply: echoReply}
	p := newTestPaperscan(t, mock)
	s := testSchema("title", "sample_size", "funding_source")

	result, err := p.Extract(context.Background(), testDocument(), s)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if len(result.Records) != s.Len() {
		t.Fatalf("got %d records, want %d", len(result.Records), s.Len())
	}
	for i, name := range s.Names() {
		rec := result.Records[i]
		if rec.FieldName != name {
			t.Errorf("record %d: field %q, want %q", i, rec.FieldName, name)
		}
		if rec.Value != "v-"+name {
			t.Errorf("record %d: value %v, want %q", i, rec.Value, "v-"+name)
		}
		if rec.MatchType != record.MatchFound {
			t.Errorf("record %d: match_type %s", i, rec.MatchType)
		}
	}

	if result.Document != "paper.pdf" || result.Pages != 7 {
		t.Errorf("result metadata = %q/%d", result.Document, result.Pages)
	}
	if result.CoordinateUnit != "pixel" {
		t.Errorf("coordinate unit = %q, want pixel for the basic variant", result.CoordinateUnit)
	}
	if result.Model != "mock-model" || result.Provider != "mock" {
		t.Errorf("model/provider = %q/%q", result.Model, result.Provider)
	}
}

func TestExtract_SplitsFieldsIntoBatches(t *testing.T) {
	mock := &mockProvider{reply: echoReply}
	p := newTestPaperscan(t, mock, WithBatchSize(2))
	s := testSchema("a", "b", "c", "d", "e")

	result, err := p.Extract(context.Background(), testDocument(), s)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if len(mock.requests) != 3 {
		t.Fatalf("got %d requests, want 3 for 5 fields at batch size 2", len(mock.requests))
	}
	if len(result.Records) != 5 {
		t.Errorf("merged records = %d, want 5", len(result.Records))
	}
	// Usage accumulates across batches.
	if result.Usage.InputTokens != 30 || result.Usage.OutputTokens != 15 {
		t.Errorf("usage = %+v", result.Usage)
	}

	// Each batch prompt must list only its own fields.
	userPrompt := mock.requests[0].Messages[1].Content
	for _, name := range []string{"a", "b"} {
		if !strings.Contains(userPrompt, "**"+name+"**") {
			t.Errorf("first batch prompt missing field %q", name)
		}
	}
	for _, name := range []string{"c", "d", "e"} {
		if strings.Contains(userPrompt, "**"+name+"**") {
			t.Errorf("first batch prompt should not list field %q", name)
		}
	}
}

func TestExtract_AttachesDocument(t *testing.T) {
	mock := &mockProvider{reply: echoReply}
	p := newTestPaperscan(t, mock)

	_, err := p.Extract(context.Background(), testDocument(), testSchema("title"))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	doc := mock.requests[0].Document
	if doc == nil {
		t.Fatal("request carried no document")
	}
	if doc.Filename != "paper.pdf" || len(doc.Data) == 0 {
		t.Errorf("attachment = %q with %d bytes", doc.Filename, len(doc.Data))
	}
}

func TestExtract_MalformedReply(t *testing.T) {
	for _, content := range []string{"not json at all", `["an", "array"]`, "null"} {
		mock := &mockProvider{reply: func(req llm.Request) (llm.Response, error) {
			return llm.Response{Content: content}, nil
		}}
		p := newTestPaperscan(t, mock)

		_, err := p.Extract(context.Background(), testDocument(), testSchema("title"))
		var malformed *record.MalformedResponseError
		if !errors.As(err, &malformed) {
			t.Errorf("content %q: got %v, want MalformedResponseError", content, err)
		}
	}
}

func TestExtract_FencedReplyDecodes(t *testing.T) {
	mock := &mockProvider{reply: func(req llm.Request) (llm.Response, error) {
		return llm.Response{Content: "```json\n{\"title\": {\"value\": \"Deep Learning\", \"match_type\": \"found\", \"comment\": \"\", \"page\": 2}}\n```"}, nil
	}}
	p := newTestPaperscan(t, mock)

	result, err := p.Extract(context.Background(), testDocument(), testSchema("title"))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if result.Records[0].Value != "Deep Learning" || result.Records[0].Page != 2 {
		t.Errorf("record = %+v", result.Records[0])
	}
}

func TestExtract_MissingFieldBecomesNotFound(t *testing.T) {
	mock := &mockProvider{reply: func(req llm.Request) (llm.Response, error) {
		return llm.Response{Content: `{"title": {"value": "T", "match_type": "found", "comment": "", "page": 1}}`}, nil
	}}
	p := newTestPaperscan(t, mock)

	result, err := p.Extract(context.Background(), testDocument(), testSchema("title", "doi"))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if result.Records[1].MatchType != record.MatchNotFound || result.Records[1].Value != nil {
		t.Errorf("absent field record = %+v", result.Records[1])
	}
}

func TestExtract_ProviderErrorPropagates(t *testing.T) {
	mock := &mockProvider{reply: func(req llm.Request) (llm.Response, error) {
		return llm.Response{}, &llm.ConfigurationError{Provider: "mock", Reason: "no key"}
	}}
	p := newTestPaperscan(t, mock, WithMaxRetries(1))

	_, err := p.Extract(context.Background(), testDocument(), testSchema("title"))
	var cfgErr *llm.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Errorf("got %v, want ConfigurationError", err)
	}
}

func TestExtract_ExtendedVariantReportsPoints(t *testing.T) {
	mock := &mockProvider{reply: echoReply}
	p := newTestPaperscan(t, mock, WithVariant("extended"))

	result, err := p.Extract(context.Background(), testDocument(), testSchema("title"))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if result.CoordinateUnit != "point" {
		t.Errorf("coordinate unit = %q, want point", result.CoordinateUnit)
	}
}

func TestExtractAll_IsolatesFailures(t *testing.T) {
	mock := &mockProvider{reply: echoReply}
	p := newTestPaperscan(t, mock, WithConcurrency(2))

	// None of these paths exist; every document fails to load without
	// touching the others, and results stay aligned with the inputs.
	paths := []string{"missing-a.pdf", "missing-b.pdf", "missing-c.pdf"}
	results := p.ExtractAll(context.Background(), paths, testSchema("title"))

	if len(results) != len(paths) {
		t.Fatalf("got %d results, want %d", len(results), len(paths))
	}
	for i, res := range results {
		if res.Path != paths[i] {
			t.Errorf("result %d: path %q, want %q", i, res.Path, paths[i])
		}
		if res.Err == nil {
			t.Errorf("result %d: expected load error", i)
		}
		if res.Result != nil {
			t.Errorf("result %d: non-nil result alongside error", i)
		}
	}
}

func TestNew_UnknownProvider(t *testing.T) {
	if _, err := New(WithProvider("nope"), WithAPIKey("k")); err == nil {
		t.Error("expected error for unknown provider")
	}
}
