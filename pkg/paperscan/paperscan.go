package paperscan

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/paperscan/paperscan/internal/document"
	"github.com/paperscan/paperscan/internal/logger"
	"github.com/paperscan/paperscan/pkg/llm"
	"github.com/paperscan/paperscan/pkg/prompt"
	"github.com/paperscan/paperscan/pkg/record"
	"github.com/paperscan/paperscan/pkg/schema"
)

const systemPrompt = "You are a meticulous research assistant. You extract structured data " +
	"from scientific papers exactly as instructed and reply with JSON only."

// Version returns the module version of the paperscan library.
// Returns "(devel)" when built from source without version info.
func Version() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		return info.Main.Version
	}
	return "(unknown)"
}

// Result represents one document's extraction outcome.
type Result struct {
	Document string
	Pages    int

	// Records holds exactly one record per schema field, in schema order.
	Records []record.Record

	// CoordinateUnit names the unit bounding boxes are expressed in, as
	// requested by the template variant (pixel or point).
	CoordinateUnit string

	Provider string
	Model    string
	Usage    llm.Usage
	Duration time.Duration
}

// Paperscan is the main entry point for paper field extraction.
type Paperscan struct {
	client *llm.Client
	config Config
}

// New creates a new Paperscan instance. Without an explicit provider the
// available API keys decide which backend is used.
func New(opts ...Option) (*Paperscan, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	p := cfg.LLM
	if p == nil {
		name, apiKey := cfg.Provider, cfg.APIKey
		if name == "" {
			detected, detectedKey := llm.DetectProvider()
			name = detected
			if apiKey == "" {
				apiKey = detectedKey
			}
		}

		var err error
		p, err = llm.NewProvider(name, llm.ProviderConfig{
			APIKey:  apiKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create provider: %w", err)
		}
	}

	client := llm.NewClient(p,
		llm.WithAttempts(cfg.MaxRetries),
		llm.WithRetryDelay(cfg.RetryDelay),
		llm.WithRateLimit(cfg.RequestsPerMinute),
	)
	return &Paperscan{client: client, config: cfg}, nil
}

// Provider returns the provider name.
func (p *Paperscan) Provider() string {
	return p.client.Provider().Name()
}

// Extract runs the schema against a loaded document and returns one record
// per field. Large schemas are split into per-batch model requests; the
// merged reply is normalized so the result always carries len(s.Fields)
// records in schema order.
func (p *Paperscan) Extract(ctx context.Context, doc *document.Document, s schema.Schema) (*Result, error) {
	start := time.Now()

	attachment := llm.Document{Filename: doc.Filename, Data: doc.Data}
	if !p.client.Provider().SupportsDocuments() {
		text, err := doc.Text()
		if err != nil {
			return nil, fmt.Errorf("provider %s requires extracted text: %w", p.Provider(), err)
		}
		attachment.Text = text
	}

	merged := make(map[string]any, s.Len())
	var usage llm.Usage
	var model string

	for _, batch := range s.Batches(p.config.BatchSize) {
		responseSchema := schema.ResponseSchema(batch)
		req := llm.Request{
			Messages: []llm.Message{
				{Role: llm.RoleSystem, Content: systemPrompt},
				{Role: llm.RoleUser, Content: prompt.Render(p.config.Variant, batch)},
			},
			Document:    &attachment,
			JSONSchema:  responseSchema,
			MaxTokens:   p.config.MaxTokens,
			Temperature: p.config.Temperature,
		}

		resp, err := p.client.Complete(ctx, req)
		if err != nil {
			return nil, err
		}
		usage.Add(resp.Usage)
		if resp.Model != "" {
			model = resp.Model
		}

		fields, err := decodeReply(resp.Content)
		if err != nil {
			return nil, err
		}
		if err := record.Preflight(responseSchema, fields); err != nil {
			logger.Debug("reply deviates from response schema",
				"document", doc.Filename,
				"error", err)
		}
		for name, entry := range fields {
			merged[name] = entry
		}
	}

	records := record.Normalize(s, merged)
	duration := time.Since(start)
	logger.Info("extraction complete",
		"document", doc.Filename,
		"fields", len(records),
		"input_tokens", usage.InputTokens,
		"output_tokens", usage.OutputTokens,
		"duration", duration)

	return &Result{
		Document:       doc.Filename,
		Pages:          doc.Pages,
		Records:        records,
		CoordinateUnit: p.config.Variant.CoordinateUnit(),
		Provider:       p.Provider(),
		Model:          model,
		Usage:          usage,
		Duration:       duration,
	}, nil
}

// ExtractFile loads a PDF from disk and extracts the schema from it.
func (p *Paperscan) ExtractFile(ctx context.Context, path string, s schema.Schema) (*Result, error) {
	doc, err := document.Load(path, p.config.MaxDocumentSize)
	if err != nil {
		return nil, err
	}
	return p.Extract(ctx, doc, s)
}

// decodeReply parses the model reply into per-field entries. Replies wrapped
// in markdown fences are unwrapped first; anything that does not decode to a
// JSON object is a malformed response.
func decodeReply(content string) (map[string]any, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var fields map[string]any
	if err := json.Unmarshal([]byte(content), &fields); err != nil {
		return nil, &record.MalformedResponseError{Detail: "reply is not valid JSON", Err: err}
	}
	if fields == nil {
		return nil, &record.MalformedResponseError{Detail: "reply is not a JSON object"}
	}
	return fields, nil
}
