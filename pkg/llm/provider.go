// Package llm provides a unified interface for generative model providers.
package llm

import (
	"context"
	"encoding/base64"
	"time"
)

// Role represents the role of a message sender.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Message represents a chat message.
type Message struct {
	Role    Role
	Content string
}

// Document is a source document attached to a request. Data carries the raw
// PDF bytes for providers with native file input; Text carries extracted
// plain text for providers without it.
type Document struct {
	Filename string
	Data     []byte
	Text     string
}

// Base64 returns the document bytes in standard base64 encoding.
func (d Document) Base64() string {
	return base64.StdEncoding.EncodeToString(d.Data)
}

// DataURL returns the document as a base64 data URL, the attachment format
// file-capable chat APIs accept.
func (d Document) DataURL() string {
	return "data:application/pdf;base64," + d.Base64()
}

// Usage tracks token consumption.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Add accumulates usage across calls.
func (u *Usage) Add(other Usage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
}

// Request represents a completion request to the model.
type Request struct {
	Messages    []Message
	Document    *Document      // Optional attached source document
	JSONSchema  map[string]any // For structured output
	MaxTokens   int
	Temperature float64
}

// Response represents the model's reply.
type Response struct {
	Content      string
	FinishReason string
	Model        string
	Usage        Usage
}

// Provider is the core abstraction over model backends.
type Provider interface {
	// Complete sends a completion request and blocks until a reply or a
	// terminal failure.
	Complete(ctx context.Context, req Request) (Response, error)

	// Name returns the provider identifier.
	Name() string

	// SupportsDocuments reports whether the provider accepts file
	// attachments natively. When false, callers must supply Document.Text.
	SupportsDocuments() bool
}

// ProviderConfig holds common configuration for providers.
type ProviderConfig struct {
	APIKey  string
	BaseURL string // For OpenRouter or custom endpoints
	Model   string
	Timeout time.Duration
}
