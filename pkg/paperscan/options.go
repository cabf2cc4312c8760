// Package paperscan provides the public API for extracting structured fields
// from scientific papers with LLM assistance.
package paperscan

import (
	"time"

	"github.com/paperscan/paperscan/pkg/llm"
	"github.com/paperscan/paperscan/pkg/prompt"
)

// Config holds all extraction configuration.
type Config struct {
	// LLM settings
	Provider string
	Model    string
	APIKey   string
	BaseURL  string

	// Prompt settings
	Variant   prompt.Variant
	BatchSize int

	// Request settings
	MaxRetries        int
	RetryDelay        time.Duration
	Timeout           time.Duration
	RequestsPerMinute int
	Temperature       float64
	MaxTokens         int

	// Multi-document settings
	Concurrency     int
	MaxDocumentSize int64

	// LLM overrides provider construction entirely. Used for embedding and
	// tests.
	LLM llm.Provider
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Variant:     prompt.VariantBasic,
		BatchSize:   20,
		MaxRetries:  3,
		RetryDelay:  time.Second,
		Timeout:     2 * time.Minute,
		Temperature: 0.1,
		MaxTokens:   8192,
		Concurrency: 3,
	}
}

// Option configures Paperscan.
type Option func(*Config)

// WithProvider sets the LLM provider (openrouter, openai, anthropic, ollama).
func WithProvider(provider string) Option {
	return func(c *Config) {
		c.Provider = provider
	}
}

// WithModel sets the model identifier.
func WithModel(model string) Option {
	return func(c *Config) {
		c.Model = model
	}
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithBaseURL sets a custom API base URL.
func WithBaseURL(url string) Option {
	return func(c *Config) {
		c.BaseURL = url
	}
}

// WithVariant sets the instruction template variant.
func WithVariant(v prompt.Variant) Option {
	return func(c *Config) {
		c.Variant = v
	}
}

// WithBatchSize sets how many schema fields go into each model request.
func WithBatchSize(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.BatchSize = n
		}
	}
}

// WithMaxRetries sets the per-request attempt budget.
func WithMaxRetries(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.MaxRetries = n
		}
	}
}

// WithRetryDelay sets the base retry backoff delay.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.RetryDelay = d
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.Timeout = d
		}
	}
}

// WithRateLimit caps outgoing model requests per minute; 0 disables limiting.
func WithRateLimit(requestsPerMinute int) Option {
	return func(c *Config) {
		c.RequestsPerMinute = requestsPerMinute
	}
}

// WithTemperature sets the model temperature.
func WithTemperature(t float64) Option {
	return func(c *Config) {
		c.Temperature = t
	}
}

// WithMaxTokens sets the reply token cap.
func WithMaxTokens(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.MaxTokens = n
		}
	}
}

// WithConcurrency sets how many documents are processed in parallel.
func WithConcurrency(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.Concurrency = n
		}
	}
}

// WithMaxDocumentSize caps accepted PDF size in bytes; 0 means unlimited.
func WithMaxDocumentSize(n int64) Option {
	return func(c *Config) {
		c.MaxDocumentSize = n
	}
}

// WithLLM injects a pre-built provider, bypassing provider construction.
func WithLLM(p llm.Provider) Option {
	return func(c *Config) {
		c.LLM = p
	}
}
