package llm

import (
	"fmt"
	"os"
)

// ProviderFactory creates providers.
type ProviderFactory func(cfg ProviderConfig) (Provider, error)

// DefaultModels maps provider names to their default models.
var DefaultModels = map[string]string{
	"openrouter": "google/gemini-2.5-flash",
	"openai":     "gpt-4o",
	"anthropic":  "claude-sonnet-4-20250514",
	"ollama":     "llama3.2",
}

// EnvKeys maps provider names to the environment variable carrying their API
// key.
var EnvKeys = map[string]string{
	"openrouter": "OPENROUTER_API_KEY",
	"openai":     "OPENAI_API_KEY",
	"anthropic":  "ANTHROPIC_API_KEY",
}

var registry = map[string]ProviderFactory{
	"openrouter": func(cfg ProviderConfig) (Provider, error) {
		return NewOpenRouterProvider(cfg)
	},
	"openai": func(cfg ProviderConfig) (Provider, error) {
		return NewOpenAIProvider(cfg)
	},
	"anthropic": func(cfg ProviderConfig) (Provider, error) {
		return NewAnthropicProvider(cfg)
	},
	"ollama": func(cfg ProviderConfig) (Provider, error) {
		return NewOllamaProvider(cfg)
	},
}

// NewProvider creates a provider by name. An empty API key falls back to the
// provider's environment variable; a key must be present before any call is
// attempted (ollama excepted, it needs none).
func NewProvider(name string, cfg ProviderConfig) (Provider, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s (available: openrouter, openai, anthropic, ollama)", name)
	}
	if cfg.APIKey == "" {
		if env := EnvKeys[name]; env != "" {
			cfg.APIKey = os.Getenv(env)
			if cfg.APIKey == "" {
				return nil, &ConfigurationError{
					Provider: name,
					Reason:   fmt.Sprintf("%s environment variable not set", env),
				}
			}
		}
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModels[name]
	}
	return factory(cfg)
}

// DetectProvider auto-detects a provider from available API keys.
// Priority: OPENROUTER_API_KEY > ANTHROPIC_API_KEY > OPENAI_API_KEY >
// ollama (no key needed).
func DetectProvider() (provider string, apiKey string) {
	if key := os.Getenv("OPENROUTER_API_KEY"); key != "" {
		return "openrouter", key
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		return "anthropic", key
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return "openai", key
	}
	return "ollama", ""
}
