package llm

import "fmt"

const (
	GroqBaseURL   = "https://api.groq.com/openai/v1"
	OllamaBaseURL = "http://localhost:11434/v1"
)

type ProviderConfig struct {
	Provider string
	APIKey   string
	Model    string // used when a request names no model
	BaseURL  string // overrides the provider default
}

func NewClient(cfg ProviderConfig) (Client, error) {
	switch cfg.Provider {
	case "groq", "":
		return NewOpenAIClient(cfg.APIKey, cfg.Model, or(cfg.BaseURL, GroqBaseURL)), nil
	case "openai":
		return NewOpenAIClient(cfg.APIKey, cfg.Model, cfg.BaseURL), nil
	case "ollama":
		if cfg.Model == "" {
			cfg.Model = "llama3.1"
		}
		return NewOpenAIClient("ollama", cfg.Model, or(cfg.BaseURL, OllamaBaseURL)), nil
	case "anthropic":
		return NewAnthropicClient(cfg.APIKey, cfg.Model, cfg.BaseURL), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", cfg.Provider)
	}
}

func or(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
