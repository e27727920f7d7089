package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

type Config struct {
	LLMProvider  string // groq, openai, ollama, anthropic
	GroqKey      string
	OpenAIKey    string
	AnthropicKey string
	LLMBaseURL   string // overrides the provider default
	RouterModel  string // turn 1: picks tools
	AnswerModel  string // turn 2: writes the reply

	CatalogBaseURL   string
	FallbackCategory string
	CategoryCacheTTL time.Duration // 0 fetches categories on every resolution
	ParallelTools    bool

	LogLevel    string
	LogFormat   string // console, json; empty picks by terminal
	MetricsAddr string

	DiscordToken string
}

// Load reads .env (if present) and the process environment. Malformed
// durations and booleans are reported on warn and replaced by their defaults.
func Load(warn zerolog.Logger) *Config {
	_ = godotenv.Load() // ignore error if no .env
	return &Config{
		LLMProvider:  envOr("LLM_PROVIDER", "groq"),
		GroqKey:      os.Getenv("GROQ_API_KEY"),
		OpenAIKey:    os.Getenv("OPENAI_API_KEY"),
		AnthropicKey: os.Getenv("ANTHROPIC_API_KEY"),
		LLMBaseURL:   os.Getenv("LLM_BASE_URL"),
		RouterModel:  envOr("ROUTER_MODEL", "llama-3.1-8b-instant"),
		AnswerModel:  envOr("ANSWER_MODEL", "meta-llama/llama-4-maverick-17b-128e-instruct"),

		CatalogBaseURL:   envOr("CATALOG_BASE_URL", "https://dummyjson.com"),
		FallbackCategory: envOr("FALLBACK_CATEGORY", "smartphones"),
		CategoryCacheTTL: envDuration(warn, "CATEGORY_CACHE_TTL", 0),
		ParallelTools:    envBool(warn, "PARALLEL_TOOLS", false),

		LogLevel:    envOr("LOG_LEVEL", "info"),
		LogFormat:   os.Getenv("LOG_FORMAT"),
		MetricsAddr: os.Getenv("METRICS_ADDR"),

		DiscordToken: os.Getenv("DISCORD_BOT_TOKEN"),
	}
}

// APIKey returns the credential matching the configured provider.
func (c *Config) APIKey() string {
	switch c.LLMProvider {
	case "openai":
		return c.OpenAIKey
	case "anthropic":
		return c.AnthropicKey
	case "ollama":
		return "ollama"
	default:
		return c.GroqKey
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(warn zerolog.Logger, key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		warn.Warn().Str("key", key).Str("value", v).Msg("invalid duration, using default")
		return fallback
	}
	return d
}

func envBool(warn zerolog.Logger, key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		warn.Warn().Str("key", key).Str("value", v).Msg("invalid boolean, using default")
		return fallback
	}
	return b
}
