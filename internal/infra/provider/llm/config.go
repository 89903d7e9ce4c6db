package llm

import (
	"fmt"
	"os"
)

// ProviderConfig holds the credentials and default routing for the
// configured language-model providers. A deployment may configure either or
// both; UnifiedProviderRegistry (internal/registry) picks a provider per
// request based on the requested model name's prefix.
type ProviderConfig struct {
	AnthropicAPIKey string
	OpenAIAPIKey    string
	DefaultProvider string
}

// LoadProviderConfig reads provider credentials from the environment.
//
// Environment variables:
//   - ANTHROPIC_API_KEY
//   - OPENAI_API_KEY
//   - LLM_DEFAULT_PROVIDER: "anthropic" or "openai" (default: "anthropic")
//
// Returns an error if neither key is set, since a deployment with no usable
// provider cannot serve any annotation run.
func LoadProviderConfig() (*ProviderConfig, error) {
	cfg := &ProviderConfig{
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		DefaultProvider: getEnvOrDefault("LLM_DEFAULT_PROVIDER", "anthropic"),
	}

	if cfg.AnthropicAPIKey == "" && cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("llm: at least one of ANTHROPIC_API_KEY or OPENAI_API_KEY must be set")
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
