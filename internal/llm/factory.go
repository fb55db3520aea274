package llm

import (
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/assignparse/internal/model"
)

// NewProvider creates a new provider based on configuration. An empty
// provider name returns nil, nil (model-backed extraction disabled).
func NewProvider(config Config) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "local", "lmstudio":
		return NewLocalProvider(config)

	case "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, anthropic, ollama, local)", config.Provider)
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(c model.LLMConfig) Config {
	return Config{
		Provider:    c.Provider,
		Model:       c.Model,
		APIKey:      c.APIKey,
		BaseURL:     c.BaseURL,
		Timeout:     c.Timeout,
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
		HTTPProxy:   c.HTTPProxy,
		HTTPSProxy:  c.HTTPSProxy,
		NoProxy:     c.NoProxy,
	}
}

// WithEnv fills credentials and endpoints that the configuration left empty
// from the conventional environment variables of each provider.
func WithEnv(config Config) Config {
	set := func(dst *string, keys ...string) {
		if *dst != "" {
			return
		}
		for _, k := range keys {
			if v := os.Getenv(k); v != "" {
				*dst = v
				return
			}
		}
	}

	switch strings.ToLower(config.Provider) {
	case "openai":
		set(&config.APIKey, "OPENAI_API_KEY")
		set(&config.BaseURL, "OPENAI_BASE_URL")
	case "anthropic", "claude":
		set(&config.APIKey, "ANTHROPIC_API_KEY")
	case "ollama":
		set(&config.BaseURL, "OLLAMA_BASE_URL", "OLLAMA_HOST")
	case "local", "lmstudio":
		set(&config.BaseURL, "LOCAL_LLM_API_ENDPOINT")
		set(&config.APIKey, "LOCAL_LLM_API_KEY")
	}
	set(&config.HTTPProxy, "HTTP_PROXY")
	set(&config.HTTPSProxy, "HTTPS_PROXY")
	set(&config.NoProxy, "NO_PROXY")
	return config
}
