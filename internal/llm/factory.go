package llm

import (
	"fmt"
	"strings"

	"github.com/ppiankov/claimadjudicate/internal/model"
)

// NewProvider creates a new LLM provider based on configuration
func NewProvider(config Config) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAIProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "":
		// No provider configured - return nil (LLM disabled)
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, ollama)", config.Provider)
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config. Unset timeout
// and token limits fall back to DefaultConfig.
func ConfigFromModel(c model.LLMConfig) Config {
	config := DefaultConfig()
	config.Provider = c.Provider
	config.Model = c.Model
	config.APIKey = c.APIKey
	config.BaseURL = c.BaseURL
	config.StrictAmounts = c.StrictAmounts
	if c.Timeout > 0 {
		config.Timeout = c.Timeout
	}
	if c.MaxTokens > 0 {
		config.MaxTokens = c.MaxTokens
	}
	return config
}
