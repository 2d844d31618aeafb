// Package llm provides Gemini and Claude implementations of the LLMService
// interface with client-side rate limiting and rate-limit-aware retries.
package llm

import (
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/cursana/internal/common"
	"github.com/ternarybob/cursana/internal/interfaces"
)

// NewLLMService creates the configured LLM provider. An explicit model name
// (e.g. from a CLI flag) overrides the configured default provider via
// prefix detection.
func NewLLMService(cfg *common.Config, modelOverride string, logger arbor.ILogger) (interfaces.LLMService, error) {
	provider := cfg.LLM.DefaultProvider
	if modelOverride != "" {
		provider = ProviderForModel(modelOverride)
	}

	logger.Info().Str("provider", string(provider)).Msg("Initializing LLM service")

	switch provider {
	case common.LLMProviderClaude:
		if modelOverride != "" {
			cfg.Claude.Model = modelOverride
		}
		return NewClaudeService(&cfg.Claude, logger)

	case common.LLMProviderGemini:
		if modelOverride != "" {
			cfg.Gemini.Model = modelOverride
		}
		return NewGeminiService(&cfg.Gemini, logger)

	default:
		return nil, fmt.Errorf("unsupported LLM provider '%s': must be 'gemini' or 'claude'", provider)
	}
}

// ProviderForModel infers the provider from a model name prefix
func ProviderForModel(model string) common.LLMProvider {
	if strings.HasPrefix(strings.ToLower(model), "claude") {
		return common.LLMProviderClaude
	}
	return common.LLMProviderGemini
}
