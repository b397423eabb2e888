package llm

import (
	"errors"
	"net/http"
)

const defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

var openrouterAliases = aliases{
	"gemini-flash":  "google/gemini-2.5-flash",
	"claude-sonnet": "anthropic/claude-sonnet-4.5",
}

// OpenRouterProvider reaches many vendors through OpenRouter's
// OpenAI-compatible API.
type OpenRouterProvider struct {
	*OpenAIProvider
}

// NewOpenRouterProvider creates an OpenRouter provider. Requests carry the
// attribution headers OpenRouter uses to list the calling app.
func NewOpenRouterProvider(cfg OpenRouterConfig) (*OpenRouterProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openrouter API key is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenRouterBaseURL
	}

	headers := http.Header{}
	headers.Set("HTTP-Referer", "https://github.com/abhisek/doceo")
	headers.Set("X-Title", "Doceo")

	inner := newOpenAICompatible(cfg.APIKey, baseURL, openrouterAliases.resolve(cfg.Model), headers)
	return &OpenRouterProvider{OpenAIProvider: inner}, nil
}
