package llm

import (
	"fmt"

	"argus/internal/domain"
)

// NewBackend returns a domain.Backend for the given backend config. Provider
// may be "gemini" or "ollama"; empty defaults to "gemini". The orchestration
// loop is agnostic to which is active.
func NewBackend(cfg *domain.Config) (domain.Backend, error) {
	if cfg == nil {
		return nil, fmt.Errorf("llm: nil config")
	}
	systemPrompt := cfg.Agent.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = domain.DefaultSystemPrompt
	}

	provider := cfg.Backend.Provider
	if provider == "" {
		provider = "gemini"
	}
	switch provider {
	case "gemini":
		model := cfg.Backend.Model
		if model == "" {
			model = "gemini-2.5-flash"
		}
		return NewGeminiBackend(cfg.Backend.APIKey, model, systemPrompt), nil
	case "ollama":
		model := cfg.Backend.Model
		if model == "" {
			model = "llama3.1"
		}
		return NewOllamaBackend(model, systemPrompt, cfg.Backend.BaseURL), nil
	default:
		return nil, fmt.Errorf("llm: unknown backend provider %q (use: gemini, ollama)", provider)
	}
}
