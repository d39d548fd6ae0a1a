package context

import (
	"fmt"

	"argus/internal/domain"
)

// Manager implements domain.TurnWindow using a sliding-window strategy.
// It counts tokens for each turn and drops the oldest turns first
// when the total exceeds the configured maximum token budget.
type Manager struct {
	tokenizer domain.Tokenizer
	maxTokens int
}

// NewManager creates a Manager with the given tokenizer and max token limit.
// Panics if tokenizer is nil or maxTokens <= 0.
func NewManager(tokenizer domain.Tokenizer, maxTokens int) *Manager {
	if tokenizer == nil {
		panic("context: tokenizer must not be nil")
	}
	if maxTokens <= 0 {
		panic("context: maxTokens must be > 0")
	}
	return &Manager{
		tokenizer: tokenizer,
		maxTokens: maxTokens,
	}
}

// FitToWindow applies a sliding-window strategy: it reserves tokens for the
// system prompt, then walks turns from newest to oldest, keeping as many
// recent turns as fit within the remaining budget.
//
// Returns an error if the system prompt alone exceeds maxTokens or if the
// tokenizer returns an error.
func (m *Manager) FitToWindow(turns []domain.Turn, systemPrompt string) ([]domain.Turn, error) {
	if len(turns) == 0 {
		return []domain.Turn{}, nil
	}

	// Reserve tokens for the system prompt.
	sysTokens, err := m.countPromptTokens(systemPrompt)
	if err != nil {
		return nil, fmt.Errorf("context: counting system prompt tokens: %w", err)
	}
	if sysTokens > m.maxTokens {
		return nil, fmt.Errorf("context: system prompt (%d tokens) exceeds limit (%d tokens)", sysTokens, m.maxTokens)
	}

	budget := m.maxTokens - sysTokens

	// Count tokens for each turn.
	tokenCounts := make([]int, len(turns))
	for i, turn := range turns {
		count, err := m.tokenizer.CountTokens(turn.Content)
		if err != nil {
			return nil, fmt.Errorf("context: counting tokens for turn %d: %w", i, err)
		}
		tokenCounts[i] = count
	}

	// Walk from the end (most recent) backwards, accumulating turns that fit.
	total := 0
	startIdx := len(turns) // will be decremented
	for i := len(turns) - 1; i >= 0; i-- {
		if total+tokenCounts[i] > budget {
			break
		}
		total += tokenCounts[i]
		startIdx = i
	}

	// Return the kept slice (preserves original order).
	return turns[startIdx:], nil
}

// countPromptTokens counts tokens for a system prompt. Empty prompt = 0 tokens.
func (m *Manager) countPromptTokens(prompt string) (int, error) {
	if prompt == "" {
		return 0, nil
	}
	return m.tokenizer.CountTokens(prompt)
}

// Ensure Manager implements domain.TurnWindow.
var _ domain.TurnWindow = (*Manager)(nil)
