package domain

import "context"

// Backend is the model-agnostic adapter contract. Implementations translate
// the conversation into a provider-specific request and the provider's reply
// into exactly one BackendResponse variant. Think never panics and never
// returns a Go error: transport and parse failures surface as ResponseError,
// missing credentials and unreachable self-hosted services as a ResponseText
// diagnostic so the loop still terminates cleanly.
type Backend interface {
	Think(ctx context.Context, req ThinkRequest) BackendResponse
}

// HistoryStore persists the ordered turn history of an investigation.
// Implementations must tolerate an unknown case by returning an empty history.
type HistoryStore interface {
	// LoadHistory returns the stored turns for the case, oldest first.
	// A missing or uninitialized case yields an empty slice, not an error.
	LoadHistory(caseName string) ([]Turn, error)

	// SaveHistory replaces the stored history for the case.
	SaveHistory(caseName string, turns []Turn) error
}

// ContextBuilder produces the per-run snapshot of known entities and their
// relationships, injected as ephemeral context into the first model call.
type ContextBuilder interface {
	ContextSnapshot(caseName string) (string, error)
}

// Notifier is the fire-and-forget side channel used to surface tool results to
// a live observer as they complete. Delivery failure and absent subscribers
// must not affect the caller.
type Notifier interface {
	Notify(event string, payload any)
}

// Tokenizer counts tokens for context window management.
type Tokenizer interface {
	CountTokens(text string) (int, error)
}

// TurnWindow fits turns into the model's context window. The system prompt
// tokens are always reserved; older turns are dropped first.
type TurnWindow interface {
	FitToWindow(turns []Turn, systemPrompt string) ([]Turn, error)
}
