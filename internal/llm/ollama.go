package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"argus/internal/domain"
)

const defaultOllamaBaseURL = "http://localhost:11434"

// OllamaBackend calls a locally served Ollama model over unauthenticated HTTP.
// An unreachable server is an operator problem, not a protocol failure: it is
// reported as a text diagnostic so the run still terminates in a single turn.
type OllamaBackend struct {
	model        string
	systemPrompt string
	client       *http.Client
	baseURL      string
	marshalFunc  func(v any) ([]byte, error) // for testing
}

// NewOllamaBackend returns an Ollama-backed domain.Backend. baseURL may be
// empty to use the default local endpoint.
func NewOllamaBackend(model, systemPrompt, baseURL string) *OllamaBackend {
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	return &OllamaBackend{
		model:        model,
		systemPrompt: systemPrompt,
		client:       &http.Client{Timeout: 300 * time.Second},
		baseURL:      baseURL,
		marshalFunc:  json.Marshal,
	}
}

type ollamaMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"` // base64 payloads
}

type ollamaToolFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

type ollamaTool struct {
	Type     string             `json:"type"`
	Function ollamaToolFunction `json:"function"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Tools    []ollamaTool    `json:"tools,omitempty"`
	Stream   bool            `json:"stream"`
}

type ollamaChatResponse struct {
	Message struct {
		Content   string `json:"content"`
		ToolCalls []struct {
			Function struct {
				Name      string         `json:"name"`
				Arguments map[string]any `json:"arguments"`
			} `json:"function"`
		} `json:"tool_calls"`
	} `json:"message"`
}

// Think implements domain.Backend.
func (o *OllamaBackend) Think(ctx context.Context, req domain.ThinkRequest) domain.BackendResponse {
	body := ollamaChatRequest{
		Model:    o.model,
		Messages: o.buildMessages(req),
		Tools:    buildOllamaTools(req.Tools),
		Stream:   false,
	}

	raw, err := o.marshalFunc(body)
	if err != nil {
		return domain.ErrorResponse("ollama: building request body: %v", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/chat", bytes.NewReader(raw))
	if err != nil {
		return domain.ErrorResponse("ollama: building request: %v", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return domain.TextResponse(fmt.Sprintf("The local model server at %s is unreachable (%v). "+
			"Start Ollama and try again.", o.baseURL, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return domain.ErrorResponse("ollama: backend returned %s: %s", resp.Status, string(detail))
	}

	var out ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.ErrorResponse("ollama: unparsable response body: %v", err)
	}
	return parseOllamaResponse(out)
}

// buildMessages maps the system instruction, the turn history, and the current
// input (plus optional image) into chat messages.
func (o *OllamaBackend) buildMessages(req domain.ThinkRequest) []ollamaMessage {
	msgs := make([]ollamaMessage, 0, len(req.History)+2)
	msgs = append(msgs, ollamaMessage{
		Role:    "system",
		Content: effectiveSystemPrompt(o.systemPrompt, req.Context),
	})
	for _, turn := range req.History {
		role := "user"
		if turn.Role == domain.RoleModel {
			role = "assistant"
		}
		msgs = append(msgs, ollamaMessage{Role: role, Content: turn.Content})
	}

	if req.Input == "" && req.ImagePath == "" {
		return msgs
	}
	current := ollamaMessage{Role: "user", Content: req.Input}
	if req.ImagePath != "" {
		if img, ok := loadInlineImage(req.ImagePath); ok {
			current.Images = []string{img.Data}
		} else {
			if current.Content != "" {
				current.Content += "\n"
			}
			current.Content += imageReadPlaceholder
		}
	}
	return append(msgs, current)
}

func buildOllamaTools(defs []domain.ToolDefinition) []ollamaTool {
	tools := make([]ollamaTool, 0, len(defs))
	for _, d := range defs {
		tools = append(tools, ollamaTool{
			Type: "function",
			Function: ollamaToolFunction{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  d.InputSchema,
			},
		})
	}
	return tools
}

// parseOllamaResponse collects structured tool calls, then scans the textual
// content for embedded JSON call objects (smaller local models frequently emit
// calls as plain text).
func parseOllamaResponse(out ollamaChatResponse) domain.BackendResponse {
	var calls []domain.ToolCall
	for _, tc := range out.Message.ToolCalls {
		calls = append(calls, domain.ToolCall{
			Name: tc.Function.Name,
			Args: CoerceArgs(tc.Function.Arguments),
		})
	}

	embedded, prose := ScanForEmbeddedCalls(out.Message.Content)
	calls = append(calls, embedded...)

	if len(calls) > 0 {
		return domain.CallsResponse(calls, prose)
	}
	if prose != "" {
		return domain.TextResponse(prose)
	}
	return domain.ErrorResponse("ollama: empty or unrecognizable response (no text, no calls)")
}

var _ domain.Backend = (*OllamaBackend)(nil)
