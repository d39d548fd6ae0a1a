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

const geminiAPIBase = "https://generativelanguage.googleapis.com/v1beta/models"

// GeminiBackend calls the hosted Google Gemini API. Authentication is an API
// key passed as a query parameter.
type GeminiBackend struct {
	apiKey       string
	model        string
	systemPrompt string
	client       *http.Client
	baseURL      string
	marshalFunc  func(v any) ([]byte, error) // for testing
}

// NewGeminiBackend returns a Gemini-backed domain.Backend.
func NewGeminiBackend(apiKey, model, systemPrompt string) *GeminiBackend {
	return &GeminiBackend{
		apiKey:       apiKey,
		model:        model,
		systemPrompt: systemPrompt,
		client:       &http.Client{Timeout: 120 * time.Second},
		baseURL:      geminiAPIBase,
		marshalFunc:  json.Marshal,
	}
}

type geminiInlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiFunctionDeclaration struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

type geminiToolBlock struct {
	FunctionDeclarations []geminiFunctionDeclaration `json:"function_declarations"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent    `json:"system_instruction,omitempty"`
	Contents          []geminiContent   `json:"contents"`
	Tools             []geminiToolBlock `json:"tools,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text         string `json:"text"`
				FunctionCall *struct {
					Name string         `json:"name"`
					Args map[string]any `json:"args"`
				} `json:"functionCall"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Think implements domain.Backend.
func (g *GeminiBackend) Think(ctx context.Context, req domain.ThinkRequest) domain.BackendResponse {
	if g.apiKey == "" {
		return domain.TextResponse("No Gemini API key is configured. Set backend.apiKey in " +
			"argus.json (or switch backend.provider to \"ollama\") and try again.")
	}

	body := geminiRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: effectiveSystemPrompt(g.systemPrompt, req.Context)}}},
		Contents:          buildGeminiContents(req),
		Tools:             buildGeminiTools(req.Tools),
	}

	raw, err := g.marshalFunc(body)
	if err != nil {
		return domain.ErrorResponse("gemini: building request body: %v", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", g.baseURL, g.model, g.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return domain.ErrorResponse("gemini: building request: %v", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return domain.ErrorResponse("gemini: network failure: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return domain.ErrorResponse("gemini: backend returned %s: %s", resp.Status, string(detail))
	}

	var out geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.ErrorResponse("gemini: unparsable response body: %v", err)
	}
	return parseGeminiResponse(out)
}

// buildGeminiContents maps the turn history plus the current input (and
// optional inline image) into Gemini content blocks.
func buildGeminiContents(req domain.ThinkRequest) []geminiContent {
	contents := make([]geminiContent, 0, len(req.History)+1)
	for _, turn := range req.History {
		role := "user"
		if turn.Role == domain.RoleModel {
			role = "model"
		}
		contents = append(contents, geminiContent{
			Role:  role,
			Parts: []geminiPart{{Text: turn.Content}},
		})
	}

	var parts []geminiPart
	if req.Input != "" {
		parts = append(parts, geminiPart{Text: req.Input})
	}
	if req.ImagePath != "" {
		if img, ok := loadInlineImage(req.ImagePath); ok {
			parts = append(parts, geminiPart{InlineData: &geminiInlineData{
				MIMEType: img.MIMEType,
				Data:     img.Data,
			}})
		} else {
			parts = append(parts, geminiPart{Text: imageReadPlaceholder})
		}
	}
	if len(parts) > 0 {
		contents = append(contents, geminiContent{Role: "user", Parts: parts})
	}
	return contents
}

func buildGeminiTools(defs []domain.ToolDefinition) []geminiToolBlock {
	if len(defs) == 0 {
		return nil
	}
	decls := make([]geminiFunctionDeclaration, 0, len(defs))
	for _, d := range defs {
		decls = append(decls, geminiFunctionDeclaration{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  d.InputSchema,
		})
	}
	return []geminiToolBlock{{FunctionDeclarations: decls}}
}

// parseGeminiResponse collects structured function calls and text fragments
// from the first candidate. Text is also scanned for embedded JSON tool calls;
// when any call is found the remaining text becomes commentary.
func parseGeminiResponse(out geminiResponse) domain.BackendResponse {
	if len(out.Candidates) == 0 {
		return domain.ErrorResponse("gemini: empty or unrecognizable response (no candidates)")
	}

	var calls []domain.ToolCall
	var text string
	for _, part := range out.Candidates[0].Content.Parts {
		if part.FunctionCall != nil {
			calls = append(calls, domain.ToolCall{
				Name: part.FunctionCall.Name,
				Args: CoerceArgs(part.FunctionCall.Args),
			})
		}
		text += part.Text
	}

	embedded, prose := ScanForEmbeddedCalls(text)
	calls = append(calls, embedded...)

	if len(calls) > 0 {
		return domain.CallsResponse(calls, prose)
	}
	if prose != "" {
		return domain.TextResponse(prose)
	}
	return domain.ErrorResponse("gemini: empty or unrecognizable response (no text, no calls)")
}

// effectiveSystemPrompt merges the per-run case context into the system
// instruction for this call only.
func effectiveSystemPrompt(base, runContext string) string {
	if runContext == "" {
		return base
	}
	return base + "\n\nCASE CONTEXT:\n" + runContext
}

var _ domain.Backend = (*GeminiBackend)(nil)
