package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"argus/internal/domain"
)

// newTestGemini points a GeminiBackend at a httptest server.
func newTestGemini(serverURL string) *GeminiBackend {
	b := NewGeminiBackend("test-key", "gemini-test", "system prompt")
	b.baseURL = serverURL
	return b
}

// =============================================================================
// Think tests
// =============================================================================

func TestGeminiThink_WhenNoAPIKey_ShouldReturnTextDiagnostic(t *testing.T) {
	b := NewGeminiBackend("", "gemini-test", "system prompt")

	resp := b.Think(context.Background(), domain.ThinkRequest{Input: "hello"})

	if resp.Kind != domain.ResponseText {
		t.Fatalf("missing key should be a text diagnostic, got %v (%s)", resp.Kind, resp.Err)
	}
	if !strings.Contains(resp.Text, "API key") {
		t.Errorf("diagnostic should mention the API key, got %q", resp.Text)
	}
}

func TestGeminiThink_WhenServerReturnsText_ShouldReturnTextResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Final report."}]}}]}`))
	}))
	defer srv.Close()
	b := newTestGemini(srv.URL)

	resp := b.Think(context.Background(), domain.ThinkRequest{Input: "go"})

	if resp.Kind != domain.ResponseText {
		t.Fatalf("expected text, got %v (%s)", resp.Kind, resp.Err)
	}
	if resp.Text != "Final report." {
		t.Errorf("unexpected text: %q", resp.Text)
	}
}

func TestGeminiThink_WhenServerReturnsFunctionCall_ShouldReturnToolCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[{"content":{"parts":[
			{"functionCall":{"name":"ping","args":{"target":"example.com","count":4}}}
		]}}]}`))
	}))
	defer srv.Close()
	b := newTestGemini(srv.URL)

	resp := b.Think(context.Background(), domain.ThinkRequest{Input: "scan"})

	if resp.Kind != domain.ResponseToolCalls {
		t.Fatalf("expected tool calls, got %v (%s)", resp.Kind, resp.Err)
	}
	if len(resp.Calls) != 1 || resp.Calls[0].Name != "ping" {
		t.Fatalf("unexpected calls: %+v", resp.Calls)
	}
	if resp.Calls[0].Args["target"] != "example.com" {
		t.Errorf("string arg mangled: %q", resp.Calls[0].Args["target"])
	}
	if resp.Calls[0].Args["count"] != "4" {
		t.Errorf("numeric arg should coerce to string, got %q", resp.Calls[0].Args["count"])
	}
}

func TestGeminiThink_WhenTextAccompaniesCalls_ShouldPreserveCommentary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[{"content":{"parts":[
			{"text":"Checking reachability first."},
			{"functionCall":{"name":"ping","args":{"target":"example.com"}}}
		]}}]}`))
	}))
	defer srv.Close()
	b := newTestGemini(srv.URL)

	resp := b.Think(context.Background(), domain.ThinkRequest{Input: "scan"})

	if resp.Kind != domain.ResponseToolCalls {
		t.Fatalf("expected tool calls, got %v", resp.Kind)
	}
	if resp.Commentary != "Checking reachability first." {
		t.Errorf("commentary should be preserved, got %q", resp.Commentary)
	}
}

func TestGeminiThink_WhenCallEmbeddedInText_ShouldExtractIt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[{"content":{"parts":[
			{"text":"{\"name\":\"whois\",\"args\":{\"target\":\"example.com\"}}"}
		]}}]}`))
	}))
	defer srv.Close()
	b := newTestGemini(srv.URL)

	resp := b.Think(context.Background(), domain.ThinkRequest{Input: "whois it"})

	if resp.Kind != domain.ResponseToolCalls {
		t.Fatalf("expected tool calls from embedded JSON, got %v (%s)", resp.Kind, resp.Err)
	}
	if len(resp.Calls) != 1 || resp.Calls[0].Name != "whois" {
		t.Fatalf("unexpected calls: %+v", resp.Calls)
	}
}

func TestGeminiThink_WhenNon2xx_ShouldReturnErrorWithStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"quota exceeded"}`))
	}))
	defer srv.Close()
	b := newTestGemini(srv.URL)

	resp := b.Think(context.Background(), domain.ThinkRequest{Input: "go"})

	if resp.Kind != domain.ResponseError {
		t.Fatalf("expected error, got %v", resp.Kind)
	}
	if !strings.Contains(resp.Err, "429") {
		t.Errorf("error should carry the status, got %q", resp.Err)
	}
	if !strings.Contains(resp.Err, "quota exceeded") {
		t.Errorf("error should carry the body excerpt, got %q", resp.Err)
	}
}

func TestGeminiThink_WhenServerUnreachable_ShouldReturnError(t *testing.T) {
	b := newTestGemini("http://127.0.0.1:1")

	resp := b.Think(context.Background(), domain.ThinkRequest{Input: "go"})

	if resp.Kind != domain.ResponseError {
		t.Fatalf("hosted transport failure must be an error, got %v", resp.Kind)
	}
	if !strings.Contains(resp.Err, "network failure") {
		t.Errorf("unexpected diagnostic: %q", resp.Err)
	}
}

func TestGeminiThink_WhenBodyUnparsable_ShouldReturnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()
	b := newTestGemini(srv.URL)

	resp := b.Think(context.Background(), domain.ThinkRequest{Input: "go"})

	if resp.Kind != domain.ResponseError {
		t.Fatalf("expected error, got %v", resp.Kind)
	}
}

func TestGeminiThink_WhenNoCandidates_ShouldReturnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()
	b := newTestGemini(srv.URL)

	resp := b.Think(context.Background(), domain.ThinkRequest{Input: "go"})

	if resp.Kind != domain.ResponseError {
		t.Fatalf("expected error on empty candidates, got %v", resp.Kind)
	}
}

// =============================================================================
// Request building tests
// =============================================================================

func TestBuildGeminiContents_ShouldMapRolesAndAppendInput(t *testing.T) {
	req := domain.ThinkRequest{
		History: []domain.Turn{
			{Role: domain.RoleUser, Content: "scan example.com"},
			{Role: domain.RoleModel, Content: "on it"},
		},
		Input: "continue",
	}

	contents := buildGeminiContents(req)

	if len(contents) != 3 {
		t.Fatalf("expected 3 content blocks, got %d", len(contents))
	}
	if contents[0].Role != "user" || contents[1].Role != "model" || contents[2].Role != "user" {
		t.Errorf("unexpected roles: %s, %s, %s", contents[0].Role, contents[1].Role, contents[2].Role)
	}
}

func TestBuildGeminiContents_WhenImageUnreadable_ShouldSendPlaceholder(t *testing.T) {
	req := domain.ThinkRequest{Input: "look", ImagePath: "/does/not/exist.png"}

	contents := buildGeminiContents(req)

	last := contents[len(contents)-1]
	if len(last.Parts) != 2 {
		t.Fatalf("expected input + placeholder parts, got %d", len(last.Parts))
	}
	if last.Parts[1].Text != imageReadPlaceholder {
		t.Errorf("expected placeholder, got %q", last.Parts[1].Text)
	}
}

func TestEffectiveSystemPrompt_WhenContextPresent_ShouldAppendIt(t *testing.T) {
	got := effectiveSystemPrompt("base", "Known targets:\n- x")

	if !strings.Contains(got, "base") || !strings.Contains(got, "CASE CONTEXT") {
		t.Errorf("unexpected system prompt: %q", got)
	}
}
