package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// Core Configuration
// =============================================================================

type Config struct {
	Backend BackendConfig `json:"backend"`
	Agent   AgentConfig   `json:"agent"`
	Gateway GatewayConfig `json:"gateway"`
	Keys    APIKeys       `json:"keys"`
	Infra   InfraConfig   `json:"infra"`
	DataDir string        `json:"dataDir"`  // Root directory for case databases
	ProxyURL string       `json:"proxyUrl,omitempty"` // Optional outbound proxy for OSINT probes
}

// BackendConfig selects and parameterizes the model backend.
type BackendConfig struct {
	Provider string `json:"provider"` // "gemini" | "ollama"
	Model    string `json:"model"`
	APIKey   string `json:"apiKey,omitempty"`  // hosted backends only
	BaseURL  string `json:"baseUrl,omitempty"` // override for self-hosted endpoints
}

// AgentConfig controls the orchestration loop.
type AgentConfig struct {
	MaxTurns         int    `json:"maxTurns"`         // model/tool cycles per run before BudgetExceeded
	SystemPrompt     string `json:"systemPrompt,omitempty"`
	MaxContextTokens int    `json:"maxContextTokens"` // 0 = no window fitting
	Encoding         string `json:"encoding,omitempty"` // tiktoken encoding name
}

type GatewayConfig struct {
	Port      int    `json:"port"`
	AuthToken string `json:"authToken,omitempty"` // empty disables bearer auth
}

// APIKeys holds credentials for keyed OSINT collaborators. Empty keys are not
// errors; the corresponding tools report a configuration diagnostic instead.
type APIKeys struct {
	Shodan     string `json:"shodan,omitempty"`
	VirusTotal string `json:"virustotal,omitempty"`
	HIBP       string `json:"hibp,omitempty"`
}

type InfraConfig struct {
	LogFormat string `json:"logFormat"` // "json" | "text"
	LogLevel  string `json:"logLevel"`
}

// DefaultMaxTurns bounds a run when the config does not set a budget.
const DefaultMaxTurns = 5

// DefaultSystemPrompt is the analyst persona used when the config does not
// override it.
const DefaultSystemPrompt = "You are an expert OSINT analyst working inside an investigation " +
	"dashboard. You have access to tools for probing targets. When the operator asks you to " +
	"scan something, you may use multiple tools if necessary (ping, whois, dns, ...). Once you " +
	"have the results, produce a detailed, structured report in Markdown."

// =============================================================================
// Conversation
// =============================================================================

type Role string

const (
	RoleUser   Role = "user"
	RoleModel  Role = "model"
	RoleSystem Role = "system"
)

// Turn is one role-tagged message in the conversation history. Ordering is
// causal order; turns are immutable once appended.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// =============================================================================
// Backend protocol
// =============================================================================

// ToolCall is a structured request, emitted by the model backend, to invoke a
// named tool. Arguments are flattened to strings regardless of their wire
// representation so every tool receives a uniform flat map.
type ToolCall struct {
	Name string            `json:"name"`
	Args map[string]string `json:"args"`
}

// ResponseKind tags the variant of a BackendResponse.
type ResponseKind string

const (
	ResponseText      ResponseKind = "text"
	ResponseToolCalls ResponseKind = "tool_calls"
	ResponseError     ResponseKind = "error"
)

// BackendResponse is the tagged union produced by one backend invocation.
// Exactly one variant is meaningful per Kind. Commentary carries free text the
// model emitted alongside tool calls; it is preserved as non-authoritative
// context rather than dropped.
type BackendResponse struct {
	Kind       ResponseKind
	Text       string     // ResponseText
	Calls      []ToolCall // ResponseToolCalls, in emission order
	Commentary string     // optional, only with ResponseToolCalls
	Err        string     // ResponseError diagnostic
}

// TextResponse builds a plain-text response.
func TextResponse(text string) BackendResponse {
	return BackendResponse{Kind: ResponseText, Text: text}
}

// CallsResponse builds a tool-call response with optional commentary.
func CallsResponse(calls []ToolCall, commentary string) BackendResponse {
	return BackendResponse{Kind: ResponseToolCalls, Calls: calls, Commentary: commentary}
}

// ErrorResponse builds an error response with a formatted diagnostic.
func ErrorResponse(format string, args ...any) BackendResponse {
	return BackendResponse{Kind: ResponseError, Err: fmt.Sprintf(format, args...)}
}

// ThinkRequest carries everything one backend invocation needs. The system
// instruction is owned by the backend; Context is ephemeral per-run text merged
// into it for this call only and never persisted as a Turn.
type ThinkRequest struct {
	History   []Turn
	Input     string // may be empty (image-only turns are legal)
	ImagePath string // optional filesystem path to an image attachment
	Context   string // optional case snapshot
	Tools     []ToolDefinition
}

// =============================================================================
// Run outcome
// =============================================================================

// Outcome classifies how an orchestration run terminated.
type Outcome string

const (
	OutcomeText           Outcome = "text"
	OutcomeError          Outcome = "error"
	OutcomeBudgetExceeded Outcome = "budget_exceeded"
	OutcomeCancelled      Outcome = "cancelled"
)

// RunResult is the single structured result of a run. Data always carries a
// human-readable message, even on failure, so callers never synthesize text.
type RunResult struct {
	Outcome Outcome `json:"outcome"`
	Success bool    `json:"success"`
	Data    string  `json:"data"`
	Err     string  `json:"error,omitempty"`
}

// =============================================================================
// Tooling
// =============================================================================

// ToolDefinition is the declaration advertised to the model backend for one
// registered tool.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

// ToolResult is the outcome of one tool execution.
type ToolResult struct {
	Data     string            `json:"data"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// =============================================================================
// Case intelligence
// =============================================================================

type TargetType string

const (
	TargetPerson TargetType = "Person"
	TargetDomain TargetType = "Domain"
	TargetIP     TargetType = "IP"
	TargetEmail  TargetType = "Email"
	TargetOther  TargetType = "Other"
)

// ParseTargetType maps free-form model output to a TargetType, defaulting to
// TargetOther for anything unrecognized.
func ParseTargetType(s string) TargetType {
	switch strings.TrimSpace(s) {
	case "Person", "person":
		return TargetPerson
	case "Domain", "domain":
		return TargetDomain
	case "IP", "ip":
		return TargetIP
	case "Email", "email":
		return TargetEmail
	default:
		return TargetOther
	}
}

// TargetLink relates one target to another.
type TargetLink struct {
	TargetID string `json:"target_id"`
	Relation string `json:"relation"`
}

// Target is a technical or personal entity under investigation within a case.
type Target struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Type      TargetType        `json:"target_type"`
	Data      map[string]string `json:"data"`
	Links     []TargetLink      `json:"linked_targets"`
	CreatedAt time.Time         `json:"created_at"`
}

// TargetID derives the canonical target identifier from a name and type, the
// same way the model is told to reference targets.
func TargetID(name string, t TargetType) string {
	slug := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", "_"))
	return slug + "-" + strings.ToLower(string(t))
}

// CaseMetadata summarizes one investigation.
type CaseMetadata struct {
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	CreatedAt    time.Time `json:"created_at"`
	LastModified time.Time `json:"last_modified"`
	Targets      []Target  `json:"targets"`
}

// =============================================================================
// Person dossier
// =============================================================================

type Nickname struct {
	ID    string `json:"id,omitempty"`
	Value string `json:"value"`
}

type Address struct {
	ID       string `json:"id,omitempty"`
	Street   string `json:"street"`
	Number   string `json:"number"`
	Locality string `json:"locality"`
	State    string `json:"state"`
	Country  string `json:"country"`
	ZipCode  string `json:"zip_code"`
}

type Job struct {
	ID        string `json:"id,omitempty"`
	Title     string `json:"title"`
	Company   string `json:"company"`
	DateStart string `json:"date_start,omitempty"`
	DateEnd   string `json:"date_end,omitempty"`
}

type SocialProfile struct {
	ID       string `json:"id,omitempty"`
	Platform string `json:"platform"`
	Username string `json:"username"`
	URL      string `json:"url"`
}

// Person is the rich dossier entity stored per case.
type Person struct {
	ID             string          `json:"id"`
	FirstName      string          `json:"first_name,omitempty"`
	LastName       string          `json:"last_name,omitempty"`
	Nicknames      []Nickname      `json:"nicknames"`
	DNI            string          `json:"dni,omitempty"`
	BirthDate      string          `json:"birth_date,omitempty"` // ISO 8601
	Phone          string          `json:"phone,omitempty"`
	Email          string          `json:"email,omitempty"`
	Addresses      []Address       `json:"addresses"`
	Jobs           []Job           `json:"jobs"`
	SocialProfiles []SocialProfile `json:"social_profiles"`
	CreatedAt      string          `json:"created_at"`
}
