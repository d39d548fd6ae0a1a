package tooling

import (
	"context"
	"encoding/json"

	"argus/internal/domain"
)

// SchemaTool is a tool whose input is described by a JSON Schema generated
// from a Go struct via invopop/jsonschema. The backend adapters advertise
// Definition() to the model (function-calling API) and the dispatcher
// validates returned arguments before calling Call().
type SchemaTool interface {
	// Name returns the unique tool name used in function-calling (e.g. "ping").
	Name() string
	// Description returns a human-readable description for the model.
	Description() string
	// Definition returns the JSON Schema string for the tool's input struct.
	Definition() string
	// Call executes the tool with the given JSON arguments. Negative results
	// are returned as errors; the dispatcher converts them to observations.
	Call(ctx context.Context, args json.RawMessage) (*domain.ToolResult, error)
}

// caseKey carries the active investigation name through tool execution.
type caseKey struct{}

// WithActiveCase returns a context carrying the active case name for
// case-store tools.
func WithActiveCase(ctx context.Context, caseName string) context.Context {
	return context.WithValue(ctx, caseKey{}, caseName)
}

// ActiveCase returns the active case name from the context, or "" when the
// session is stateless.
func ActiveCase(ctx context.Context) string {
	name, _ := ctx.Value(caseKey{}).(string)
	return name
}
