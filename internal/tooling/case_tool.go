package tooling

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"argus/internal/domain"
)

// CaseAPI is the slice of the case store the case tools need. Defined here so
// the tooling package does not depend on the storage implementation.
type CaseAPI interface {
	UpsertTarget(caseName, name, targetType, key, value, category string) error
	GetTargets(caseName string) ([]domain.Target, error)
	AddLink(caseName, sourceID, targetID, relation string) error
}

// errNoActiveCase is the shared negative result for case tools used outside an
// investigation session.
var errNoActiveCase = fmt.Errorf("no active case; open or create an investigation case first")

// ==========================================================================
// manage_target
// ==========================================================================

type manageTargetArgs struct {
	Name       string `json:"name" jsonschema:"required,description=Target name (person, domain, IP address or email)"`
	TargetType string `json:"target_type" jsonschema:"required,description=Target type: Person, Domain, IP, Email, Other"`
	Key        string `json:"key,omitempty" jsonschema:"description=Optional attribute name to record under the target (e.g. location, employer)"`
	Value      string `json:"value,omitempty" jsonschema:"description=Attribute value for the given key"`
	Category   string `json:"category,omitempty" jsonschema:"description=Attribute category: Technical or Personal"`
}

// ManageTargetTool creates or updates a target in the active case, optionally
// attaching a categorized attribute.
type ManageTargetTool struct {
	schema string
	store  CaseAPI
}

func NewManageTargetTool(store CaseAPI) *ManageTargetTool {
	return &ManageTargetTool{schema: GenerateSchema(&manageTargetArgs{}), store: store}
}

func (t *ManageTargetTool) Name() string { return "manage_target" }

func (t *ManageTargetTool) Description() string {
	return "Add a target to the active investigation case, or attach an attribute (key + value, categorized Technical or Personal) to an existing one."
}

func (t *ManageTargetTool) Definition() string { return t.schema }

func (t *ManageTargetTool) Call(ctx context.Context, args json.RawMessage) (*domain.ToolResult, error) {
	caseName := ActiveCase(ctx)
	if caseName == "" {
		return nil, errNoActiveCase
	}
	var a manageTargetArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	name := strings.TrimSpace(a.Name)
	if name == "" {
		return nil, fmt.Errorf("target name must not be empty")
	}
	targetType := domain.ParseTargetType(a.TargetType)
	if err := t.store.UpsertTarget(caseName, name, string(targetType), a.Key, a.Value, a.Category); err != nil {
		return nil, fmt.Errorf("store target: %w", err)
	}
	if a.Key != "" {
		return &domain.ToolResult{
			Data: fmt.Sprintf("Recorded %s %q with %s = %q in case %q.", targetType, name, a.Key, a.Value, caseName),
		}, nil
	}
	return &domain.ToolResult{
		Data: fmt.Sprintf("Recorded %s %q in case %q.", targetType, name, caseName),
	}, nil
}

// ==========================================================================
// get_targets
// ==========================================================================

type getTargetsArgs struct{}

// GetTargetsTool lists the targets recorded in the active case.
type GetTargetsTool struct {
	schema string
	store  CaseAPI
}

func NewGetTargetsTool(store CaseAPI) *GetTargetsTool {
	return &GetTargetsTool{schema: GenerateSchema(&getTargetsArgs{}), store: store}
}

func (t *GetTargetsTool) Name() string { return "get_targets" }

func (t *GetTargetsTool) Description() string {
	return "List the targets recorded in the active investigation case, with their attributes and links."
}

func (t *GetTargetsTool) Definition() string { return t.schema }

func (t *GetTargetsTool) Call(ctx context.Context, _ json.RawMessage) (*domain.ToolResult, error) {
	caseName := ActiveCase(ctx)
	if caseName == "" {
		return nil, errNoActiveCase
	}
	targets, err := t.store.GetTargets(caseName)
	if err != nil {
		return nil, fmt.Errorf("load targets: %w", err)
	}
	if len(targets) == 0 {
		return &domain.ToolResult{Data: fmt.Sprintf("Case %q has no targets yet.", caseName)}, nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Targets in case %q:\n", caseName)
	for _, target := range targets {
		fmt.Fprintf(&sb, "- [%s] %s (id: %s)\n", target.Type, target.Name, target.ID)
		for key, value := range target.Data {
			fmt.Fprintf(&sb, "    %s: %s\n", key, value)
		}
		for _, link := range target.Links {
			fmt.Fprintf(&sb, "    -> %s (%s)\n", link.TargetID, link.Relation)
		}
	}
	return &domain.ToolResult{Data: sb.String()}, nil
}

// ==========================================================================
// link_targets
// ==========================================================================

type linkTargetsArgs struct {
	SourceID string `json:"source_id" jsonschema:"required,description=ID of the source target (as shown by get_targets)"`
	TargetID string `json:"target_id" jsonschema:"required,description=ID of the destination target"`
	Relation string `json:"relation" jsonschema:"required,description=Relationship between the targets (e.g. owns, works_at, related_to)"`
}

// LinkTargetsTool records a directed relationship between two targets in the
// active case.
type LinkTargetsTool struct {
	schema string
	store  CaseAPI
}

func NewLinkTargetsTool(store CaseAPI) *LinkTargetsTool {
	return &LinkTargetsTool{schema: GenerateSchema(&linkTargetsArgs{}), store: store}
}

func (t *LinkTargetsTool) Name() string { return "link_targets" }

func (t *LinkTargetsTool) Description() string {
	return "Record a relationship between two targets in the active investigation case."
}

func (t *LinkTargetsTool) Definition() string { return t.schema }

func (t *LinkTargetsTool) Call(ctx context.Context, args json.RawMessage) (*domain.ToolResult, error) {
	caseName := ActiveCase(ctx)
	if caseName == "" {
		return nil, errNoActiveCase
	}
	var a linkTargetsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	if a.SourceID == "" || a.TargetID == "" || a.Relation == "" {
		return nil, fmt.Errorf("source_id, target_id and relation are all required")
	}
	if a.SourceID == a.TargetID {
		return nil, fmt.Errorf("cannot link a target to itself")
	}
	if err := t.store.AddLink(caseName, a.SourceID, a.TargetID, a.Relation); err != nil {
		return nil, fmt.Errorf("store link: %w", err)
	}
	return &domain.ToolResult{
		Data: fmt.Sprintf("Linked %s -> %s (%s) in case %q.", a.SourceID, a.TargetID, a.Relation, caseName),
	}, nil
}
