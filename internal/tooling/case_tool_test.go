package tooling

import (
	"context"
	"strings"
	"testing"

	"argus/internal/domain"
)

// fakeCaseAPI records case-store calls.
type fakeCaseAPI struct {
	upserts []string
	links   []string
	targets []domain.Target
	err     error
}

func (f *fakeCaseAPI) UpsertTarget(caseName, name, targetType, key, value, category string) error {
	f.upserts = append(f.upserts, caseName+"/"+name+"/"+targetType+"/"+key+"="+value)
	return f.err
}

func (f *fakeCaseAPI) GetTargets(caseName string) ([]domain.Target, error) {
	return f.targets, f.err
}

func (f *fakeCaseAPI) AddLink(caseName, sourceID, targetID, relation string) error {
	f.links = append(f.links, sourceID+"->"+targetID+":"+relation)
	return f.err
}

func caseCtx(name string) context.Context {
	return WithActiveCase(context.Background(), name)
}

// =============================================================================
// manage_target tests
// =============================================================================

func TestManageTargetCall_WhenNoActiveCase_ShouldError(t *testing.T) {
	tool := NewManageTargetTool(&fakeCaseAPI{})

	_, err := tool.Call(context.Background(),
		rawArgs(t, map[string]string{"name": "jane", "target_type": "Person"}))

	if err == nil || !strings.Contains(err.Error(), "no active case") {
		t.Errorf("expected no-active-case error, got %v", err)
	}
}

func TestManageTargetCall_ShouldNormalizeTheTargetType(t *testing.T) {
	store := &fakeCaseAPI{}
	tool := NewManageTargetTool(store)

	result, err := tool.Call(caseCtx("case-a"),
		rawArgs(t, map[string]string{"name": "jane", "target_type": "person"}))

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.upserts) != 1 || !strings.Contains(store.upserts[0], "/Person/") {
		t.Errorf("type should normalize to canonical form, got %v", store.upserts)
	}
	if !strings.Contains(result.Data, `Person "jane"`) {
		t.Errorf("unexpected confirmation: %q", result.Data)
	}
}

func TestManageTargetCall_WhenAttributeGiven_ShouldConfirmIt(t *testing.T) {
	store := &fakeCaseAPI{}
	tool := NewManageTargetTool(store)

	result, err := tool.Call(caseCtx("case-a"), rawArgs(t, map[string]string{
		"name": "example.com", "target_type": "Domain",
		"key": "registrar", "value": "Example Registrar", "category": "Technical",
	}))

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result.Data, `registrar = "Example Registrar"`) {
		t.Errorf("confirmation should echo the attribute, got %q", result.Data)
	}
}

func TestManageTargetCall_WhenNameEmpty_ShouldReject(t *testing.T) {
	tool := NewManageTargetTool(&fakeCaseAPI{})

	_, err := tool.Call(caseCtx("case-a"),
		rawArgs(t, map[string]string{"name": "  ", "target_type": "Person"}))

	if err == nil {
		t.Fatal("expected rejection of empty name")
	}
}

// =============================================================================
// get_targets tests
// =============================================================================

func TestGetTargetsCall_WhenCaseEmpty_ShouldSaySo(t *testing.T) {
	tool := NewGetTargetsTool(&fakeCaseAPI{})

	result, err := tool.Call(caseCtx("case-a"), nil)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result.Data, "no targets yet") {
		t.Errorf("unexpected result: %q", result.Data)
	}
}

func TestGetTargetsCall_ShouldListTargetsWithAttributesAndLinks(t *testing.T) {
	store := &fakeCaseAPI{targets: []domain.Target{
		{
			ID:   "jane-person",
			Name: "jane",
			Type: domain.TargetPerson,
			Data: map[string]string{"employer": "Example Corp"},
			Links: []domain.TargetLink{
				{TargetID: "example.com-domain", Relation: "owns"},
			},
		},
	}}
	tool := NewGetTargetsTool(store)

	result, err := tool.Call(caseCtx("case-a"), nil)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"[Person] jane", "employer: Example Corp", "-> example.com-domain (owns)"} {
		if !strings.Contains(result.Data, want) {
			t.Errorf("listing missing %q:\n%s", want, result.Data)
		}
	}
}

// =============================================================================
// link_targets tests
// =============================================================================

func TestLinkTargetsCall_ShouldRecordTheRelation(t *testing.T) {
	store := &fakeCaseAPI{}
	tool := NewLinkTargetsTool(store)

	result, err := tool.Call(caseCtx("case-a"), rawArgs(t, map[string]string{
		"source_id": "jane-person", "target_id": "example.com-domain", "relation": "owns",
	}))

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.links) != 1 || store.links[0] != "jane-person->example.com-domain:owns" {
		t.Errorf("unexpected stored link: %v", store.links)
	}
	if !strings.Contains(result.Data, "Linked jane-person -> example.com-domain") {
		t.Errorf("unexpected confirmation: %q", result.Data)
	}
}

func TestLinkTargetsCall_WhenSelfLink_ShouldReject(t *testing.T) {
	tool := NewLinkTargetsTool(&fakeCaseAPI{})

	_, err := tool.Call(caseCtx("case-a"), rawArgs(t, map[string]string{
		"source_id": "a", "target_id": "a", "relation": "is",
	}))

	if err == nil || !strings.Contains(err.Error(), "itself") {
		t.Errorf("expected self-link rejection, got %v", err)
	}
}
