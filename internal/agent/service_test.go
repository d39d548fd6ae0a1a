package agent

import (
	"context"
	"testing"

	"argus/internal/domain"
)

// =============================================================================
// Service tests
// =============================================================================

func TestServiceAsk_ShouldLoadStoredHistoryOnFirstUse(t *testing.T) {
	// Given a case with a stored conversation
	backend := &scriptedBackend{responses: []domain.BackendResponse{
		domain.TextResponse("resuming"),
	}}
	runner, history := newTestRunner(t, backend, 5)
	history.saved["case-a"] = []domain.Turn{
		{Role: domain.RoleUser, Content: "earlier question"},
		{Role: domain.RoleModel, Content: "earlier answer"},
	}
	service := NewService(runner, history, quietLogger())

	// When a new run starts against that case
	result := service.Ask(context.Background(), "case-a", "follow up", "")

	// Then the model sees the stored turns ahead of the new input
	if result.Outcome != domain.OutcomeText {
		t.Fatalf("unexpected result: %+v", result)
	}
	sent := backend.requests[0].History
	if len(sent) != 3 {
		t.Fatalf("expected 2 stored turns + input turn, got %d", len(sent))
	}
	if sent[0].Content != "earlier question" || sent[2].Content != "follow up" {
		t.Errorf("history order wrong: %+v", sent)
	}
}

func TestServiceAsk_ShouldReuseTheSessionAcrossRuns(t *testing.T) {
	backend := &scriptedBackend{responses: []domain.BackendResponse{
		domain.TextResponse("first"),
		domain.TextResponse("second"),
	}}
	runner, history := newTestRunner(t, backend, 5)
	service := NewService(runner, history, quietLogger())

	service.Ask(context.Background(), "case-a", "one", "")
	service.Ask(context.Background(), "case-a", "two", "")

	// The second run's request history includes the whole first exchange.
	sent := backend.requests[1].History
	if len(sent) != 3 {
		t.Fatalf("expected 3 turns on the second run, got %d: %+v", len(sent), sent)
	}
	if sent[1].Content != "first" {
		t.Errorf("prior answer should be in the session, got %+v", sent[1])
	}
}

func TestServiceAbort_ShouldCancelTheNextRunOfTheCase(t *testing.T) {
	backend := &scriptedBackend{responses: []domain.BackendResponse{
		domain.TextResponse("warmed up"),
	}}
	runner, history := newTestRunner(t, backend, 5)
	service := NewService(runner, history, quietLogger())
	service.Ask(context.Background(), "case-a", "warm up", "")

	service.Abort("case-a")
	result := service.Ask(context.Background(), "case-a", "next", "")

	if result.Outcome != domain.OutcomeCancelled {
		t.Errorf("pending cancellation should stop the next run, got %+v", result)
	}
}

func TestServiceAbort_WhenCaseUnknown_ShouldBeNoOp(t *testing.T) {
	backend := &scriptedBackend{}
	runner, history := newTestRunner(t, backend, 5)
	service := NewService(runner, history, quietLogger())

	service.Abort("never-seen")
}
