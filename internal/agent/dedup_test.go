package agent

import (
	"testing"

	"argus/internal/domain"
)

// =============================================================================
// DedupKey tests
// =============================================================================

func TestDedupKey_ShouldIgnoreArgumentOrder(t *testing.T) {
	a := domain.ToolCall{Name: "dns", Args: map[string]string{"target": "example.com", "type": "MX"}}
	b := domain.ToolCall{Name: "dns", Args: map[string]string{"type": "MX", "target": "example.com"}}

	if DedupKey(a) != DedupKey(b) {
		t.Errorf("keys should match regardless of arg order: %q vs %q", DedupKey(a), DedupKey(b))
	}
}

func TestDedupKey_ShouldSortValues(t *testing.T) {
	call := domain.ToolCall{Name: "dns", Args: map[string]string{"a": "zulu", "b": "alpha"}}

	if got := DedupKey(call); got != "dns:alpha,zulu" {
		t.Errorf("expected sorted value join, got %q", got)
	}
}

func TestDedupKey_WhenNoArgs_ShouldStillBeStable(t *testing.T) {
	call := domain.ToolCall{Name: "get_targets"}

	if got := DedupKey(call); got != "get_targets:" {
		t.Errorf("unexpected key: %q", got)
	}
}

// =============================================================================
// Cache seeding and lookup tests
// =============================================================================

func TestDedupCacheSeed_ShouldMarkStoredCallBatchesSeen(t *testing.T) {
	// Given history containing a persisted call batch from a prior run
	history := []domain.Turn{
		{Role: domain.RoleUser, Content: "scan example.com"},
		{Role: domain.RoleModel, Content: `[{"name":"ping","args":{"target":"example.com"}}]`},
		{Role: domain.RoleUser, Content: "Result of ping: alive"},
	}
	cache := newDedupCache()

	// When the cache is seeded
	cache.seed(history)

	// Then the prior probe is recognized and its observation recovered
	obs, hit := cache.lookup(pingCall("example.com"), history)
	if !hit {
		t.Fatal("seeded call should be a cache hit")
	}
	if obs != "Result of ping: alive" {
		t.Errorf("expected recovered observation, got %q", obs)
	}
}

func TestDedupCacheSeed_ShouldIgnoreNonBatchModelTurns(t *testing.T) {
	history := []domain.Turn{
		{Role: domain.RoleModel, Content: "I will ping the host now."},
		{Role: domain.RoleUser, Content: `[{"name":"ping","args":{"target":"example.com"}}]`},
	}
	cache := newDedupCache()

	cache.seed(history)

	if _, hit := cache.lookup(pingCall("example.com"), history); hit {
		t.Error("prose turns and user turns must not seed the cache")
	}
}

func TestDedupCacheLookup_ShouldPreferStructuredObservation(t *testing.T) {
	// Given a recorded observation and an older conflicting one in history
	history := []domain.Turn{
		{Role: domain.RoleUser, Content: "Result of ping: stale answer"},
	}
	cache := newDedupCache()
	cache.record(DedupKey(pingCall("example.com")), "Result of ping: fresh answer")

	// When the call repeats
	obs, hit := cache.lookup(pingCall("example.com"), history)

	// Then the structured record wins over the history scan
	if !hit || obs != "Result of ping: fresh answer" {
		t.Errorf("expected structured observation, got %q (hit=%v)", obs, hit)
	}
}

func TestDedupCacheLookup_WhenSeenButNoObservation_ShouldMiss(t *testing.T) {
	// Given a seeded batch whose observation never made it into history
	history := []domain.Turn{
		{Role: domain.RoleModel, Content: `[{"name":"ping","args":{"target":"example.com"}}]`},
	}
	cache := newDedupCache()
	cache.seed(history)

	// When the call repeats
	_, hit := cache.lookup(pingCall("example.com"), history)

	// Then the inconsistent entry falls through to real execution
	if hit {
		t.Error("seen key without a recoverable observation must miss")
	}
}

func TestDedupCacheLookup_WhenUnseen_ShouldMiss(t *testing.T) {
	cache := newDedupCache()

	if _, hit := cache.lookup(pingCall("example.com"), nil); hit {
		t.Error("fresh cache must miss")
	}
}
