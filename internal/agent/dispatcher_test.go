package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"argus/internal/domain"
	"argus/internal/tooling"
)

func newTestDispatcher(t *testing.T, notifier domain.Notifier, tools ...tooling.SchemaTool) *Dispatcher {
	t.Helper()
	registry := tooling.NewToolRegistry()
	for _, tool := range tools {
		if err := registry.Register(tool); err != nil {
			t.Fatalf("registering %s: %v", tool.Name(), err)
		}
	}
	return NewDispatcher(registry, notifier, quietLogger())
}

// =============================================================================
// Dispatch tests
// =============================================================================

func TestDispatch_WhenToolSucceeds_ShouldReturnPrefixedObservation(t *testing.T) {
	tool := &fakeTool{name: "ping", result: "4 received"}
	dispatcher := newTestDispatcher(t, nil, tool)
	cache := newDedupCache()

	obs, cached := dispatcher.Dispatch(context.Background(), pingCall("example.com"), cache, nil)

	if cached {
		t.Error("first execution must not be cached")
	}
	if obs != "Result of ping: 4 received" {
		t.Errorf("unexpected observation: %q", obs)
	}
}

func TestDispatch_WhenToolUnknown_ShouldObserveNotAbort(t *testing.T) {
	dispatcher := newTestDispatcher(t, nil)
	cache := newDedupCache()

	obs, _ := dispatcher.Dispatch(context.Background(),
		domain.ToolCall{Name: "teleport", Args: map[string]string{"target": "x"}}, cache, nil)

	if !strings.Contains(obs, "tool not found: teleport") {
		t.Errorf("unknown tool should become an observation, got %q", obs)
	}
	if !strings.HasPrefix(obs, "Result of teleport:") {
		t.Errorf("observation must keep the standard prefix, got %q", obs)
	}
}

func TestDispatch_WhenRequiredArgMissing_ShouldObserveMissingArgument(t *testing.T) {
	tool := &fakeTool{name: "ping", result: "unused"}
	dispatcher := newTestDispatcher(t, nil, tool)
	cache := newDedupCache()

	obs, _ := dispatcher.Dispatch(context.Background(),
		domain.ToolCall{Name: "ping", Args: map[string]string{}}, cache, nil)

	if !strings.Contains(obs, `missing argument "target"`) {
		t.Errorf("expected missing-argument observation, got %q", obs)
	}
	if tool.execs != 0 {
		t.Errorf("tool must not run without its required arguments, ran %d times", tool.execs)
	}
}

func TestDispatch_WhenToolErrors_ShouldObserveTheError(t *testing.T) {
	tool := &fakeTool{name: "ping", err: errors.New("Host example.com appears unreachable")}
	dispatcher := newTestDispatcher(t, nil, tool)
	cache := newDedupCache()

	obs, _ := dispatcher.Dispatch(context.Background(), pingCall("example.com"), cache, nil)

	if obs != "Result of ping: Host example.com appears unreachable" {
		t.Errorf("unexpected observation: %q", obs)
	}
}

func TestDispatch_WhenCallRepeats_ShouldServeFromCache(t *testing.T) {
	// Given a successful first dispatch
	tool := &fakeTool{name: "ping", result: "alive"}
	notifier := &recordingNotifier{}
	dispatcher := newTestDispatcher(t, notifier, tool)
	cache := newDedupCache()
	first, _ := dispatcher.Dispatch(context.Background(), pingCall("example.com"), cache, nil)

	// When the identical call arrives again
	second, cached := dispatcher.Dispatch(context.Background(), pingCall("example.com"), cache, nil)

	// Then the cached observation is returned without re-execution
	if !cached {
		t.Error("repeat should be reported as cached")
	}
	if second != first {
		t.Errorf("cached observation should match the original: %q vs %q", second, first)
	}
	if tool.execs != 1 {
		t.Errorf("tool must execute exactly once, ran %d times", tool.execs)
	}

	// And the live notification flags the cache hit
	if len(notifier.payloads) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(notifier.payloads))
	}
	payload, ok := notifier.payloads[1].(map[string]any)
	if !ok {
		t.Fatalf("unexpected payload type %T", notifier.payloads[1])
	}
	if payload["cached"] != true {
		t.Errorf("second notification should carry cached=true, got %v", payload["cached"])
	}
}

func TestDispatch_WhenNotifierAbsent_ShouldNotPanic(t *testing.T) {
	tool := &fakeTool{name: "ping", result: "alive"}
	dispatcher := newTestDispatcher(t, nil, tool)

	dispatcher.Dispatch(context.Background(), pingCall("example.com"), newDedupCache(), nil)
}
