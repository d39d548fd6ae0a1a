package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"argus/internal/domain"
	"argus/internal/tooling"
)

// Dispatcher routes one tool call to its implementation, validating arguments
// first and converting every failure into an observation the model can read.
// A tool failure never aborts the run.
type Dispatcher struct {
	registry *tooling.ToolRegistry
	notifier domain.Notifier
	logger   *slog.Logger
}

func NewDispatcher(registry *tooling.ToolRegistry, notifier domain.Notifier, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{registry: registry, notifier: notifier, logger: logger}
}

// Definitions exposes the registry's tool declarations for the backend call.
func (d *Dispatcher) Definitions() []domain.ToolDefinition {
	return d.registry.Definitions()
}

// Dispatch resolves one tool call to the observation appended to the
// conversation, always prefixed "Result of <name>:". A call whose key the
// cache has already answered is served from memory without re-executing; the
// returned bool reports that. Unknown tools, invalid arguments and execution
// failures all produce observations, never run aborts.
func (d *Dispatcher) Dispatch(ctx context.Context, call domain.ToolCall, cache *dedupCache, history []domain.Turn) (string, bool) {
	if obs, ok := cache.lookup(call, history); ok {
		d.logger.Info("serving tool call from cache", "tool", call.Name)
		d.notify(call.Name, obs, true)
		return obs, true
	}

	observation := d.execute(ctx, call)
	cache.record(DedupKey(call), observation)
	d.notify(call.Name, observation, false)
	return observation, false
}

func (d *Dispatcher) notify(tool, observation string, cached bool) {
	if d.notifier == nil {
		return
	}
	d.notifier.Notify("agent-tool-result", map[string]any{
		"tool":   tool,
		"result": observation,
		"cached": cached,
	})
}

func (d *Dispatcher) execute(ctx context.Context, call domain.ToolCall) string {
	tool, err := d.registry.Get(call.Name)
	if err != nil {
		d.logger.Warn("unknown tool requested", "tool", call.Name)
		return observe(call.Name, fmt.Sprintf("tool not found: %s", call.Name))
	}

	for _, field := range tooling.RequiredFields(tool.Definition()) {
		if _, ok := call.Args[field]; !ok {
			return observe(call.Name, fmt.Sprintf("missing argument %q", field))
		}
	}

	rawArgs, err := json.Marshal(call.Args)
	if err != nil {
		return observe(call.Name, fmt.Sprintf("unencodable arguments: %v", err))
	}

	d.logger.Info("dispatching tool", "tool", call.Name)
	result, err := tool.Call(ctx, rawArgs)
	if err != nil {
		d.logger.Warn("tool failed", "tool", call.Name, "error", err)
		return observe(call.Name, err.Error())
	}
	return observe(call.Name, result.Data)
}

// observe formats a tool outcome as the conversation observation.
func observe(name, body string) string {
	return observationPrefix + name + ": " + body
}
