package scheduler

import (
	"context"
	"encoding/json"
	"fmt"

	"argus/internal/domain"
	"argus/internal/tooling"
)

// NewToolHandler builds the EventHandler wired to the tool registry: when a
// watch fires, its tool runs with the stored arguments and the observation is
// published through the notifier as a "watch-result" event. notifier may be
// nil for detached runs.
func NewToolHandler(registry *tooling.ToolRegistry, notifier domain.Notifier) EventHandler {
	return func(ctx context.Context, job Job) error {
		tool, err := registry.Get(job.Tool)
		if err != nil {
			return err
		}
		rawArgs, err := json.Marshal(job.Args)
		if err != nil {
			return fmt.Errorf("scheduler: encode args for %q: %w", job.ID, err)
		}

		observation := ""
		result, callErr := tool.Call(ctx, rawArgs)
		if callErr != nil {
			observation = fmt.Sprintf("Result of %s: %s", job.Tool, callErr.Error())
		} else {
			observation = fmt.Sprintf("Result of %s: %s", job.Tool, result.Data)
		}

		if notifier != nil {
			notifier.Notify("watch-result", map[string]any{
				"job":    job.ID,
				"name":   job.Name,
				"tool":   job.Tool,
				"result": observation,
			})
		}
		return nil
	}
}
