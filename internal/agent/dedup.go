package agent

import (
	"encoding/json"
	"sort"
	"strings"

	"argus/internal/domain"
)

// observationPrefix marks tool observations in the conversation history. The
// dedup cache falls back to scanning for it when a repeated call has no
// structured observation recorded.
const observationPrefix = "Result of "

// DedupKey derives the identity of a tool invocation: the tool name plus the
// argument values, sorted and comma-joined. Two calls with the same key are
// the same request regardless of argument order.
func DedupKey(call domain.ToolCall) string {
	values := make([]string, 0, len(call.Args))
	for _, v := range call.Args {
		values = append(values, v)
	}
	sort.Strings(values)
	return call.Name + ":" + strings.Join(values, ",")
}

// dedupCache tracks which tool calls have already been executed in a session
// and what they observed, so a repeated request is answered from memory
// instead of re-probing the target.
type dedupCache struct {
	seen     map[string]bool
	obsByKey map[string]string
}

func newDedupCache() *dedupCache {
	return &dedupCache{
		seen:     make(map[string]bool),
		obsByKey: make(map[string]string),
	}
}

// seed replays prior history into the cache: model turns that record tool-call
// batches mark their keys as seen, so resumed sessions do not repeat probes
// the case already answered.
func (c *dedupCache) seed(history []domain.Turn) {
	for _, turn := range history {
		if turn.Role != domain.RoleModel {
			continue
		}
		content := strings.TrimSpace(turn.Content)
		if !strings.HasPrefix(content, "[") {
			continue
		}
		var calls []domain.ToolCall
		if err := json.Unmarshal([]byte(content), &calls); err != nil {
			continue
		}
		for _, call := range calls {
			if call.Name != "" {
				c.seen[DedupKey(call)] = true
			}
		}
	}
}

// record stores the observation for a key and marks it seen.
func (c *dedupCache) record(key, observation string) {
	c.seen[key] = true
	c.obsByKey[key] = observation
}

// lookup returns the cached observation for a repeated call. The structured
// map is authoritative; when a key was only seen in seeded history the most
// recent matching observation is recovered by scanning the history backwards.
// A seen key with no recoverable observation falls through to real execution.
func (c *dedupCache) lookup(call domain.ToolCall, history []domain.Turn) (string, bool) {
	key := DedupKey(call)
	if !c.seen[key] {
		return "", false
	}
	if obs, ok := c.obsByKey[key]; ok {
		return obs, true
	}
	marker := observationPrefix + call.Name + ":"
	for i := len(history) - 1; i >= 0; i-- {
		if strings.HasPrefix(history[i].Content, marker) {
			return history[i].Content, true
		}
	}
	return "", false
}
