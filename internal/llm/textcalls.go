package llm

import (
	"encoding/json"
	"strings"

	"argus/internal/domain"
)

// Some backends emit tool-call intent as plain text containing embedded JSON
// objects instead of using the structured call channel. ScanForEmbeddedCalls
// walks the text tracking brace depth (string- and escape-aware, so braces
// inside JSON strings do not confuse the scan), extracts every balanced
// top-level object, and keeps the ones that look like tool calls: an object
// with a name field ("name" or "tool") and an arguments object ("args",
// "parameters", or "arguments").
//
// It returns the recognized calls in order plus the surrounding prose with the
// matched objects removed.
func ScanForEmbeddedCalls(text string) ([]domain.ToolCall, string) {
	var calls []domain.ToolCall
	var prose strings.Builder

	depth := 0
	inString := false
	escaped := false
	var object strings.Builder

	for _, r := range text {
		if depth == 0 {
			if r == '{' {
				depth = 1
				object.Reset()
				object.WriteRune(r)
				continue
			}
			prose.WriteRune(r)
			continue
		}

		object.WriteRune(r)
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}
		switch r {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				candidate := object.String()
				if call, ok := parseCallObject(candidate); ok {
					calls = append(calls, call)
				} else {
					// Not a tool call: keep the object as prose.
					prose.WriteString(candidate)
				}
			}
		}
	}
	// An unterminated object is prose, not a call.
	if depth > 0 {
		prose.WriteString(object.String())
	}

	return calls, strings.TrimSpace(prose.String())
}

// parseCallObject decodes one candidate JSON object and extracts a ToolCall
// when it carries a recognizable name and arguments field.
func parseCallObject(raw string) (domain.ToolCall, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return domain.ToolCall{}, false
	}

	name := ""
	for _, key := range []string{"name", "tool"} {
		if s, ok := obj[key].(string); ok && s != "" {
			name = s
			break
		}
	}
	if name == "" {
		return domain.ToolCall{}, false
	}

	for _, key := range []string{"args", "parameters", "arguments"} {
		if m, ok := obj[key].(map[string]any); ok {
			return domain.ToolCall{Name: name, Args: CoerceArgs(m)}, true
		}
	}
	return domain.ToolCall{}, false
}

// CoerceArgs flattens a decoded JSON object into the flat string map every
// tool receives. Non-string values serialize to their compact JSON form.
func CoerceArgs(raw map[string]any) map[string]string {
	args := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			args[k] = s
			continue
		}
		data, err := json.Marshal(v)
		if err != nil {
			continue
		}
		args[k] = string(data)
	}
	return args
}
