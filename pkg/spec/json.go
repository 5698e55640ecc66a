package spec

import (
	"encoding/json"
	"strings"
)

// ExtractJSONObject pulls the first JSON object out of model output that may
// be wrapped in prose or markdown fences. Returns nil when no parseable
// object is present.
func ExtractJSONObject(raw string) map[string]any {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil
	}

	candidate := text
	if !strings.HasPrefix(strings.TrimLeft(text, " \t\r\n"), "{") {
		start := strings.Index(text, "{")
		end := strings.LastIndex(text, "}")
		if start == -1 || end == -1 || end <= start {
			return nil
		}
		candidate = text[start : end+1]
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(candidate), &payload); err != nil {
		return nil
	}
	return payload
}
