package pipeline

import (
	"bytes"
	"encoding/json"
	"strings"
)

// ParseObject recovers the JSON object a completion backend was asked to
// return. Code fences are stripped first; if the remainder does not parse,
// the span from the first '{' to the last '}' is tried. Anything that still
// fails yields an empty map. Numbers are kept as json.Number.
func ParseObject(text string) map[string]any {
	text = stripFences(text)

	if obj, ok := decodeObject(text); ok {
		return obj
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		if obj, ok := decodeObject(text[start : end+1]); ok {
			return obj
		}
	}
	return map[string]any{}
}

func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	// Drop the info string ("json", "JSON", ...) on the opening fence line.
	if nl := strings.IndexByte(text, '\n'); nl >= 0 && !strings.Contains(text[:nl], "{") {
		text = text[nl+1:]
	}
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}

func decodeObject(s string) (map[string]any, bool) {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil || obj == nil {
		return nil, false
	}
	// Trailing content means the object was only a prefix of the text.
	if dec.More() {
		return nil, false
	}
	return obj, true
}
