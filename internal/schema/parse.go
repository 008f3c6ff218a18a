package schema

import (
	"encoding/json"
	"strings"

	"cardforge/internal/util/jsonutil"
)

// ParseStructuredResponse extracts the JSON payload from a model
// response that was asked for structured output. Models occasionally
// wrap the payload in prose or a fenced code block; the parser tries the
// raw text first, then the first fenced block, before giving up.
func ParseStructuredResponse(text string) (json.RawMessage, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, false
	}
	if raw, ok := tryJSON(trimmed); ok {
		return raw, true
	}
	if block, ok := fencedBlock(trimmed); ok {
		if raw, ok := tryJSON(block); ok {
			return raw, true
		}
	}
	return nil, false
}

func tryJSON(text string) (json.RawMessage, bool) {
	var v any
	if err := jsonutil.UnmarshalFlex([]byte(text), &v); err != nil {
		return nil, false
	}
	switch v.(type) {
	case map[string]any, []any:
		out, err := jsonutil.MarshalNoEscape(v)
		if err != nil {
			return nil, false
		}
		return json.RawMessage(out), true
	}
	return nil, false
}

// fencedBlock returns the body of the first ``` fence, tolerating an
// optional language tag.
func fencedBlock(text string) (string, bool) {
	start := strings.Index(text, "```")
	if start < 0 {
		return "", false
	}
	rest := text[start+3:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		// Drop the language tag line ("json", "jsonc", ...).
		first := strings.TrimSpace(rest[:nl])
		if len(first) <= 8 && !strings.ContainsAny(first, "{[") {
			rest = rest[nl+1:]
		}
	}
	end := strings.Index(rest, "```")
	if end < 0 {
		return "", false
	}
	body := strings.TrimSpace(rest[:end])
	if body == "" {
		return "", false
	}
	return body, true
}
