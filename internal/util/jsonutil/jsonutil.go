// Package jsonutil holds tolerant JSON helpers for model output, which
// sometimes arrives double-escaped or with HTML-escaped unicode.
package jsonutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// MarshalNoEscape encodes v without escaping <, >, & into < etc.
func MarshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalFlex unmarshals raw into v, normalizing double-escaped
// unicode sequences when a direct unmarshal fails.
func UnmarshalFlex(raw []byte, v any) error {
	if err := json.Unmarshal(raw, v); err == nil {
		return nil
	}
	norm, err := normalizeUnicode(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(norm, v)
}

// normalizeUnicode parses JSON bytes, unwrapping one level of
// string-encoding if needed, and re-encodes with unicode escapes
// resolved in every string value.
func normalizeUnicode(raw []byte) ([]byte, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	// A payload that decodes to a bare string is one level
	// string-encoded; unwrap it.
	if s, ok := v.(string); ok {
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			return nil, errors.New("jsonutil: payload is not JSON after unwrapping")
		}
	}
	return MarshalNoEscape(deepUnescape(v))
}

// deepUnescape resolves residual \uXXXX sequences in string values.
func deepUnescape(v any) any {
	switch x := v.(type) {
	case string:
		if !strings.Contains(x, `\u`) {
			return x
		}
		esc := strings.ReplaceAll(x, `\`, `\\`)
		esc = strings.ReplaceAll(esc, `"`, `\"`)
		var out string
		if err := json.Unmarshal([]byte(`"`+esc+`"`), &out); err != nil {
			return x
		}
		return out
	case []any:
		for i := range x {
			x[i] = deepUnescape(x[i])
		}
		return x
	case map[string]any:
		for k, vv := range x {
			x[k] = deepUnescape(vv)
		}
		return x
	default:
		return v
	}
}
