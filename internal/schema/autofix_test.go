package schema

import (
	"strings"
	"testing"
)

func TestAutoFixForcesAdditionalProperties(t *testing.T) {
	value := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"meta": map[string]any{
				"type":       "object",
				"properties": map[string]any{"tag": map[string]any{"type": "string"}},
				"required":   []any{"tag"},
			},
		},
		"required": []any{"meta"},
	}

	before := Validate(envelope(t, value))
	if !before.Valid || len(before.Warnings) == 0 {
		t.Fatalf("setup: valid=%v warnings=%v", before.Valid, before.Warnings)
	}

	fixed := AutoFix(value)
	after := Validate(envelope(t, fixed))
	if !after.Valid {
		t.Fatalf("fixed schema rejected: %s", after.Error)
	}
	for _, w := range after.Warnings {
		if strings.Contains(w, "additionalProperties") {
			t.Fatalf("additionalProperties warning survived the fix: %s", w)
		}
	}
	if fixed["additionalProperties"] != false {
		t.Fatalf("root additionalProperties not forced")
	}
	nested := fixed["properties"].(map[string]any)["meta"].(map[string]any)
	if nested["additionalProperties"] != false {
		t.Fatalf("nested additionalProperties not forced")
	}
}

func TestAutoFixStripsIgnoredKeywords(t *testing.T) {
	value := map[string]any{
		"type":        "string",
		"description": "A title.",
		"minLength":   float64(3),
		"maxLength":   float64(80),
	}

	fixed := AutoFix(value)
	if _, ok := fixed["minLength"]; ok {
		t.Fatalf("minLength survived")
	}
	desc, _ := fixed["description"].(string)
	if !strings.Contains(desc, "A title.") || !strings.Contains(desc, "constraints removed") {
		t.Fatalf("description: %q", desc)
	}
	if !strings.Contains(desc, "minLength=3") || !strings.Contains(desc, "maxLength=80") {
		t.Fatalf("removed constraints not summarized: %q", desc)
	}
}

func TestAutoFixClampsMinItems(t *testing.T) {
	value := map[string]any{
		"type":     "array",
		"items":    map[string]any{"type": "string"},
		"minItems": float64(5),
	}
	fixed := AutoFix(value)
	if got := fixed["minItems"]; got != float64(1) {
		t.Fatalf("minItems: got %v want 1", got)
	}
}

func TestAutoFixDoesNotMutateInput(t *testing.T) {
	value := map[string]any{
		"type":       "object",
		"properties": map[string]any{"title": map[string]any{"type": "string", "minLength": float64(3)}},
	}
	_ = AutoFix(value)

	if _, ok := value["additionalProperties"]; ok {
		t.Fatalf("input gained additionalProperties")
	}
	child := value["properties"].(map[string]any)["title"].(map[string]any)
	if _, ok := child["minLength"]; !ok {
		t.Fatalf("input lost minLength")
	}
}
