package schema

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
)

func envelope(t *testing.T, value map[string]any) string {
	t.Helper()
	raw, err := json.Marshal(map[string]any{"name": "report", "strict": true, "value": value})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return string(raw)
}

func objectSchema(props map[string]any, required ...string) map[string]any {
	node := map[string]any{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		req := make([]any, len(required))
		for i, r := range required {
			req[i] = r
		}
		node["required"] = req
	}
	return node
}

func TestValidateEmptyInputDisablesStructuredOutput(t *testing.T) {
	for _, input := range []string{"", "   ", "\n\t"} {
		res := Validate(input)
		if !res.Valid {
			t.Fatalf("%q: empty input rejected: %s", input, res.Error)
		}
		if res.Schema != nil {
			t.Fatalf("%q: schema populated for empty input", input)
		}
	}
}

func TestValidateEnvelopeErrors(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"not json", "{broken", "not valid JSON"},
		{"missing name", `{"value":{"type":"object","properties":{}}}`, "name is required"},
		{"bad name", `{"name":"my schema!","value":{"type":"string"}}`, "not a valid identifier"},
		{"bad strict", `{"name":"r","strict":"yes","value":{"type":"string"}}`, "strict must be a boolean"},
		{"missing value", `{"name":"r"}`, "value must be an object"},
		{"value not schema", `{"name":"r","value":{"title":"x"}}`, "must carry type, anyOf, allOf, or $ref"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := Validate(tc.input)
			if res.Valid {
				t.Fatalf("validated")
			}
			if !strings.Contains(res.Error, tc.wantErr) {
				t.Fatalf("error %q does not contain %q", res.Error, tc.wantErr)
			}
		})
	}
}

func TestValidateStrictDefaultsTrue(t *testing.T) {
	res := Validate(`{"name":"report","value":{"type":"string"}}`)
	if !res.Valid {
		t.Fatalf("rejected: %s", res.Error)
	}
	if !res.Schema.Strict {
		t.Fatalf("strict not defaulted to true")
	}
}

func TestValidateUnsupportedKeywords(t *testing.T) {
	for _, key := range []string{"oneOf", "not", "if", "unevaluatedProperties"} {
		value := map[string]any{"type": "object", "properties": map[string]any{}, "additionalProperties": false, key: map[string]any{}}
		res := Validate(envelope(t, value))
		if res.Valid {
			t.Fatalf("%s accepted", key)
		}
		if !strings.Contains(res.Error, fmt.Sprintf("%q is not supported", key)) {
			t.Fatalf("%s: error %q", key, res.Error)
		}
	}
}

func TestValidateIgnoredKeywordsWarn(t *testing.T) {
	value := objectSchema(map[string]any{
		"title": map[string]any{"type": "string", "minLength": float64(3)},
	}, "title")
	res := Validate(envelope(t, value))
	if !res.Valid {
		t.Fatalf("rejected: %s", res.Error)
	}
	if len(res.Warnings) == 0 || !strings.Contains(strings.Join(res.Warnings, "\n"), `"minLength" is ignored`) {
		t.Fatalf("warnings: %v", res.Warnings)
	}
}

func TestValidateAnyOfBranchLimit(t *testing.T) {
	branches := make([]any, maxAnyOfBranches+2)
	for i := range branches {
		branches[i] = map[string]any{"type": "string"}
	}
	res := Validate(envelope(t, map[string]any{"anyOf": branches}))
	if res.Valid {
		t.Fatalf("oversized anyOf accepted")
	}
	want := fmt.Sprintf("anyOf has %d branches; the maximum is %d", maxAnyOfBranches+2, maxAnyOfBranches)
	if !strings.Contains(res.Error, want) {
		t.Fatalf("error %q does not contain %q", res.Error, want)
	}

	// At the limit it passes.
	res = Validate(envelope(t, map[string]any{"anyOf": branches[:maxAnyOfBranches]}))
	if !res.Valid {
		t.Fatalf("anyOf at the limit rejected: %s", res.Error)
	}
}

func TestValidateMissingAdditionalPropertiesWarns(t *testing.T) {
	value := map[string]any{
		"type":       "object",
		"properties": map[string]any{"title": map[string]any{"type": "string"}},
		"required":   []any{"title"},
	}
	res := Validate(envelope(t, value))
	if !res.Valid {
		t.Fatalf("rejected: %s", res.Error)
	}
	if !strings.Contains(strings.Join(res.Warnings, "\n"), "additionalProperties") {
		t.Fatalf("warnings: %v", res.Warnings)
	}
}

func TestValidateDepthLimit(t *testing.T) {
	// Build a chain one level past the maximum.
	leaf := map[string]any{"type": "string"}
	node := leaf
	for i := 0; i < maxDepth; i++ {
		node = objectSchema(map[string]any{"child": node}, "child")
	}
	res := Validate(envelope(t, node))
	if res.Valid {
		t.Fatalf("over-deep schema accepted")
	}
	if !strings.Contains(res.Error, "nesting depth") {
		t.Fatalf("error: %s", res.Error)
	}
}

func TestValidateRefResolution(t *testing.T) {
	value := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"author": map[string]any{"$ref": "#/$defs/person"},
		},
		"required":             []any{"author"},
		"additionalProperties": false,
		"$defs": map[string]any{
			"person": objectSchema(map[string]any{"name": map[string]any{"type": "string"}}, "name"),
		},
	}
	if res := Validate(envelope(t, value)); !res.Valid {
		t.Fatalf("rejected: %s", res.Error)
	}

	value["properties"].(map[string]any)["author"] = map[string]any{"$ref": "#/$defs/ghost"}
	res := Validate(envelope(t, value))
	if res.Valid || !strings.Contains(res.Error, "does not resolve") {
		t.Fatalf("dangling $ref: valid=%v error=%s", res.Valid, res.Error)
	}
}

func TestValidateExternalRefRejected(t *testing.T) {
	value := map[string]any{"$ref": "https://example.com/schema.json"}
	res := Validate(envelope(t, value))
	if res.Valid || !strings.Contains(res.Error, "external $ref") {
		t.Fatalf("valid=%v error=%s", res.Valid, res.Error)
	}
}

func TestValidateRecursiveRefTolerated(t *testing.T) {
	value := map[string]any{
		"$ref": "#/$defs/node",
		"$defs": map[string]any{
			"node": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"next": map[string]any{"$ref": "#/$defs/node"},
					"name": map[string]any{"type": "string"},
				},
				"required":             []any{"name"},
				"additionalProperties": false,
			},
		},
	}
	if res := Validate(envelope(t, value)); !res.Valid {
		t.Fatalf("recursive schema rejected: %s", res.Error)
	}
}

func TestValidateStringConstraints(t *testing.T) {
	res := Validate(envelope(t, map[string]any{"type": "string", "format": "uuid"}))
	if !res.Valid {
		t.Fatalf("supported format rejected: %s", res.Error)
	}

	res = Validate(envelope(t, map[string]any{"type": "string", "format": "uri"}))
	if res.Valid || !strings.Contains(res.Error, `format "uri"`) {
		t.Fatalf("unsupported format: valid=%v error=%s", res.Valid, res.Error)
	}

	res = Validate(envelope(t, map[string]any{"type": "string", "pattern": "[a-z"}))
	if res.Valid || !strings.Contains(res.Error, "does not compile") {
		t.Fatalf("broken pattern: valid=%v error=%s", res.Valid, res.Error)
	}

	res = Validate(envelope(t, map[string]any{"type": "string", "pattern": `(?=foo)bar`}))
	if res.Valid || !strings.Contains(res.Error, "unsupported construct") {
		t.Fatalf("lookahead pattern: valid=%v error=%s", res.Valid, res.Error)
	}

	res = Validate(envelope(t, map[string]any{"type": "string", "pattern": `^[a-z]+$`}))
	if !res.Valid {
		t.Fatalf("plain pattern rejected: %s", res.Error)
	}
}

func TestValidateEnum(t *testing.T) {
	res := Validate(envelope(t, map[string]any{"type": "string", "enum": []any{"a", "b", "a"}}))
	if res.Valid || !strings.Contains(res.Error, "duplicate value") {
		t.Fatalf("duplicate enum: valid=%v error=%s", res.Valid, res.Error)
	}

	res = Validate(envelope(t, map[string]any{"type": "string", "enum": []any{"a", map[string]any{}}}))
	if res.Valid || !strings.Contains(res.Error, "primitive") {
		t.Fatalf("object enum value: valid=%v error=%s", res.Valid, res.Error)
	}

	// Same text, different JSON types: not duplicates.
	res = Validate(envelope(t, map[string]any{"enum": []any{"1", float64(1)}, "type": "string"}))
	if !res.Valid {
		t.Fatalf("mixed-type enum rejected: %s", res.Error)
	}
}

func TestValidateMinItems(t *testing.T) {
	res := Validate(envelope(t, map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "minItems": float64(1)}))
	if !res.Valid {
		t.Fatalf("minItems 1 rejected: %s", res.Error)
	}
	res = Validate(envelope(t, map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "minItems": float64(3)}))
	if res.Valid || !strings.Contains(res.Error, "minItems must be 0 or 1") {
		t.Fatalf("minItems 3: valid=%v error=%s", res.Valid, res.Error)
	}
}

func TestValidateOptionalFieldWarning(t *testing.T) {
	props := map[string]any{}
	for i := 0; i < manyOptionalFields+2; i++ {
		props[fmt.Sprintf("field%02d", i)] = map[string]any{"type": "string"}
	}
	res := Validate(envelope(t, objectSchema(props))) // nothing required
	if !res.Valid {
		t.Fatalf("rejected: %s", res.Error)
	}
	joined := strings.Join(res.Warnings, "\n")
	if !strings.Contains(joined, "optional fields") {
		t.Fatalf("warnings: %v", res.Warnings)
	}
}

func TestComplexityScore(t *testing.T) {
	simple := objectSchema(map[string]any{"title": map[string]any{"type": "string"}}, "title")
	if got := Score(simple); got != ComplexitySimple {
		t.Fatalf("simple schema scored %q", got)
	}

	props := map[string]any{}
	for i := 0; i < 20; i++ {
		props[fmt.Sprintf("field%02d", i)] = map[string]any{"type": "string"}
	}
	if got := Score(objectSchema(props)); got == ComplexitySimple {
		t.Fatalf("wide optional-field schema scored simple")
	}
	if got := Score(nil); got != ComplexitySimple {
		t.Fatalf("nil schema scored %q", got)
	}
}
