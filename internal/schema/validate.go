// Package schema validates and repairs structured-output schemas against
// a strict provider contract: a restricted JSON Schema dialect with hard
// feature limits. Validation never mutates its input; AutoFix returns a
// new value tree.
package schema

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// OutputSchema is the canonical wrapper accepted by the completion
// boundary: a bare-identifier name, a strictness flag, and the value
// tree.
type OutputSchema struct {
	Name   string         `json:"name"`
	Strict bool           `json:"strict"`
	Value  map[string]any `json:"value"`
}

// Result aggregates the validation outcome. Error is a newline-joined
// summary of every hard failure; Warnings and Info are advisory. Schema
// is populated only when Valid, with Strict defaulted to true.
type Result struct {
	Valid    bool          `json:"valid"`
	Error    string        `json:"error,omitempty"`
	Warnings []string      `json:"warnings,omitempty"`
	Info     []string      `json:"info,omitempty"`
	Schema   *OutputSchema `json:"schema,omitempty"`
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

// Validate checks a raw schema description. Empty input is valid and
// means structured output is disabled (explicit opt-out).
func Validate(input string) Result {
	if strings.TrimSpace(input) == "" {
		return Result{Valid: true, Info: []string{"structured output disabled"}}
	}

	var envelope map[string]any
	if err := json.Unmarshal([]byte(input), &envelope); err != nil {
		return Result{Valid: false, Error: fmt.Sprintf("schema is not valid JSON: %v", err)}
	}

	var errs []string
	name, _ := envelope["name"].(string)
	if strings.TrimSpace(name) == "" {
		errs = append(errs, "schema name is required")
	} else if !identRe.MatchString(name) {
		errs = append(errs, fmt.Sprintf("schema name %q is not a valid identifier", name))
	}

	strict := true
	if raw, ok := envelope["strict"]; ok {
		b, isBool := raw.(bool)
		if !isBool {
			errs = append(errs, "strict must be a boolean")
		} else {
			strict = b
		}
	}

	value, ok := envelope["value"].(map[string]any)
	if !ok {
		errs = append(errs, "schema value must be an object")
		return Result{Valid: false, Error: strings.Join(errs, "\n")}
	}
	if !hasSchemaShape(value) {
		errs = append(errs, "schema value must carry type, anyOf, allOf, or $ref")
	}

	w := newWalker(value)
	w.walk(value, "value", 1)
	w.finish()

	errs = append(errs, w.errors...)
	if len(errs) > 0 {
		return Result{Valid: false, Error: strings.Join(errs, "\n"), Warnings: w.warnings, Info: w.infoLines()}
	}
	return Result{
		Valid:    true,
		Warnings: w.warnings,
		Info:     w.infoLines(),
		Schema:   &OutputSchema{Name: name, Strict: strict, Value: value},
	}
}

func hasSchemaShape(node map[string]any) bool {
	for _, key := range []string{"type", "anyOf", "allOf", "$ref"} {
		if _, ok := node[key]; ok {
			return true
		}
	}
	return false
}

type walker struct {
	errors   []string
	warnings []string

	defs    map[string]map[string]any
	visited map[string]bool

	defCount      int
	anyOfBlocks   int
	anyOfBranches int
	deepest       int
	propCount     int
	optionalProps int
	enumNodes     int
	nodeCount     int
}

func newWalker(root map[string]any) *walker {
	w := &walker{
		defs:    map[string]map[string]any{},
		visited: map[string]bool{},
	}
	for _, key := range []string{"$defs", "definitions"} {
		defs, ok := root[key].(map[string]any)
		if !ok {
			continue
		}
		for name, raw := range defs {
			if def, ok := raw.(map[string]any); ok {
				w.defs[name] = def
				w.defCount++
			}
		}
	}
	return w
}

func (w *walker) errorf(path, format string, args ...any) {
	w.errors = append(w.errors, path+": "+fmt.Sprintf(format, args...))
}

func (w *walker) warnf(path, format string, args ...any) {
	w.warnings = append(w.warnings, path+": "+fmt.Sprintf(format, args...))
}

func (w *walker) walk(node map[string]any, path string, depth int) {
	w.nodeCount++
	if depth > w.deepest {
		w.deepest = depth
	}
	if depth > maxDepth {
		w.errorf(path, "nesting depth %d exceeds the maximum of %d", depth, maxDepth)
		return
	}

	for _, key := range unsupportedKeywords {
		if _, ok := node[key]; ok {
			w.errorf(path, "%q is not supported by the provider", key)
		}
	}
	for _, key := range ignoredKeywords {
		if _, ok := node[key]; ok {
			w.warnf(path, "%q is ignored by the provider", key)
		}
	}

	if raw, ok := node["$ref"]; ok {
		w.walkRef(raw, path, depth)
		return
	}

	if branches, ok := node["anyOf"].([]any); ok {
		w.anyOfBlocks++
		w.anyOfBranches += len(branches)
		if len(branches) > maxAnyOfBranches {
			w.errorf(path, "anyOf has %d branches; the maximum is %d", len(branches), maxAnyOfBranches)
		}
		for i, raw := range branches {
			if branch, ok := raw.(map[string]any); ok {
				w.walk(branch, fmt.Sprintf("%s.anyOf[%d]", path, i), depth+1)
			}
		}
	}
	if branches, ok := node["allOf"].([]any); ok {
		for i, raw := range branches {
			if branch, ok := raw.(map[string]any); ok {
				w.walk(branch, fmt.Sprintf("%s.allOf[%d]", path, i), depth+1)
			}
		}
	}

	if raw, ok := node["enum"]; ok {
		w.walkEnum(raw, path)
	}
	if raw, ok := node["const"]; ok {
		if !isPrimitive(raw) {
			w.errorf(path, "const values must be primitive JSON types")
		}
	}

	switch typeName(node) {
	case "object":
		w.walkObject(node, path, depth)
	case "array":
		w.walkArray(node, path, depth)
	case "string":
		w.walkString(node, path)
	}
}

func (w *walker) walkRef(raw any, path string, depth int) {
	ref, ok := raw.(string)
	if !ok {
		w.errorf(path, "$ref must be a string")
		return
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		w.errorf(path, "external $ref %q is not supported", ref)
		return
	}
	name := ref
	for _, prefix := range []string{"#/$defs/", "#/definitions/"} {
		if strings.HasPrefix(ref, prefix) {
			name = strings.TrimPrefix(ref, prefix)
			break
		}
	}
	target, ok := w.defs[name]
	if !ok {
		w.errorf(path, "$ref %q does not resolve to a definition", ref)
		return
	}
	// Cycles are tolerated: the provider handles recursive schemas, we
	// just stop walking.
	if w.visited[name] {
		return
	}
	w.visited[name] = true
	w.walk(target, "$defs."+name, depth+1)
}

func (w *walker) walkObject(node map[string]any, path string, depth int) {
	if raw, ok := node["additionalProperties"]; !ok {
		w.warnf(path, "additionalProperties: false is missing; strict providers may reject this object")
	} else if allowed, isBool := raw.(bool); !isBool || allowed {
		w.warnf(path, "additionalProperties should be false for strict output")
	}

	props, _ := node["properties"].(map[string]any)
	if len(props) > maxObjectProps {
		w.errorf(path, "object has %d properties; the maximum is %d", len(props), maxObjectProps)
	}
	required := map[string]bool{}
	if raw, ok := node["required"].([]any); ok {
		for _, r := range raw {
			if s, ok := r.(string); ok {
				required[s] = true
			}
		}
	}
	for name, raw := range props {
		w.propCount++
		if !required[name] {
			w.optionalProps++
		}
		if child, ok := raw.(map[string]any); ok {
			w.walk(child, path+".properties."+name, depth+1)
		}
	}
}

func (w *walker) walkArray(node map[string]any, path string, depth int) {
	if raw, ok := node["minItems"]; ok {
		if n, isNum := raw.(float64); !isNum || (n != 0 && n != 1) {
			w.errorf(path, "minItems must be 0 or 1")
		}
	}
	if items, ok := node["items"].(map[string]any); ok {
		w.walk(items, path+".items", depth+1)
	}
}

func (w *walker) walkString(node map[string]any, path string) {
	if raw, ok := node["format"]; ok {
		format, _ := raw.(string)
		if !supportedFormats[format] {
			w.errorf(path, "format %q is not in the supported set", format)
		}
	}
	if raw, ok := node["pattern"]; ok {
		pattern, isStr := raw.(string)
		if !isStr {
			w.errorf(path, "pattern must be a string")
			return
		}
		if _, err := regexp.Compile(pattern); err != nil {
			w.errorf(path, "pattern does not compile: %v", err)
			return
		}
		for _, construct := range unsupportedRegex {
			if strings.Contains(pattern, construct) {
				w.errorf(path, "pattern uses unsupported construct %q", construct)
			}
		}
	}
}

func (w *walker) walkEnum(raw any, path string) {
	values, ok := raw.([]any)
	if !ok {
		w.errorf(path, "enum must be an array")
		return
	}
	w.enumNodes++
	if len(values) > maxEnumValues {
		w.errorf(path, "enum has %d values; the maximum is %d", len(values), maxEnumValues)
	}
	seen := map[string]bool{}
	for _, v := range values {
		if !isPrimitive(v) {
			w.errorf(path, "enum values must be primitive JSON types")
			continue
		}
		key := fmt.Sprintf("%T:%v", v, v)
		if seen[key] {
			w.errorf(path, "enum contains duplicate value %v", v)
		}
		seen[key] = true
	}
}

// finish applies the post-walk aggregate checks.
func (w *walker) finish() {
	if w.defCount > maxDefs {
		w.errors = append(w.errors, fmt.Sprintf("schema declares %d definitions; the maximum is %d", w.defCount, maxDefs))
	}
	// Every optional property implies an anyOf-with-null branch pair
	// under the provider's strict semantics.
	implicit := w.anyOfBranches + w.optionalProps*2
	if w.optionalProps > manyOptionalFields {
		w.warnings = append(w.warnings, fmt.Sprintf("%d optional fields; each adds implicit anyOf branches and inflates schema cost", w.optionalProps))
	}
	if implicit > maxTotalAnyOf {
		w.warnings = append(w.warnings, fmt.Sprintf("effective anyOf branch count %d exceeds the comfortable limit of %d", implicit, maxTotalAnyOf))
	}
}

func (w *walker) infoLines() []string {
	return []string{
		fmt.Sprintf("nodes: %d", w.nodeCount),
		fmt.Sprintf("definitions: %d", w.defCount),
		fmt.Sprintf("max depth: %d", w.deepest),
		fmt.Sprintf("properties: %d (%d optional)", w.propCount, w.optionalProps),
		fmt.Sprintf("anyOf blocks: %d (%d branches)", w.anyOfBlocks, w.anyOfBranches),
		fmt.Sprintf("enums: %d", w.enumNodes),
	}
}

func typeName(node map[string]any) string {
	t, _ := node["type"].(string)
	return t
}

func isPrimitive(v any) bool {
	switch v.(type) {
	case string, float64, bool, nil:
		return true
	}
	return false
}
