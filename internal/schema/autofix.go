package schema

import (
	"fmt"
	"sort"
	"strings"
)

// AutoFix returns a repaired copy of a schema value tree. The input is
// never mutated. Fixes applied recursively:
//   - additionalProperties: false forced on every object node
//   - provider-ignored constraint keywords stripped, with a readable
//     summary folded into the node's description so the intent survives
//   - array minItems clamped to the supported {0, 1} range
func AutoFix(value map[string]any) map[string]any {
	if value == nil {
		return nil
	}
	return fixNode(deepCopy(value).(map[string]any))
}

func fixNode(node map[string]any) map[string]any {
	stripped := stripIgnored(node)
	if len(stripped) > 0 {
		note := "(constraints removed: " + strings.Join(stripped, ", ") + ")"
		if desc, _ := node["description"].(string); desc != "" {
			node["description"] = desc + " " + note
		} else {
			node["description"] = note
		}
	}

	switch typeName(node) {
	case "object":
		node["additionalProperties"] = false
		if props, ok := node["properties"].(map[string]any); ok {
			for name, raw := range props {
				if child, ok := raw.(map[string]any); ok {
					props[name] = fixNode(child)
				}
			}
		}
	case "array":
		if raw, ok := node["minItems"]; ok {
			if n, isNum := raw.(float64); isNum {
				switch {
				case n < 0:
					node["minItems"] = float64(0)
				case n > 1:
					node["minItems"] = float64(1)
				}
			} else {
				delete(node, "minItems")
			}
		}
		if items, ok := node["items"].(map[string]any); ok {
			node["items"] = fixNode(items)
		}
	}

	for _, key := range []string{"anyOf", "allOf"} {
		branches, ok := node[key].([]any)
		if !ok {
			continue
		}
		for i, raw := range branches {
			if branch, ok := raw.(map[string]any); ok {
				branches[i] = fixNode(branch)
			}
		}
	}
	for _, key := range []string{"$defs", "definitions"} {
		defs, ok := node[key].(map[string]any)
		if !ok {
			continue
		}
		for name, raw := range defs {
			if def, ok := raw.(map[string]any); ok {
				defs[name] = fixNode(def)
			}
		}
	}
	return node
}

// stripIgnored removes provider-ignored keywords from the node and
// returns "key=value" summaries in stable order.
func stripIgnored(node map[string]any) []string {
	var out []string
	for _, key := range ignoredKeywords {
		if v, ok := node[key]; ok {
			out = append(out, fmt.Sprintf("%s=%v", key, v))
			delete(node, key)
		}
	}
	sort.Strings(out)
	return out
}

func deepCopy(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, vv := range x {
			out[k] = deepCopy(vv)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = deepCopy(x[i])
		}
		return out
	default:
		return v
	}
}
