package schema

// Complexity is a coarse qualitative scale for schema cost feedback.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
	ComplexityExtreme  Complexity = "very complex"
)

// Score maps a value tree to the qualitative scale. Weighted heuristic:
// optional fields cost more than plain nodes (implicit anyOf branches)
// and definitions more still (each is a full subtree the provider
// expands).
func Score(value map[string]any) Complexity {
	if value == nil {
		return ComplexitySimple
	}
	w := newWalker(value)
	w.walk(value, "value", 1)
	score := w.nodeCount + w.optionalProps*2 + w.defCount*3 + w.anyOfBranches
	switch {
	case score <= 10:
		return ComplexitySimple
	case score <= 30:
		return ComplexityModerate
	case score <= 80:
		return ComplexityComplex
	}
	return ComplexityExtreme
}
