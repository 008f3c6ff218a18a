package card

import (
	"fmt"
	"sort"
	"strings"
)

// Selection records which card fields (and which list entries) are
// included when rendering prompts. Scalars are a plain on/off switch;
// list fields carry an explicit index set so single entries can be
// excluded without dropping the whole field.
type Selection struct {
	Fields    map[string]bool         `json:"fields"`
	ListItems map[string]map[int]bool `json:"list_items"`
}

// DefaultSelection selects every scalar field that has content and every
// alternate greeting present on the card.
func DefaultSelection(c *CharacterCard) Selection {
	sel := Selection{
		Fields:    map[string]bool{},
		ListItems: map[string]map[int]bool{},
	}
	if c == nil {
		return sel
	}
	for _, key := range ScalarFields {
		sel.Fields[key] = c.HasContent(key)
	}
	if len(c.AlternateGreetings) > 0 {
		items := map[int]bool{}
		for i := range c.AlternateGreetings {
			items[i] = true
		}
		sel.Fields[FieldAlternateGreetings] = true
		sel.ListItems[FieldAlternateGreetings] = items
	}
	return sel
}

// Clone returns a deep copy; mutating the copy never touches the input.
func (s Selection) Clone() Selection {
	out := Selection{
		Fields:    make(map[string]bool, len(s.Fields)),
		ListItems: make(map[string]map[int]bool, len(s.ListItems)),
	}
	for k, v := range s.Fields {
		out.Fields[k] = v
	}
	for k, items := range s.ListItems {
		m := make(map[int]bool, len(items))
		for i, on := range items {
			m[i] = on
		}
		out.ListItems[k] = m
	}
	return out
}

// IsEmpty reports whether nothing at all is selected.
func (s Selection) IsEmpty() bool {
	for _, on := range s.Fields {
		if on {
			return false
		}
	}
	return true
}

// IncludedIndices returns the sorted selected indices for a list field.
func (s Selection) IncludedIndices(field string) []int {
	items := s.ListItems[field]
	if len(items) == 0 {
		return nil
	}
	out := make([]int, 0, len(items))
	for i, on := range items {
		if on {
			out = append(out, i)
		}
	}
	sort.Ints(out)
	return out
}

// Summary renders the selected parts of the card as a labeled markdown
// block for prompt inclusion. Unselected fields and list entries are
// omitted entirely. Returns "" when nothing is selected.
func Summary(c *CharacterCard, sel Selection) string {
	if c == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "# Character: %s\n", c.Name)
	wrote := false
	for _, key := range ScalarFields {
		if !sel.Fields[key] || !c.HasContent(key) {
			continue
		}
		fmt.Fprintf(&b, "\n## %s\n%s\n", FieldLabel(key), strings.TrimSpace(c.FieldValue(key)))
		wrote = true
	}
	if sel.Fields[FieldAlternateGreetings] {
		idx := sel.IncludedIndices(FieldAlternateGreetings)
		if len(idx) > 0 {
			fmt.Fprintf(&b, "\n## %s\n", FieldLabel(FieldAlternateGreetings))
			for _, i := range idx {
				if i < 0 || i >= len(c.AlternateGreetings) {
					continue
				}
				fmt.Fprintf(&b, "### Greeting %d\n%s\n", i+1, strings.TrimSpace(c.AlternateGreetings[i]))
			}
			wrote = true
		}
	}
	if !wrote {
		return ""
	}
	return b.String()
}
