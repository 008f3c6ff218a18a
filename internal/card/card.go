package card

import "strings"

// CharacterCard is the source content the pipeline improves.
// Field names follow the common card interchange layout.
type CharacterCard struct {
	Name               string   `json:"name"`
	Description        string   `json:"description"`
	Personality        string   `json:"personality"`
	Scenario           string   `json:"scenario"`
	FirstMessage       string   `json:"first_mes"`
	MessageExample     string   `json:"mes_example"`
	CreatorNotes       string   `json:"creator_notes"`
	SystemPrompt       string   `json:"system_prompt"`
	PostHistory        string   `json:"post_history_instructions"`
	AlternateGreetings []string `json:"alternate_greetings"`
	Tags               []string `json:"tags"`
	Creator            string   `json:"creator"`
}

// Scalar field keys, in display order.
const (
	FieldDescription    = "description"
	FieldPersonality    = "personality"
	FieldScenario       = "scenario"
	FieldFirstMessage   = "first_mes"
	FieldMessageExample = "mes_example"
	FieldCreatorNotes   = "creator_notes"
	FieldSystemPrompt   = "system_prompt"
	FieldPostHistory    = "post_history_instructions"
)

// FieldAlternateGreetings is the only list-valued selectable field.
const FieldAlternateGreetings = "alternate_greetings"

// ScalarFields lists the selectable scalar fields in render order.
var ScalarFields = []string{
	FieldDescription,
	FieldPersonality,
	FieldScenario,
	FieldFirstMessage,
	FieldMessageExample,
	FieldCreatorNotes,
	FieldSystemPrompt,
	FieldPostHistory,
}

var fieldLabels = map[string]string{
	FieldDescription:        "Description",
	FieldPersonality:        "Personality",
	FieldScenario:           "Scenario",
	FieldFirstMessage:       "First Message",
	FieldMessageExample:     "Example Messages",
	FieldCreatorNotes:       "Creator Notes",
	FieldSystemPrompt:       "System Prompt",
	FieldPostHistory:        "Post-History Instructions",
	FieldAlternateGreetings: "Alternate Greetings",
}

// FieldLabel returns the display label for a field key.
func FieldLabel(key string) string {
	if l, ok := fieldLabels[key]; ok {
		return l
	}
	return key
}

// FieldValue returns the scalar field's text, or "" for unknown keys.
func (c *CharacterCard) FieldValue(key string) string {
	if c == nil {
		return ""
	}
	switch key {
	case FieldDescription:
		return c.Description
	case FieldPersonality:
		return c.Personality
	case FieldScenario:
		return c.Scenario
	case FieldFirstMessage:
		return c.FirstMessage
	case FieldMessageExample:
		return c.MessageExample
	case FieldCreatorNotes:
		return c.CreatorNotes
	case FieldSystemPrompt:
		return c.SystemPrompt
	case FieldPostHistory:
		return c.PostHistory
	}
	return ""
}

// HasContent reports whether the scalar field holds non-blank text.
func (c *CharacterCard) HasContent(key string) bool {
	return strings.TrimSpace(c.FieldValue(key)) != ""
}
