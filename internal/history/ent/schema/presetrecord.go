package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
)

// PresetRecord holds the schema definition for user-authored presets
// persisted server-side.
type PresetRecord struct {
	ent.Schema
}

// Fields of the PresetRecord.
func (PresetRecord) Fields() []ent.Field {
	return []ent.Field{
		field.String("preset_id").
			Unique().
			NotEmpty(),
		field.String("name").
			NotEmpty(),
		field.Enum("kind").
			Values("prompt", "schema"),
		field.Text("content"),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}
