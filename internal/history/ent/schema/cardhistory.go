package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// CardHistory holds the schema definition for the CardHistory entity:
// one row per card carrying its serialized iteration-snapshot list.
type CardHistory struct {
	ent.Schema
}

// Fields of the CardHistory.
func (CardHistory) Fields() []ent.Field {
	return []ent.Field{
		field.String("card_key").
			Unique().
			NotEmpty(),
		field.Text("history").
			Default("[]"),
		field.Time("updated_at").
			Default(time.Now).
			UpdateDefault(time.Now),
	}
}

// Indexes of the CardHistory.
func (CardHistory) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("card_key").Unique(),
	}
}
