package pipeline

import (
	"encoding/json"
	"fmt"

	"cardforge/internal/card"
)

// Serialize reduces the state to its JSON-safe projection. The live card
// pointer is dropped (restored by index against the provider) and the
// current stage is dropped (a running stage cannot survive a reload).
func Serialize(s State) ([]byte, error) {
	return json.Marshal(s)
}

// CardLookup resolves a card by provider index.
type CardLookup func(index int) (*card.CharacterCard, bool)

// Restore rebuilds a state from its serialized projection. A malformed
// payload is a recoverable error; callers fall back to NewState. The
// current stage is always reset and the card is re-resolved by index;
// a stale index (card list changed underneath) degrades to no card.
func Restore(data []byte, lookup CardLookup) (State, error) {
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return State{}, fmt.Errorf("pipeline: malformed persisted state: %w", err)
	}
	if s.Results == nil {
		s.Results = map[Stage]*Result{}
	}
	if s.Configs == nil {
		s.Configs = map[Stage]StageConfig{}
	}
	if s.Statuses == nil {
		s.Statuses = map[Stage]Status{}
	}
	for _, st := range Order {
		if _, ok := s.Statuses[st]; !ok {
			s.Statuses[st] = StatusPending
		}
	}
	if s.Selection.Fields == nil {
		s.Selection.Fields = map[string]bool{}
	}
	if s.Selection.ListItems == nil {
		s.Selection.ListItems = map[string]map[int]bool{}
	}
	s.Current = ""
	// A stage serialized as running is demoted; the request cannot resume.
	for st, status := range s.Statuses {
		if status == StatusRunning {
			s.Statuses[st] = StatusPending
		}
	}
	if s.CardIndex >= 0 && lookup != nil {
		if c, ok := lookup(s.CardIndex); ok {
			s.Card = c
		} else {
			s.CardIndex = -1
		}
	}
	return s, nil
}
