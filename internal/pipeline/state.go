package pipeline

import (
	"time"

	"cardforge/internal/card"
)

// Stage is one step of the fixed score -> rewrite -> analyze pipeline.
type Stage string

const (
	StageScore   Stage = "score"
	StageRewrite Stage = "rewrite"
	StageAnalyze Stage = "analyze"
)

// Order is the canonical stage sequence. Selected-stage lists are always
// re-sorted against it, never kept in insertion order.
var Order = []Stage{StageScore, StageRewrite, StageAnalyze}

// OrderIndex returns the canonical position of a stage, or -1.
func OrderIndex(s Stage) int {
	for i, st := range Order {
		if st == s {
			return i
		}
	}
	return -1
}

// Status of a single stage.
type Status string

const (
	StatusPending  Status = "pending"
	StatusRunning  Status = "running"
	StatusComplete Status = "complete"
	StatusSkipped  Status = "skipped"
)

// Verdict classifies an analysis response.
type Verdict string

const (
	VerdictAccept    Verdict = "accept"
	VerdictRefine    Verdict = "needs_refinement"
	VerdictRegressed Verdict = "regression"
)

// MaxHistory bounds the iteration snapshot list; oldest entries are
// evicted first.
const MaxHistory = 10

// Result is the immutable record attached when a stage completes. It is
// replaced wholesale on regeneration; only Locked may be toggled after
// creation.
type Result struct {
	Response   string    `json:"response"`
	Structured bool      `json:"structured"`
	Prompt     string    `json:"prompt"`
	Schema     string    `json:"schema,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	Locked     bool      `json:"locked"`
}

// StageConfig selects how a stage's prompt and schema are sourced.
// A non-empty preset id is authoritative; custom text is a staged draft
// until the preset id is cleared.
type StageConfig struct {
	PresetID       string `json:"preset_id,omitempty"`
	CustomPrompt   string `json:"custom_prompt,omitempty"`
	SchemaPresetID string `json:"schema_preset_id,omitempty"`
	CustomSchema   string `json:"custom_schema,omitempty"`
	Structured     bool   `json:"structured"`
}

// Snapshot freezes one refinement cycle just before the next one starts.
// Rewrite and Analysis hold the full untruncated text of that cycle; the
// previews exist only for compact display.
type Snapshot struct {
	Iteration       int       `json:"iteration"`
	Rewrite         string    `json:"rewrite"`
	Analysis        string    `json:"analysis"`
	RewritePreview  string    `json:"rewrite_preview"`
	AnalysisPreview string    `json:"analysis_preview"`
	Verdict         Verdict   `json:"verdict"`
	CreatedAt       time.Time `json:"created_at"`
}

// State is the aggregate pipeline state. Transitions never mutate a
// State in place; each returns a fresh value with copied maps and
// slices, so stale references held by callers stay coherent.
type State struct {
	Card      *card.CharacterCard `json:"-"`
	CardIndex int                 `json:"card_index"`

	Results  map[Stage]*Result     `json:"results"`
	Configs  map[Stage]StageConfig `json:"configs"`
	Statuses map[Stage]Status      `json:"statuses"`

	Selected []Stage `json:"selected"`
	Current  Stage   `json:"-"`

	Iteration int        `json:"iteration"`
	History   []Snapshot `json:"history"`
	Refining  bool       `json:"refining"`

	Selection card.Selection `json:"selection"`
	Export    string         `json:"export,omitempty"`
}

// NewState returns the initial state: no card, score+rewrite selected,
// everything pending.
func NewState() State {
	s := State{
		CardIndex: -1,
		Results:   map[Stage]*Result{},
		Configs:   map[Stage]StageConfig{},
		Statuses:  map[Stage]Status{},
		Selected:  []Stage{StageScore, StageRewrite},
		Selection: card.Selection{Fields: map[string]bool{}, ListItems: map[string]map[int]bool{}},
	}
	for _, st := range Order {
		s.Statuses[st] = StatusPending
		s.Configs[st] = StageConfig{}
	}
	return s
}

// clone deep-copies everything reachable through maps and slices. The
// card pointer is shared on purpose: the provider owns card values and
// the pipeline never writes through it.
func (s State) clone() State {
	out := s
	out.Results = make(map[Stage]*Result, len(s.Results))
	for k, v := range s.Results {
		if v == nil {
			out.Results[k] = nil
			continue
		}
		r := *v
		out.Results[k] = &r
	}
	out.Configs = make(map[Stage]StageConfig, len(s.Configs))
	for k, v := range s.Configs {
		out.Configs[k] = v
	}
	out.Statuses = make(map[Stage]Status, len(s.Statuses))
	for k, v := range s.Statuses {
		out.Statuses[k] = v
	}
	out.Selected = append([]Stage(nil), s.Selected...)
	out.History = append([]Snapshot(nil), s.History...)
	out.Selection = s.Selection.Clone()
	return out
}
