package pipeline

import (
	"time"

	"cardforge/internal/card"
)

// SetCard points the pipeline at a card from the provider list. Selecting
// the index that is already current is a no-op so redundant selection
// events never clobber in-progress work. Any real change resets results,
// statuses, iteration state and export, and re-derives the default field
// selection from the new card.
func SetCard(s State, c *card.CharacterCard, index int) State {
	if index >= 0 && index == s.CardIndex {
		return s
	}
	out := s.clone()
	out.Card = c
	if c == nil {
		out.CardIndex = -1
	} else {
		out.CardIndex = index
	}
	for _, st := range Order {
		out.Results[st] = nil
		out.Statuses[st] = StatusPending
	}
	out.Current = ""
	out.Iteration = 0
	out.History = nil
	out.Refining = false
	out.Export = ""
	out.Selection = card.DefaultSelection(c)
	return out
}

// canonicalize re-derives a selected list from the fixed stage order.
func canonicalize(set map[Stage]bool) []Stage {
	out := make([]Stage, 0, len(Order))
	for _, st := range Order {
		if set[st] {
			out = append(out, st)
		}
	}
	return out
}

func selectedSet(s State) map[Stage]bool {
	set := make(map[Stage]bool, len(s.Selected))
	for _, st := range s.Selected {
		set[st] = true
	}
	return set
}

// ToggleStage flips a stage's membership in the selected list. Toggling
// twice is commutative because the output ordering is canonical.
func ToggleStage(s State, stage Stage) State {
	if OrderIndex(stage) < 0 {
		return s
	}
	out := s.clone()
	set := selectedSet(s)
	set[stage] = !set[stage]
	out.Selected = canonicalize(set)
	return out
}

// SetSelectedStages replaces the selection; unknown stages are dropped
// and the result is canonically ordered.
func SetSelectedStages(s State, stages []Stage) State {
	out := s.clone()
	set := map[Stage]bool{}
	for _, st := range stages {
		if OrderIndex(st) >= 0 {
			set[st] = true
		}
	}
	out.Selected = canonicalize(set)
	return out
}

// SelectAllStages selects every stage.
func SelectAllStages(s State) State {
	out := s.clone()
	out.Selected = append([]Stage(nil), Order...)
	return out
}

// RunCheck is the answer to "may this stage run right now".
type RunCheck struct {
	CanRun bool
	Reason string
}

// CanRunStage applies the per-stage run rules. Score is always runnable
// once a card and at least one field are selected. Rewrite runs standalone
// but soft-warns when score was selected and has not completed. Analyze
// hard-requires an existing rewrite result.
func CanRunStage(s State, stage Stage) RunCheck {
	if s.Card == nil {
		return RunCheck{CanRun: false, Reason: "no card selected"}
	}
	if s.Selection.IsEmpty() {
		return RunCheck{CanRun: false, Reason: "no fields selected"}
	}
	switch stage {
	case StageScore:
		return RunCheck{CanRun: true}
	case StageRewrite:
		if selectedSet(s)[StageScore] && s.Results[StageScore] == nil {
			return RunCheck{CanRun: true, Reason: "score has not completed; rewrite will run without score feedback"}
		}
		return RunCheck{CanRun: true}
	case StageAnalyze:
		if s.Results[StageRewrite] == nil {
			return RunCheck{CanRun: false, Reason: "analyze requires a rewrite result"}
		}
		return RunCheck{CanRun: true}
	}
	return RunCheck{CanRun: false, Reason: "unknown stage"}
}

// StartStage marks a stage running.
func StartStage(s State, stage Stage) State {
	out := s.clone()
	out.Statuses[stage] = StatusRunning
	out.Current = stage
	return out
}

// CompleteStage attaches a fresh result and marks the stage complete.
// Completing analyze while a rewrite result exists raises the refining
// flag; the flag drives UI affordances only.
func CompleteStage(s State, stage Stage, response, prompt, schema string, structured bool) State {
	out := s.clone()
	out.Results[stage] = &Result{
		Response:   response,
		Structured: structured,
		Prompt:     prompt,
		Schema:     schema,
		CreatedAt:  time.Now(),
	}
	out.Statuses[stage] = StatusComplete
	out.Current = ""
	if stage == StageAnalyze && out.Results[StageRewrite] != nil {
		out.Refining = true
	}
	return out
}

// FailStage rolls a stage back to pending. Retry is the caller's call.
func FailStage(s State, stage Stage) State {
	out := s.clone()
	out.Statuses[stage] = StatusPending
	out.Current = ""
	return out
}

// SkipStage marks a stage skipped.
func SkipStage(s State, stage Stage) State {
	out := s.clone()
	out.Statuses[stage] = StatusSkipped
	if out.Current == stage {
		out.Current = ""
	}
	return out
}

// ClearStageResult drops the result and resets the stage to pending;
// used before regeneration.
func ClearStageResult(s State, stage Stage) State {
	out := s.clone()
	out.Results[stage] = nil
	out.Statuses[stage] = StatusPending
	return out
}

// LockStageResult marks an existing result as accepted-final. No-op
// without a result.
func LockStageResult(s State, stage Stage) State {
	if s.Results[stage] == nil {
		return s
	}
	out := s.clone()
	out.Results[stage].Locked = true
	return out
}

// UnlockStageResult re-enables regeneration. No-op without a result.
func UnlockStageResult(s State, stage Stage) State {
	if s.Results[stage] == nil {
		return s
	}
	out := s.clone()
	out.Results[stage].Locked = false
	return out
}

// NextStage walks forward through the selected list from the given
// stage. Returns "" at the end or when the stage is not selected.
func NextStage(s State, stage Stage) Stage {
	for i, st := range s.Selected {
		if st == stage {
			if i+1 < len(s.Selected) {
				return s.Selected[i+1]
			}
			return ""
		}
	}
	return ""
}

// PreviousStage walks backward through the selected list.
func PreviousStage(s State, stage Stage) Stage {
	for i, st := range s.Selected {
		if st == stage {
			if i > 0 {
				return s.Selected[i-1]
			}
			return ""
		}
	}
	return ""
}

// FirstIncompleteStage returns the first selected stage still pending or
// running, or "" when none remain.
func FirstIncompleteStage(s State) Stage {
	for _, st := range s.Selected {
		switch s.Statuses[st] {
		case StatusPending, StatusRunning:
			return st
		}
	}
	return ""
}

// IsComplete holds when every selected stage is complete or skipped.
func IsComplete(s State) bool {
	if len(s.Selected) == 0 {
		return false
	}
	for _, st := range s.Selected {
		switch s.Statuses[st] {
		case StatusComplete, StatusSkipped:
		default:
			return false
		}
	}
	return true
}

// CanExport holds once a rewrite result exists.
func CanExport(s State) bool {
	return s.Results[StageRewrite] != nil
}
