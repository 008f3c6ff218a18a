package pipeline

import (
	"fmt"
	"strings"
)

// CheckResult separates fatal errors from advisory warnings. An empty
// Errors list means the operation may proceed.
type CheckResult struct {
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

func (r CheckResult) OK() bool { return len(r.Errors) == 0 }

// PromptResolver resolves a stage's effective instruction text (preset
// content when a preset id is set, custom text otherwise).
type PromptResolver func(Stage) string

// ValidatePipeline aggregates the preconditions for a full pipeline run.
// Nothing here throws; callers inspect the lists.
func ValidatePipeline(s State, resolve PromptResolver, serviceConnected bool) CheckResult {
	var res CheckResult
	if s.Card == nil {
		res.Errors = append(res.Errors, "no card selected")
	}
	if len(s.Selected) == 0 {
		res.Errors = append(res.Errors, "no stages selected")
	}
	if s.Selection.IsEmpty() {
		res.Errors = append(res.Errors, "no card fields selected")
	}
	if !serviceConnected {
		res.Errors = append(res.Errors, "completion service is not connected")
	}
	sel := selectedSet(s)
	for _, st := range s.Selected {
		if resolve != nil && strings.TrimSpace(resolve(st)) == "" {
			res.Errors = append(res.Errors, fmt.Sprintf("%s stage has no prompt configured", st))
		}
	}
	if sel[StageAnalyze] && !sel[StageRewrite] && s.Results[StageRewrite] == nil {
		res.Errors = append(res.Errors, "analyze requires the rewrite stage")
	}
	if sel[StageRewrite] && !sel[StageScore] && s.Results[StageScore] == nil {
		res.Warnings = append(res.Warnings, "rewrite will run without score feedback")
	}
	return res
}

// ValidateRefinement aggregates the preconditions for starting a
// refinement cycle.
func ValidateRefinement(s State, resolve PromptResolver, serviceConnected bool) CheckResult {
	var res CheckResult
	if s.Card == nil {
		res.Errors = append(res.Errors, "no card selected")
	}
	if s.Selection.IsEmpty() {
		res.Errors = append(res.Errors, "no card fields selected")
	}
	if !serviceConnected {
		res.Errors = append(res.Errors, "completion service is not connected")
	}
	if s.Results[StageRewrite] == nil {
		res.Errors = append(res.Errors, "refinement requires a rewrite result")
	}
	if s.Results[StageAnalyze] == nil {
		res.Errors = append(res.Errors, "refinement requires an analysis result")
	}
	if resolve != nil && strings.TrimSpace(resolve(StageRewrite)) == "" {
		res.Errors = append(res.Errors, "rewrite stage has no prompt configured")
	}
	if s.Results[StageScore] == nil {
		res.Warnings = append(res.Warnings, "refining without original score feedback")
	}
	return res
}
