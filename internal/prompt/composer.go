// Package prompt assembles the literal text sent to the completion
// service for each pipeline stage and for refinement cycles.
//
// The dedup contract: a piece of context appears exactly once in the
// final prompt, through the user's placeholder when the instruction
// text references it, otherwise as a labeled section prepended ahead of
// the instructions. The composer always reads the current result slots,
// which are overwritten per cycle, so a prompt built at iteration N can
// only carry iteration N's text.
package prompt

import (
	"strconv"
	"strings"

	"cardforge/internal/card"
	"cardforge/internal/pipeline"
)

// Composer builds stage and refinement prompts from pipeline state.
type Composer struct {
	// Resolve returns the stage's effective instruction text (preset
	// content when a preset id is set, custom text otherwise).
	Resolve pipeline.PromptResolver
	// UserName substitutes {{user_name}}; defaults to "User".
	UserName string
}

type contextBlock struct {
	key   contextKey
	label string
	body  string
}

// StagePrompt returns the literal prompt for a stage, or "" when no card
// is selected or no instruction text is configured.
func (c *Composer) StagePrompt(s pipeline.State, stage pipeline.Stage) string {
	if s.Card == nil || c.Resolve == nil {
		return ""
	}
	instructions := strings.TrimSpace(c.Resolve(stage))
	if instructions == "" {
		return ""
	}
	summary := card.Summary(s.Card, s.Selection)
	if summary == "" {
		return ""
	}

	required := []contextBlock{{key: ctxOriginal, label: "Character Data", body: summary}}
	switch stage {
	case pipeline.StageRewrite:
		if r := s.Results[pipeline.StageScore]; r != nil {
			required = append(required, contextBlock{key: ctxScore, label: "Score Feedback", body: r.Response})
		}
	case pipeline.StageAnalyze:
		if r := s.Results[pipeline.StageRewrite]; r != nil {
			required = append(required, contextBlock{key: ctxRewrite, label: "Current Rewrite", body: r.Response})
		}
		if r := s.Results[pipeline.StageScore]; r != nil {
			required = append(required, contextBlock{key: ctxScore, label: "Score Feedback", body: r.Response})
		}
	}
	return c.render(s, instructions, summary, required)
}

// RefinementPrompt returns the literal refinement prompt, or "" when the
// card, rewrite result, or analysis result is missing.
func (c *Composer) RefinementPrompt(s pipeline.State) string {
	if s.Card == nil || c.Resolve == nil {
		return ""
	}
	rewrite := s.Results[pipeline.StageRewrite]
	analysis := s.Results[pipeline.StageAnalyze]
	if rewrite == nil || analysis == nil {
		return ""
	}
	instructions := strings.TrimSpace(c.Resolve(pipeline.StageRewrite))
	if instructions == "" {
		return ""
	}
	summary := card.Summary(s.Card, s.Selection)
	if summary == "" {
		return ""
	}

	required := []contextBlock{
		{key: ctxOriginal, label: "Character Data", body: summary},
		{key: ctxRewrite, label: "Current Rewrite", body: rewrite.Response},
		{key: ctxAnalysis, label: "Current Analysis", body: analysis.Response},
	}
	// Labeled distinctly from cycle output so the model does not confuse
	// the session-initial score with ongoing iteration feedback.
	if r := s.Results[pipeline.StageScore]; r != nil {
		required = append(required, contextBlock{key: ctxScore, label: "Original Score Feedback", body: r.Response})
	}
	return c.render(s, instructions, summary, required)
}

func (c *Composer) render(s pipeline.State, instructions, summary string, required []contextBlock) string {
	values := map[string]string{
		tokenOriginal:  summary,
		tokenCardData:  summary,
		tokenIteration: strconv.Itoa(s.Iteration + 1),
		tokenCharName:  s.Card.Name,
		tokenUserName:  c.userName(),
	}
	if r := s.Results[pipeline.StageScore]; r != nil {
		values[tokenScore] = r.Response
	}
	if r := s.Results[pipeline.StageRewrite]; r != nil {
		values[tokenRewrite] = r.Response
		values[tokenCurRewrite] = r.Response
	}
	if r := s.Results[pipeline.StageAnalyze]; r != nil {
		values[tokenAnalysis] = r.Response
		values[tokenAnalysisAlt] = r.Response
	}

	referenced := referencedContexts(instructions)
	body := substitute(instructions, values)

	var b strings.Builder
	for _, blk := range required {
		if referenced[blk.key] {
			continue
		}
		b.WriteString(section(blk.label, blk.body))
		b.WriteString("\n")
	}
	b.WriteString(body)
	return strings.TrimSpace(b.String()) + "\n"
}

func (c *Composer) userName() string {
	if strings.TrimSpace(c.UserName) == "" {
		return "User"
	}
	return c.UserName
}
