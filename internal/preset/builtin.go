package preset

// Built-in presets. File presets with the same id shadow these.

var builtinPrompts = map[string]PromptPreset{
	"builtin.score": {
		ID:   "builtin.score",
		Name: "Default Score",
		Text: `You are reviewing a character card for quality.

Score the card from 1 to 10 on: writing quality, character depth,
consistency, and usability. For each dimension give the score and one
concrete observation. Finish with an overall score and the three most
impactful improvements, most important first.`,
	},
	"builtin.rewrite": {
		ID:   "builtin.rewrite",
		Name: "Default Rewrite",
		Text: `Rewrite the character card to address the feedback while keeping the
character's voice and intent. Preserve every factual detail unless the
feedback calls it out. Return the full rewritten card, all fields, with
no commentary.`,
	},
	"builtin.analyze": {
		ID:   "builtin.analyze",
		Name: "Default Analyze",
		Text: `Compare the current rewrite against the original card and the score
feedback. State what improved, what got worse, and what is still open.
End with a line "Verdict: accept", "Verdict: needs refinement", or
"Verdict: regression".`,
	},
}

var builtinSchemas = map[string]SchemaPreset{
	"builtin.score-report": {
		ID:   "builtin.score-report",
		Name: "Score Report",
		Schema: `{
  "name": "score_report",
  "strict": true,
  "value": {
    "type": "object",
    "additionalProperties": false,
    "required": ["overall", "dimensions", "top_improvements"],
    "properties": {
      "overall": {"type": "number"},
      "dimensions": {
        "type": "array",
        "items": {
          "type": "object",
          "additionalProperties": false,
          "required": ["name", "score", "note"],
          "properties": {
            "name": {"type": "string"},
            "score": {"type": "number"},
            "note": {"type": "string"}
          }
        }
      },
      "top_improvements": {
        "type": "array",
        "items": {"type": "string"}
      }
    }
  }
}`,
	},
}
