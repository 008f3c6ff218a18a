// Package export renders final pipeline state into a flat markdown
// document. Round-trip completeness is a hard requirement: every stored
// result text and every historical snapshot is emitted untruncated.
package export

import (
	"fmt"
	"strings"
	"time"

	"cardforge/internal/card"
	"cardforge/internal/pipeline"
)

// Markdown maps pipeline state to the export document. Pure function;
// returns "" when there is nothing exportable (no card).
func Markdown(s pipeline.State, now time.Time) string {
	if s.Card == nil {
		return ""
	}
	var b strings.Builder

	fmt.Fprintf(&b, "# Card Improvement Report: %s\n\n", s.Card.Name)
	fmt.Fprintf(&b, "- Exported: %s\n", now.Format(time.RFC3339))
	fmt.Fprintf(&b, "- Iterations: %d\n\n", s.Iteration)

	b.WriteString("## Included Fields\n\n")
	for _, key := range card.ScalarFields {
		if s.Selection.Fields[key] {
			fmt.Fprintf(&b, "- %s\n", card.FieldLabel(key))
		}
	}
	if s.Selection.Fields[card.FieldAlternateGreetings] {
		idx := s.Selection.IncludedIndices(card.FieldAlternateGreetings)
		if len(idx) > 0 {
			labels := make([]string, len(idx))
			for i, n := range idx {
				labels[i] = fmt.Sprintf("%d", n+1)
			}
			fmt.Fprintf(&b, "- %s (entries %s)\n", card.FieldLabel(card.FieldAlternateGreetings), strings.Join(labels, ", "))
		}
	}
	b.WriteString("\n")

	writeResult(&b, "Score", s.Results[pipeline.StageScore])
	writeResult(&b, "Rewrite", s.Results[pipeline.StageRewrite])
	writeResult(&b, "Analysis", s.Results[pipeline.StageAnalyze])

	if len(s.History) > 0 {
		b.WriteString("## Iteration History\n\n")
		for _, snap := range s.History {
			fmt.Fprintf(&b, "### Iteration %d - %s\n\n", snap.Iteration+1, snap.Verdict)
			fmt.Fprintf(&b, "- Recorded: %s\n\n", snap.CreatedAt.Format(time.RFC3339))
			b.WriteString("#### Rewrite\n\n")
			b.WriteString(snap.Rewrite)
			b.WriteString("\n\n#### Analysis\n\n")
			b.WriteString(snap.Analysis)
			b.WriteString("\n\n")
		}
	}
	return b.String()
}

func writeResult(b *strings.Builder, label string, r *pipeline.Result) {
	if r == nil {
		return
	}
	fmt.Fprintf(b, "## %s\n\n", label)
	if r.Locked {
		b.WriteString("- Accepted as final\n")
	}
	fmt.Fprintf(b, "- Generated: %s\n\n", r.CreatedAt.Format(time.RFC3339))
	b.WriteString(r.Response)
	b.WriteString("\n\n")
}
