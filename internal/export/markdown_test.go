package export

import (
	"strings"
	"testing"
	"time"

	"cardforge/internal/card"
	"cardforge/internal/pipeline"
)

func exportState(t *testing.T) pipeline.State {
	t.Helper()
	c := &card.CharacterCard{
		Name:               "Captain",
		Description:        "A sea captain.",
		AlternateGreetings: []string{"One.", "Two."},
	}
	s := pipeline.SetCard(pipeline.NewState(), c, 0)
	s = pipeline.CompleteStage(s, pipeline.StageScore, "SCORE TEXT "+strings.Repeat("s", 300), "p", "", false)
	s = pipeline.CompleteStage(s, pipeline.StageRewrite, "REWRITE TEXT "+strings.Repeat("r", 300), "p", "", false)
	s = pipeline.CompleteStage(s, pipeline.StageAnalyze, "ANALYSIS TEXT "+strings.Repeat("a", 300), "p", "", false)
	s.Iteration = 2
	s.History = []pipeline.Snapshot{
		{Iteration: 0, Rewrite: "HIST REWRITE " + strings.Repeat("h", 300), Analysis: "HIST ANALYSIS " + strings.Repeat("g", 300), Verdict: pipeline.VerdictRefine, CreatedAt: time.Now()},
	}
	return s
}

func TestMarkdownCarriesFullTexts(t *testing.T) {
	s := exportState(t)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	doc := Markdown(s, now)

	// Every stored text appears whole; exports never truncate.
	for _, want := range []string{
		s.Results[pipeline.StageScore].Response,
		s.Results[pipeline.StageRewrite].Response,
		s.Results[pipeline.StageAnalyze].Response,
		s.History[0].Rewrite,
		s.History[0].Analysis,
	} {
		if !strings.Contains(doc, want) {
			t.Fatalf("document missing full text %q...", want[:20])
		}
	}
	if !strings.Contains(doc, "# Card Improvement Report: Captain") {
		t.Fatalf("missing header:\n%s", doc[:200])
	}
	if !strings.Contains(doc, now.Format(time.RFC3339)) {
		t.Fatalf("missing export timestamp")
	}
	if !strings.Contains(doc, "needs_refinement") {
		t.Fatalf("missing history verdict")
	}
}

func TestMarkdownIncludedFields(t *testing.T) {
	s := exportState(t)
	s.Selection.ListItems[card.FieldAlternateGreetings][0] = false

	doc := Markdown(s, time.Now())
	if !strings.Contains(doc, "## Included Fields") || !strings.Contains(doc, "- Description") {
		t.Fatalf("field list missing:\n%s", doc[:400])
	}
	if !strings.Contains(doc, "Alternate Greetings (entries 2)") {
		t.Fatalf("greeting entries wrong:\n%s", doc)
	}
}

func TestMarkdownLockedNote(t *testing.T) {
	s := exportState(t)
	s = pipeline.LockStageResult(s, pipeline.StageRewrite)
	doc := Markdown(s, time.Now())
	if !strings.Contains(doc, "Accepted as final") {
		t.Fatalf("locked note missing")
	}
}

func TestMarkdownNoCard(t *testing.T) {
	if doc := Markdown(pipeline.NewState(), time.Now()); doc != "" {
		t.Fatalf("document for empty state: %q", doc)
	}
}
