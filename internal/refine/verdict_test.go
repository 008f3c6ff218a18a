package refine

import (
	"testing"

	"cardforge/internal/pipeline"
)

func TestExtractVerdictMarkerLine(t *testing.T) {
	cases := []struct {
		name     string
		analysis string
		want     pipeline.Verdict
	}{
		{"accept", "Detailed comparison...\nVerdict: Accept\n", pipeline.VerdictAccept},
		{"accept lowercase", "verdict: accept, the rewrite is solid", pipeline.VerdictAccept},
		{"regression", "Verdict: Regression (the rewrite dropped the scenario)", pipeline.VerdictRegressed},
		{"needs refinement", "Verdict: Needs Refinement", pipeline.VerdictRefine},
		// "accept" alongside "needs" reads as needs-refinement, not accept.
		{"acceptable but needs work", "Verdict: acceptable but needs another pass", pipeline.VerdictRefine},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractVerdict(tc.analysis); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestExtractVerdictMarkerBeatsPhrases(t *testing.T) {
	// The body talks about problems but the explicit marker wins.
	analysis := "There is an issue with pacing and a problem with tone.\nVerdict: Accept"
	if got := ExtractVerdict(analysis); got != pipeline.VerdictAccept {
		t.Fatalf("got %q want accept", got)
	}
}

func TestExtractVerdictPhrases(t *testing.T) {
	cases := []struct {
		name     string
		analysis string
		want     pipeline.Verdict
	}{
		{"ready to use", "The card is polished and ready to use.", pipeline.VerdictAccept},
		{"no more iterations", "Strong work; no more iterations needed.", pipeline.VerdictAccept},
		{"worse than", "This draft is worse than the previous one.", pipeline.VerdictRegressed},
		{"step backward", "A clear step backward in voice.", pipeline.VerdictRegressed},
		{"issue", "One issue remains in the scenario.", pipeline.VerdictRefine},
		{"should fix", "You should fix the greeting length.", pipeline.VerdictRefine},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractVerdict(tc.analysis); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestExtractVerdictDefaultsToRefine(t *testing.T) {
	// Ambiguous text never silently accepts.
	for _, analysis := range []string{"", "Interesting character concept.", "The rewrite changes the tone."} {
		if got := ExtractVerdict(analysis); got != pipeline.VerdictRefine {
			t.Fatalf("%q: got %q want needs_refinement", analysis, got)
		}
	}
}
