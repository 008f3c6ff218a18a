package refine

import (
	"strings"

	"cardforge/internal/pipeline"
)

// Keyword sets for classifying free-text analysis output. This is a
// best-effort oracle over fuzzy model text; the precedence order below
// is load-bearing and covered by tests.
var (
	acceptPhrases = []string{
		"ready to use",
		"no more iterations",
	}
	regressionPhrases = []string{
		"worse than",
		"step backward",
		"lost more",
	}
	refinePhrases = []string{
		"issue",
		"problem",
		"should fix",
	}
)

// ExtractVerdict classifies an analysis response.
//
// Precedence: an explicit verdict marker line wins, classified
// accept-without-needs > regression > needs-refinement; otherwise phrase
// heuristics apply; when nothing matches the default is
// needs_refinement, never a silent accept.
func ExtractVerdict(analysis string) pipeline.Verdict {
	lower := strings.ToLower(analysis)

	if line, ok := verdictMarkerLine(lower); ok {
		switch {
		case strings.Contains(line, "accept") && !strings.Contains(line, "needs"):
			return pipeline.VerdictAccept
		case strings.Contains(line, "regress"):
			return pipeline.VerdictRegressed
		case strings.Contains(line, "refin") || strings.Contains(line, "needs"):
			return pipeline.VerdictRefine
		}
	}

	for _, p := range acceptPhrases {
		if strings.Contains(lower, p) {
			return pipeline.VerdictAccept
		}
	}
	for _, p := range regressionPhrases {
		if strings.Contains(lower, p) {
			return pipeline.VerdictRegressed
		}
	}
	for _, p := range refinePhrases {
		if strings.Contains(lower, p) {
			return pipeline.VerdictRefine
		}
	}
	return pipeline.VerdictRefine
}

// verdictMarkerLine returns the first line carrying an explicit
// "verdict" marker, if any. Input is already lowercased.
func verdictMarkerLine(lower string) (string, bool) {
	for _, line := range strings.Split(lower, "\n") {
		if strings.Contains(line, "verdict") {
			return line, true
		}
	}
	return "", false
}
