package prompt

import (
	"regexp"
	"strings"
)

// The placeholder vocabulary is a fixed, auditable substitution table.
// Tokens are matched exactly (case-insensitive): no expression
// evaluation, no templating engine.
const (
	tokenOriginal    = "original_content"
	tokenCardData    = "card_data"
	tokenScore       = "score_results"
	tokenRewrite     = "rewrite_results"
	tokenCurRewrite  = "current_rewrite"
	tokenAnalysis    = "current_analysis"
	tokenAnalysisAlt = "analysis_results"
	tokenIteration   = "iteration_number"
	tokenCharName    = "char_name"
	tokenUserName    = "user_name"
)

// contextKey identifies one piece of stage context; aliases map to the
// same key so {{rewrite_results}} and {{current_rewrite}} dedupe as one.
type contextKey string

const (
	ctxOriginal contextKey = "original"
	ctxScore    contextKey = "score"
	ctxRewrite  contextKey = "rewrite"
	ctxAnalysis contextKey = "analysis"
)

var tokenContext = map[string]contextKey{
	tokenOriginal:    ctxOriginal,
	tokenCardData:    ctxOriginal,
	tokenScore:       ctxScore,
	tokenRewrite:     ctxRewrite,
	tokenCurRewrite:  ctxRewrite,
	tokenAnalysis:    ctxAnalysis,
	tokenAnalysisAlt: ctxAnalysis,
}

var allTokens = []string{
	tokenOriginal, tokenCardData, tokenScore, tokenRewrite,
	tokenCurRewrite, tokenAnalysis, tokenAnalysisAlt,
	tokenIteration, tokenCharName, tokenUserName,
}

var (
	tokenPatterns = map[string]*regexp.Regexp{}
	anyTokenRe    *regexp.Regexp
)

func init() {
	for _, tok := range allTokens {
		tokenPatterns[tok] = regexp.MustCompile(`(?i)\{\{` + tok + `\}\}`)
	}
	anyTokenRe = regexp.MustCompile(`(?i)\{\{(` + strings.Join(allTokens, "|") + `)\}\}`)
}

// referencedContexts reports which context keys the instruction text
// already pulls in through placeholders.
func referencedContexts(text string) map[contextKey]bool {
	out := map[contextKey]bool{}
	for tok, key := range tokenContext {
		if tokenPatterns[tok].MatchString(text) {
			out[key] = true
		}
	}
	return out
}

// substitute replaces every known placeholder with its live value in a
// single pass over the text. Values are inserted literally; a value
// containing "{{...}}" is never re-expanded. Placeholders without a
// value stay as written.
func substitute(text string, values map[string]string) string {
	return anyTokenRe.ReplaceAllStringFunc(text, func(match string) string {
		tok := strings.ToLower(strings.Trim(match, "{}"))
		if val, ok := values[tok]; ok {
			return val
		}
		return match
	})
}

// section renders one labeled context block.
func section(label, body string) string {
	return "## " + label + "\n\n" + strings.TrimSpace(body) + "\n"
}
