// Package refine manages the rewrite refinement loop: snapshotting the
// current cycle into the bounded history, advancing the iteration
// counter, reverting to an earlier snapshot, and accepting the result.
package refine

import (
	"fmt"
	"time"

	"cardforge/internal/pipeline"
)

// previewLen bounds the per-snapshot display previews. The full texts
// are always kept untruncated alongside them.
const previewLen = 200

// restoredPromptMarker is the synthetic provenance string installed in
// place of a real prompt when a historical rewrite is restored.
const restoredPromptMarker = "(restored from iteration history)"

func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewLen {
		return text
	}
	return string(runes[:previewLen]) + "…"
}

// CreateSnapshot freezes the current rewrite/analysis pair. Returns nil
// (non-fatal) when either result is missing. The snapshot text is taken
// verbatim from the current result slots, byte-identical to what the
// completion service produced this cycle.
func CreateSnapshot(s pipeline.State) *pipeline.Snapshot {
	rewrite := s.Results[pipeline.StageRewrite]
	analysis := s.Results[pipeline.StageAnalyze]
	if rewrite == nil || analysis == nil {
		return nil
	}
	return &pipeline.Snapshot{
		Iteration:       s.Iteration,
		Rewrite:         rewrite.Response,
		Analysis:        analysis.Response,
		RewritePreview:  preview(rewrite.Response),
		AnalysisPreview: preview(analysis.Response),
		Verdict:         ExtractVerdict(analysis.Response),
		CreatedAt:       time.Now(),
	}
}

// StartRefinement is the single point where current becomes history: it
// snapshots the cycle, appends to the bounded history (FIFO eviction),
// bumps the iteration counter, clears the analysis slot, and raises the
// refining flag. State is returned unchanged when preconditions fail.
func StartRefinement(s pipeline.State) pipeline.State {
	snap := CreateSnapshot(s)
	if snap == nil {
		return s
	}
	out := pipeline.ClearStageResult(s, pipeline.StageAnalyze)
	out.History = append(out.History, *snap)
	if len(out.History) > pipeline.MaxHistory {
		out.History = append([]pipeline.Snapshot(nil), out.History[len(out.History)-pipeline.MaxHistory:]...)
	}
	out.Iteration++
	out.Refining = true
	return out
}

// CompleteRefinement installs the regenerated rewrite and leaves analyze
// pending for the next cycle.
func CompleteRefinement(s pipeline.State, response, prompt, schema string, structured bool) pipeline.State {
	out := pipeline.CompleteStage(s, pipeline.StageRewrite, response, prompt, schema, structured)
	out.Statuses[pipeline.StageAnalyze] = pipeline.StatusPending
	return out
}

// RevertToIteration restores history[index]'s rewrite as the current
// rewrite, clears the analysis, drops every snapshot at or after the
// index, and rewinds the iteration counter to the snapshot's iteration.
// An out-of-range index leaves state unchanged.
func RevertToIteration(s pipeline.State, index int) (pipeline.State, error) {
	if index < 0 || index >= len(s.History) {
		return s, fmt.Errorf("refine: iteration index %d out of range (history length %d)", index, len(s.History))
	}
	snap := s.History[index]
	out := pipeline.CompleteStage(s, pipeline.StageRewrite, snap.Rewrite, restoredPromptMarker, "", false)
	out = pipeline.ClearStageResult(out, pipeline.StageAnalyze)
	out.History = append([]pipeline.Snapshot(nil), out.History[:index]...)
	out.Iteration = snap.Iteration
	out.Refining = false
	return out, nil
}

// AcceptRewrite locks the current rewrite as final and ends the
// refinement loop. No-op without a rewrite result.
func AcceptRewrite(s pipeline.State) pipeline.State {
	if s.Results[pipeline.StageRewrite] == nil {
		return s
	}
	out := pipeline.LockStageResult(s, pipeline.StageRewrite)
	out.Refining = false
	return out
}
