package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"cardforge/internal/card"
	"cardforge/internal/llm"
	"cardforge/internal/pipeline"
	"cardforge/internal/schema"
	"cardforge/internal/session"
)

type cardSummary struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
}

func (s *apiServer) handleListCards(w http.ResponseWriter, _ *http.Request) {
	cards := s.provider.List()
	out := make([]cardSummary, len(cards))
	for i, c := range cards {
		out[i] = cardSummary{Index: i, Name: c.Name}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *apiServer) handleSelectCard(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Index int `json:"index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.sess.SelectCard(r.Context(), req.Index); err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sess.State())
}

func (s *apiServer) handleReloadCards(w http.ResponseWriter, _ *http.Request) {
	if err := s.provider.Reload(); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *apiServer) handleGetState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.sess.State())
}

func (s *apiServer) handleRestoreState(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.sess.RestoreState(data); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sess.State())
}

func (s *apiServer) handleSelectStages(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Stages []pipeline.Stage `json:"stages"`
		All    bool             `json:"all"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.All {
		s.sess.SelectAllStages()
	} else {
		s.sess.SetSelectedStages(req.Stages)
	}
	writeJSON(w, http.StatusOK, s.sess.State())
}

func (s *apiServer) handleToggleStage(w http.ResponseWriter, r *http.Request) {
	stage, ok := decodeStage(w, r)
	if !ok {
		return
	}
	s.sess.ToggleStage(stage)
	writeJSON(w, http.StatusOK, s.sess.State())
}

func (s *apiServer) handleStageConfig(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Stage  pipeline.Stage       `json:"stage"`
		Config pipeline.StageConfig `json:"config"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if pipeline.OrderIndex(req.Stage) < 0 {
		writeError(w, http.StatusBadRequest, errors.New("unknown stage"))
		return
	}
	s.sess.UpdateStageConfig(req.Stage, req.Config)
	writeJSON(w, http.StatusOK, s.sess.State())
}

func (s *apiServer) handleSkipStage(w http.ResponseWriter, r *http.Request) {
	stage, ok := decodeStage(w, r)
	if !ok {
		return
	}
	s.sess.SkipStage(stage)
	writeJSON(w, http.StatusOK, s.sess.State())
}

func (s *apiServer) handleFieldSelection(w http.ResponseWriter, r *http.Request) {
	var sel card.Selection
	if err := json.NewDecoder(r.Body).Decode(&sel); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.sess.SetFieldSelection(sel)
	writeJSON(w, http.StatusOK, s.sess.State())
}

func (s *apiServer) handleValidate(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.sess.Validate())
}

func (s *apiServer) handleRunStage(w http.ResponseWriter, r *http.Request) {
	stage, ok := decodeStage(w, r)
	if !ok {
		return
	}
	runID, err := s.sess.RunStage(r.Context(), stage)
	if err != nil {
		if errors.Is(err, llm.ErrCancelled) {
			writeJSON(w, http.StatusOK, map[string]any{"run_id": runID, "cancelled": true})
			return
		}
		status := http.StatusInternalServerError
		if errors.Is(err, session.ErrBusy) {
			status = http.StatusConflict
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"run_id": runID, "state": s.sess.State()})
}

func (s *apiServer) handleCancel(w http.ResponseWriter, _ *http.Request) {
	s.sess.CancelRun()
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *apiServer) handleLockResult(w http.ResponseWriter, r *http.Request) {
	stage, ok := decodeStage(w, r)
	if !ok {
		return
	}
	s.sess.LockResult(stage)
	writeJSON(w, http.StatusOK, s.sess.State())
}

func (s *apiServer) handleUnlockResult(w http.ResponseWriter, r *http.Request) {
	stage, ok := decodeStage(w, r)
	if !ok {
		return
	}
	s.sess.UnlockResult(stage)
	writeJSON(w, http.StatusOK, s.sess.State())
}

func (s *apiServer) handleClearResult(w http.ResponseWriter, r *http.Request) {
	stage, ok := decodeStage(w, r)
	if !ok {
		return
	}
	if err := s.sess.ClearResult(stage); err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sess.State())
}

func (s *apiServer) handleStartRefinement(w http.ResponseWriter, r *http.Request) {
	runID, err := s.sess.StartRefinement(r.Context())
	if err != nil {
		if errors.Is(err, llm.ErrCancelled) {
			writeJSON(w, http.StatusOK, map[string]any{"run_id": runID, "cancelled": true})
			return
		}
		status := http.StatusBadRequest
		if errors.Is(err, session.ErrBusy) {
			status = http.StatusConflict
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"run_id": runID, "state": s.sess.State()})
}

func (s *apiServer) handleAcceptRewrite(w http.ResponseWriter, r *http.Request) {
	s.sess.AcceptRewrite(r.Context())
	writeJSON(w, http.StatusOK, s.sess.State())
}

func (s *apiServer) handleRevert(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Index int `json:"index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.sess.RevertToIteration(r.Context(), req.Index); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sess.State())
}

func (s *apiServer) handleValidateSchema(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	res := schema.Validate(string(data))
	writeJSON(w, http.StatusOK, res)
}

func (s *apiServer) handleAutoFixSchema(w http.ResponseWriter, r *http.Request) {
	var value map[string]any
	if err := json.NewDecoder(r.Body).Decode(&value); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	fixed := schema.AutoFix(value)
	writeJSON(w, http.StatusOK, map[string]any{
		"value":      fixed,
		"complexity": schema.Score(fixed),
	})
}

func (s *apiServer) handleListPresets(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.presets.ListPrompts())
}

func (s *apiServer) handleExport(w http.ResponseWriter, r *http.Request) {
	doc, key, err := s.sess.Export(r.Context())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"document": doc, "artifact_key": key})
}

func decodeStage(w http.ResponseWriter, r *http.Request) (pipeline.Stage, bool) {
	var req struct {
		Stage pipeline.Stage `json:"stage"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return "", false
	}
	if pipeline.OrderIndex(req.Stage) < 0 {
		writeError(w, http.StatusBadRequest, errors.New("unknown stage"))
		return "", false
	}
	return req.Stage, true
}
