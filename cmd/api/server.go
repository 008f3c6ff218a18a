package main

import (
	"encoding/json"
	"net/http"

	"cardforge/internal/card"
	"cardforge/internal/preset"
	"cardforge/internal/session"
)

// apiServer wires HTTP handlers around one pipeline session.
type apiServer struct {
	sess     *session.Session
	provider *card.FileProvider
	presets  *preset.Store
}

func newAPIServer(sess *session.Session, provider *card.FileProvider, presets *preset.Store) *apiServer {
	return &apiServer{sess: sess, provider: provider, presets: presets}
}

func buildMux(s *apiServer) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/cards", s.handleListCards)
	mux.HandleFunc("POST /api/cards/select", s.handleSelectCard)
	mux.HandleFunc("POST /api/cards/reload", s.handleReloadCards)

	mux.HandleFunc("GET /api/state", s.handleGetState)
	mux.HandleFunc("POST /api/state/restore", s.handleRestoreState)

	mux.HandleFunc("POST /api/stages/select", s.handleSelectStages)
	mux.HandleFunc("POST /api/stages/toggle", s.handleToggleStage)
	mux.HandleFunc("POST /api/stages/config", s.handleStageConfig)
	mux.HandleFunc("POST /api/stages/skip", s.handleSkipStage)

	mux.HandleFunc("POST /api/selection", s.handleFieldSelection)
	mux.HandleFunc("GET /api/validate", s.handleValidate)

	mux.HandleFunc("POST /api/run", s.handleRunStage)
	mux.HandleFunc("POST /api/cancel", s.handleCancel)

	mux.HandleFunc("POST /api/results/lock", s.handleLockResult)
	mux.HandleFunc("POST /api/results/unlock", s.handleUnlockResult)
	mux.HandleFunc("POST /api/results/clear", s.handleClearResult)

	mux.HandleFunc("POST /api/refine", s.handleStartRefinement)
	mux.HandleFunc("POST /api/refine/accept", s.handleAcceptRewrite)
	mux.HandleFunc("POST /api/refine/revert", s.handleRevert)

	mux.HandleFunc("POST /api/schema/validate", s.handleValidateSchema)
	mux.HandleFunc("POST /api/schema/autofix", s.handleAutoFixSchema)

	mux.HandleFunc("GET /api/presets", s.handleListPresets)
	mux.HandleFunc("POST /api/export", s.handleExport)

	mux.HandleFunc("GET /api/watch", s.handleWatchWS)

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
