package handlers

import (
	"encoding/json"
	"net/http"

	"threadkit/pkg/logger"
	"threadkit/pkg/models"
	"threadkit/pkg/utils"

	"github.com/gorilla/mux"
)

// RegisterTurns registers the two orchestrator entry points.
func RegisterTurns(r *mux.Router) {
	r.HandleFunc("/threads/{threadID}/turns", runTurn).Methods(http.MethodPost)
	r.HandleFunc("/threads/{threadID}/actions", runAction).Methods(http.MethodPost)
}

// writeEvents streams the ordered event sequence as NDJSON. Events are
// already committed by the time they reach here, so a mid-stream write
// failure loses delivery, not data.
func writeEvents(w http.ResponseWriter, events []models.StreamEvent) {
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	enc := json.NewEncoder(w)
	flusher, _ := w.(http.Flusher)
	for _, ev := range events {
		if err := enc.Encode(ev); err != nil {
			logger.Warn("event_stream_write_failed", "error", err)
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

// runTurn handles POST /threads/{threadID}/turns: one user message in, the
// committed event sequence out.
func runTurn(w http.ResponseWriter, r *http.Request) {
	threadID := mux.Vars(r)["threadID"]
	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if orch == nil {
		utils.JSONError(w, http.StatusServiceUnavailable, "orchestrator not ready")
		return
	}
	events, err := orch.ProcessTurn(r.Context(), threadID, body.Text)
	if err != nil {
		logger.Error("turn_failed", "thread", threadID, "error", err)
	}
	writeEvents(w, events)
}

// runAction handles POST /threads/{threadID}/actions: a widget action
// descriptor in, the committed event sequence out.
func runAction(w http.ResponseWriter, r *http.Request) {
	threadID := mux.Vars(r)["threadID"]
	var a models.Action
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if a.Type == "" {
		utils.JSONError(w, http.StatusBadRequest, "action type is required")
		return
	}
	if orch == nil {
		utils.JSONError(w, http.StatusServiceUnavailable, "orchestrator not ready")
		return
	}
	events, err := orch.ProcessAction(r.Context(), threadID, a)
	if err != nil {
		logger.Error("action_failed", "thread", threadID, "error", err)
	}
	writeEvents(w, events)
}
