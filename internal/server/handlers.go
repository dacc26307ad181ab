package server

import (
	"encoding/json"
	"net/http"
	"time"

	"pressroom/internal/analyzer"
	"pressroom/internal/core"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	payload := map[string]interface{}{
		"status": "ok",
	}
	if s.stats != nil {
		stats, err := s.stats.Stats(r.Context())
		if err != nil {
			s.log.Error("failed to load store stats", "error", err)
		} else {
			payload["store"] = stats
		}
	}
	writeJSON(w, http.StatusOK, payload)
}

// handleAnalyze pre-flights a (possibly partial) request without
// starting a build.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req core.ContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	analysis := s.builder.Analyze(req)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"analysis":       analysis,
		"missing_inputs": analyzer.MissingInputPrompts(analysis.MissingFields),
	})
}

// handleBuild runs a full build synchronously and returns its terminal
// result. Incomplete input maps to 422 so clients can re-prompt.
func (s *Server) handleBuild(w http.ResponseWriter, r *http.Request) {
	var req core.ContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result := s.builder.Build(r.Context(), req)

	status := http.StatusOK
	switch result.State {
	case core.BuildInputIncomplete:
		status = http.StatusUnprocessableEntity
	case core.BuildFailed:
		status = http.StatusBadGateway
	case core.BuildCancelled:
		status = http.StatusRequestTimeout
	}
	writeJSON(w, status, result)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
