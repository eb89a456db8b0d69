package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"dailybrief/internal/core"
	"dailybrief/internal/logger"
	"dailybrief/internal/store"
)

// TriggerRequest is the body of POST /trigger.
type TriggerRequest struct {
	OutputFormat string `json:"output_format"`
	Theme        string `json:"theme"`
}

// TriggerResponse summarizes a completed run.
type TriggerResponse struct {
	Status  string           `json:"status"`
	Report  string           `json:"report"`
	Metrics *core.RunMetrics `json:"metrics"`
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleTrigger handles POST /trigger: run the pipeline for one topic from
// the request body. Some callers send a UTF-8 BOM before the JSON, so it is
// stripped before decoding.
func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "could not read request body")
		return
	}
	body = bytes.TrimPrefix(body, utf8BOM)

	var req TriggerRequest
	if err := json.Unmarshal(body, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Theme == "" {
		respondError(w, http.StatusBadRequest, "theme is required")
		return
	}

	s.runTopic(w, r, core.TopicConfig{Topic: req.Theme, ContentType: req.OutputFormat})
}

// handleTriggerByID handles GET /trigger-by-id/{id}: look up a stored
// automation request and run the pipeline for it.
func (s *Server) handleTriggerByID(w http.ResponseWriter, r *http.Request) {
	if s.requests == nil {
		respondError(w, http.StatusNotImplemented, "automation request store not configured")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	req, err := s.requests.GetAutomationRequest(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "automation request not found")
		return
	}
	if err != nil {
		logger.Error("Automation request lookup failed", err, "id", id)
		respondError(w, http.StatusInternalServerError, "automation request lookup failed")
		return
	}

	s.runTopic(w, r, core.TopicConfig{Topic: req.Theme, ContentType: req.OutputFormat})
}

// runTopic executes a run for a single topic, reusing the caller's bearer
// token for backend calls when present.
func (s *Server) runTopic(w http.ResponseWriter, r *http.Request, topic core.TopicConfig) {
	var headers map[string]string
	if token := bearerToken(r); token != "" {
		headers = map[string]string{
			"Authorization": "Bearer " + token,
			"Content-Type":  "application/json",
		}
	}

	report, err := s.runner.Run(r.Context(), []core.TopicConfig{topic}, headers)
	if err != nil {
		logger.Error("Triggered run failed", err, "topic", topic.Topic)
		respondError(w, http.StatusInternalServerError, "automation run failed: "+err.Error())
		return
	}

	respondJSON(w, http.StatusOK, TriggerResponse{
		Status:  "completed",
		Report:  report.Summary(),
		Metrics: report.Metrics,
	})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode JSON response", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
