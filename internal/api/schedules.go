package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hazyhaar/tenderwatch/internal/store"
)

func (s *Server) handleListSchedules(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.sched.Jobs(r.Context())
	if err != nil {
		s.logger.Error("api: list schedules", "error", err)
		jsonErr(w, http.StatusInternalServerError, "failed to list schedules")
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

func (s *Server) handleAddSchedule(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Keyword   string `json:"keyword"`
		Frequency string `json:"frequency"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonErr(w, http.StatusBadRequest, "invalid request body")
		return
	}

	job, err := s.sched.Add(r.Context(), req.Keyword, req.Frequency)
	if err != nil {
		s.logger.Warn("api: add schedule rejected", "keyword", req.Keyword, "error", err)
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "job": job})
}

func (s *Server) handleRemoveSchedule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.sched.Remove(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonErr(w, http.StatusNotFound, "schedule not found")
			return
		}
		s.logger.Error("api: remove schedule", "id", id, "error", err)
		jsonErr(w, http.StatusInternalServerError, "failed to remove schedule")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			jsonErr(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	runs, err := s.store.ListRuns(r.Context(), limit)
	if err != nil {
		s.logger.Error("api: list runs", "error", err)
		jsonErr(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	writeJSON(w, http.StatusOK, runs)
}
