package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/hazyhaar/tenderwatch/tender"
)

// sseSink forwards every event to the connected caller immediately. Once a
// write fails the caller has detached and the sink becomes a no-op; the run
// itself is not cancelled (see handleSearchStream).
type sseSink struct {
	w        http.ResponseWriter
	flusher  http.Flusher
	detached bool
}

func (s *sseSink) Emit(e tender.Event) {
	if s.detached {
		return
	}
	data, err := json.Marshal(e)
	if err != nil {
		s.detached = true
		return
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		s.detached = true
		return
	}
	s.flusher.Flush()
}

// handleSearchStream runs a search and narrates it over SSE. The stream
// terminates after the first complete or error event.
//
// Client detachment stops event delivery but not the run: the browser
// session cannot be handed back mid-navigation, so the orchestrator runs on
// a detached context, finishes, and its result is discarded. Known
// limitation rather than accident.
func (s *Server) handleSearchStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	req := tender.SearchRequest{
		RawKeyword: r.URL.Query().Get("keyword"),
		StartDate:  r.URL.Query().Get("startDate"),
		EndDate:    r.URL.Query().Get("endDate"),
	}

	sink := &sseSink{w: w, flusher: flusher}
	ctx := context.WithoutCancel(r.Context())

	// The orchestrator emits the terminal event in every outcome, including
	// a missing keyword, so the error return only needs logging here.
	if _, err := s.searcher.Search(ctx, req, sink); err != nil {
		s.logger.Warn("api: stream search failed", "keyword", req.RawKeyword, "error", err)
	}
}

// handleSearch is the synchronous variant: drain the run, discard the log
// narration, answer with the aggregate.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req tender.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonErr(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx := context.WithoutCancel(r.Context())
	results, err := s.searcher.Search(ctx, req, tender.Discard)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, tender.ErrInvalidQuery) {
			status = http.StatusBadRequest
		}
		jsonErr(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"count":   len(results),
		"data":    results,
	})
}
