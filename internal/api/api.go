// Package api exposes the tenderwatch HTTP surface: streaming and
// synchronous search, schedule management, run history, and artifact
// download.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hazyhaar/tenderwatch/internal/scheduler"
	"github.com/hazyhaar/tenderwatch/internal/store"
	"github.com/hazyhaar/tenderwatch/tender"
)

// Searcher runs one compound search end to end (orchestration, export,
// run logging). Implemented by the root App.
type Searcher interface {
	Search(ctx context.Context, req tender.SearchRequest, sink tender.Sink) ([]tender.Record, error)
}

// Server carries the handler dependencies.
type Server struct {
	searcher   Searcher
	sched      *scheduler.Scheduler
	store      *store.Store
	resultsDir string
	logger     *slog.Logger
}

// New creates a Server.
func New(searcher Searcher, sched *scheduler.Scheduler, st *store.Store, resultsDir string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		searcher:   searcher,
		sched:      sched,
		store:      st,
		resultsDir: resultsDir,
		logger:     logger,
	}
}

// Router builds the chi router.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/search-stream", s.handleSearchStream)
		r.Post("/search", s.handleSearch)

		r.Get("/schedules", s.handleListSchedules)
		r.Post("/schedules", s.handleAddSchedule)
		r.Delete("/schedules/{id}", s.handleRemoveSchedule)

		r.Get("/runs", s.handleListRuns)
		r.Get("/results/{filename}", s.handleDownload)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func jsonErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}
