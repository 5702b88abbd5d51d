// Package tenderwatch is a search and scheduling engine for Taiwan
// government procurement tenders.
//
// It drives the public e-procurement site through a real browser, decomposes
// OR-compound keywords into sequential sub-searches, deduplicates the merged
// results by tender ID, exports each run to a CSV artifact, and fires
// persisted daily/weekly schedule jobs. An HTTP API exposes streaming and
// synchronous search, schedule management, run history, and artifact
// download.
//
// Usage:
//
//	app, err := tenderwatch.New(cfg, logger)
//	defer app.Close()
//	app.Run(ctx)
package tenderwatch

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hazyhaar/tenderwatch/dbopen"
	"github.com/hazyhaar/tenderwatch/idgen"
	"github.com/hazyhaar/tenderwatch/internal/api"
	"github.com/hazyhaar/tenderwatch/internal/export"
	"github.com/hazyhaar/tenderwatch/internal/fetcher"
	"github.com/hazyhaar/tenderwatch/internal/scheduler"
	"github.com/hazyhaar/tenderwatch/internal/store"
	"github.com/hazyhaar/tenderwatch/tender"
)

// App is the assembled engine: orchestrator, exporter, scheduler, store, and
// the HTTP surface over them.
type App struct {
	cfg      *Config
	db       *sql.DB
	store    *store.Store
	orch     *tender.Orchestrator
	exporter *export.Exporter
	sched    *scheduler.Scheduler
	handler  http.Handler
	logger   *slog.Logger
	newRunID idgen.Generator
}

// Option configures New.
type Option func(*options)

type options struct {
	fetcher tender.Fetcher
}

// WithFetcher replaces the default browser-backed fetcher.
func WithFetcher(f tender.Fetcher) Option {
	return func(o *options) { o.fetcher = f }
}

// New opens the database and assembles the engine. Call Run to arm schedules
// and serve HTTP.
func New(cfg *Config, logger *slog.Logger, opts ...Option) (*App, error) {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	db, err := dbopen.Open(cfg.DBPath,
		dbopen.WithMkdirAll(),
		dbopen.WithSchema(store.Schema),
	)
	if err != nil {
		return nil, fmt.Errorf("tenderwatch: open db: %w", err)
	}
	st := store.New(db)

	f := o.fetcher
	if f == nil {
		f = fetcher.New(fetcher.Config{
			RemoteURL:   cfg.Fetcher.RemoteURL,
			Headful:     cfg.Fetcher.Headful,
			NavTimeout:  cfg.Fetcher.NavTimeout,
			ListingWait: cfg.Fetcher.ListingWait,
			Logger:      logger,
		})
	}

	app := &App{
		cfg:      cfg,
		db:       db,
		store:    st,
		logger:   logger,
		newRunID: idgen.Prefixed("run_", idgen.Default),
	}
	app.orch = tender.NewOrchestrator(f,
		tender.WithLogger(logger),
		tender.WithDetailPause(cfg.Fetcher.DetailPause),
	)
	app.exporter = export.New(cfg.ResultsDir, logger)
	app.sched = scheduler.New(st, app.runScheduled, scheduler.Config{
		FireHour:    cfg.Schedule.FireHour,
		FireMinute:  cfg.Schedule.FireMinute,
		FireWeekday: cfg.Schedule.FireWeekday,
	}, logger)
	app.handler = api.New(app, app.sched, st, cfg.ResultsDir, logger).Router()

	return app, nil
}

// Handler returns the HTTP surface, for embedding and tests.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Scheduler returns the schedule engine, for direct access (tests, admin).
func (a *App) Scheduler() *scheduler.Scheduler {
	return a.sched
}

// Run arms persisted schedule jobs and serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if err := a.sched.Start(ctx); err != nil {
		return err
	}

	srv := &http.Server{Addr: a.cfg.ListenAddr, Handler: a.handler}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	a.logger.Info("tenderwatch: listening", "addr", a.cfg.ListenAddr)

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		a.logger.Info("tenderwatch: shutting down")
		return srv.Shutdown(shutCtx)
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("tenderwatch: serve: %w", err)
	}
}

// Close releases the database.
func (a *App) Close() error {
	return a.db.Close()
}

// Search runs one interactive compound search end to end: orchestrate,
// export the artifact, record the run. It implements api.Searcher.
func (a *App) Search(ctx context.Context, req tender.SearchRequest, sink tender.Sink) ([]tender.Record, error) {
	return a.search(ctx, req, sink, store.TriggerInteractive, "")
}

func (a *App) search(ctx context.Context, req tender.SearchRequest, sink tender.Sink, trigger, jobID string) ([]tender.Record, error) {
	run := store.Run{
		ID:          a.newRunID(),
		Keyword:     req.RawKeyword,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		TriggerKind: trigger,
		JobID:       jobID,
		StartedAt:   time.Now().UTC(),
	}
	// History is best-effort: a run-log write failure must never block the
	// search itself.
	if err := a.store.InsertRun(ctx, &run); err != nil {
		a.logger.Error("tenderwatch: record run start", "error", err)
	}

	results, err := a.orch.Run(ctx, req, sink)
	if err != nil {
		a.finishRun(ctx, run.ID, store.RunFailed, 0, "", err.Error())
		return nil, err
	}

	artifact, err := a.exporter.Export(req.RawKeyword, results)
	if err != nil {
		// The search itself succeeded; the caller still gets the records.
		a.logger.Error("tenderwatch: export failed", "keyword", req.RawKeyword, "error", err)
		a.finishRun(ctx, run.ID, store.RunFailed, len(results), "", err.Error())
		return results, nil
	}

	a.finishRun(ctx, run.ID, store.RunOK, len(results), artifact, "")
	return results, nil
}

func (a *App) finishRun(ctx context.Context, id, status string, count int, artifact, errMsg string) {
	if err := a.store.FinishRun(ctx, id, status, count, artifact, errMsg); err != nil {
		a.logger.Error("tenderwatch: record run finish", "run", id, "error", err)
	}
}

// runScheduled is the scheduler's RunFunc: a scheduled job searches its
// keyword over today's date window and narrates into the log.
func (a *App) runScheduled(ctx context.Context, job store.Job, date string) {
	req := tender.SearchRequest{
		RawKeyword: job.Keyword,
		StartDate:  date,
		EndDate:    date,
	}
	sink := tender.NewLogSink(a.logger.With("job", job.ID))
	if _, err := a.search(ctx, req, sink, store.TriggerSchedule, job.ID); err != nil {
		a.logger.Error("tenderwatch: scheduled run failed",
			"job", job.ID, "keyword", job.Keyword, "error", err)
	}
}
