// Package scheduler arms persisted schedule jobs and fires them on a
// daily/weekly cadence.
//
// Each armed job owns a live trigger: a goroutine sleeping until the next
// fire time. Triggers are runtime state only; the store persists just the
// job data, and startup replays the store to re-arm every surviving job.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hazyhaar/tenderwatch/idgen"
	"github.com/hazyhaar/tenderwatch/internal/store"
)

// RunFunc executes one scheduled search. date is today in YYYY/MM/DD form
// and is used as both start and end of the search window: a scheduled job
// always searches "today", regardless of when it was created. Failures must
// be absorbed by the callee; a failing run never disables its job.
type RunFunc func(ctx context.Context, job store.Job, date string)

// Config holds the fire-time deployment constants. The exact time-of-day
// and day-of-week are not per-job configurable in this version. Fields are
// pointers so that midnight and Sunday stay distinguishable from unset.
type Config struct {
	// FireHour is the local hour of day at which jobs fire. Nil: 9.
	FireHour *int
	// FireMinute is the minute within FireHour. Nil: 0.
	FireMinute *int
	// FireWeekday is the day weekly jobs fire on. Nil: Monday.
	FireWeekday *time.Weekday
}

func (c *Config) defaults() {
	if c.FireHour == nil {
		h := 9
		c.FireHour = &h
	}
	if c.FireMinute == nil {
		m := 0
		c.FireMinute = &m
	}
	if c.FireWeekday == nil {
		w := time.Monday
		c.FireWeekday = &w
	}
}

// trigger is the live handle of one armed job. It keeps the job data so a
// failed removal can re-arm without a store round-trip.
type trigger struct {
	job    store.Job
	cancel context.CancelFunc
	done   chan struct{}
}

// Scheduler owns the in-memory job table and its live triggers.
type Scheduler struct {
	store  *store.Store
	run    RunFunc
	cfg    Config
	logger *slog.Logger
	newID  idgen.Generator

	mu       sync.Mutex
	base     context.Context // lifetime for all triggers; set by Start
	triggers map[string]*trigger
	firing   map[string]bool // overlap guard, keyed by job id
}

// New creates a Scheduler. Call Start to replay persisted jobs and begin
// accepting mutations.
func New(st *store.Store, run RunFunc, cfg Config, logger *slog.Logger) *Scheduler {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		store:    st,
		run:      run,
		cfg:      cfg,
		logger:   logger,
		newID:    idgen.Prefixed("job_", idgen.Default),
		triggers: make(map[string]*trigger),
		firing:   make(map[string]bool),
	}
}

// Start replays all persisted jobs and re-arms each before returning, so a
// job surviving a restart resumes firing with no data loss and no duplicate
// persistence. Triggers live until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	jobs, err := s.store.ListJobs(ctx)
	if err != nil {
		return fmt.Errorf("scheduler: replay jobs: %w", err)
	}

	s.mu.Lock()
	s.base = ctx
	for _, j := range jobs {
		s.armLocked(j)
	}
	s.mu.Unlock()

	s.logger.Info("scheduler: started", "jobs", len(jobs),
		"fire_hour", *s.cfg.FireHour, "fire_weekday", s.cfg.FireWeekday.String())
	return nil
}

// Add validates, persists, and arms a new job. The job is durable before
// Add returns success.
func (s *Scheduler) Add(ctx context.Context, keyword string, frequency string) (*store.Job, error) {
	freq, err := store.ParseFrequency(frequency)
	if err != nil {
		return nil, err
	}

	job := store.Job{
		ID:        s.newID(),
		Keyword:   keyword,
		Frequency: freq,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.InsertJob(ctx, &job); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.armLocked(job)
	s.mu.Unlock()

	s.logger.Info("scheduler: job added", "id", job.ID, "keyword", keyword, "frequency", freq)
	return &job, nil
}

// Remove cancels a job's live trigger synchronously, then deletes the store
// entry. The trigger revocation comes first so a job about to fire cannot
// race its own removal. Unknown ids return store.ErrNotFound with the store
// untouched. If the delete itself fails, the still-persisted job is
// re-armed so it does not stay silently disabled until restart.
func (s *Scheduler) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	tr, ok := s.triggers[id]
	if ok {
		delete(s.triggers, id)
	}
	s.mu.Unlock()

	if ok {
		tr.cancel()
		<-tr.done
	}

	if err := s.store.DeleteJob(ctx, id); err != nil {
		if ok && !errors.Is(err, store.ErrNotFound) {
			s.logger.Error("scheduler: delete failed, re-arming job", "id", id, "error", err)
			s.mu.Lock()
			s.armLocked(tr.job)
			s.mu.Unlock()
		}
		return err
	}
	s.logger.Info("scheduler: job removed", "id", id)
	return nil
}

// Jobs lists all persisted jobs in insertion order.
func (s *Scheduler) Jobs(ctx context.Context) ([]store.Job, error) {
	return s.store.ListJobs(ctx)
}

// Armed returns how many live triggers are currently registered.
func (s *Scheduler) Armed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.triggers)
}

// armLocked registers a live trigger for job. Caller holds s.mu and Start
// must have set s.base.
func (s *Scheduler) armLocked(job store.Job) {
	if s.base == nil {
		s.base = context.Background()
	}
	ctx, cancel := context.WithCancel(s.base)
	tr := &trigger{job: job, cancel: cancel, done: make(chan struct{})}
	s.triggers[job.ID] = tr

	go func() {
		defer close(tr.done)
		for {
			next := NextFire(time.Now(), job.Frequency, s.cfg)
			timer := time.NewTimer(time.Until(next))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
				s.fire(ctx, job)
			}
		}
	}()
}

// fire runs the job once, asynchronously, unless its previous run is still
// in flight: overlapping fires of the same job are skipped, not queued.
func (s *Scheduler) fire(ctx context.Context, job store.Job) {
	s.mu.Lock()
	if s.firing[job.ID] {
		s.mu.Unlock()
		s.logger.Warn("scheduler: previous run still in flight, skipping fire",
			"id", job.ID, "keyword", job.Keyword)
		return
	}
	s.firing[job.ID] = true
	s.mu.Unlock()

	date := time.Now().Format("2006/01/02")
	s.logger.Info("scheduler: firing job", "id", job.ID, "keyword", job.Keyword, "date", date)

	// A fired run has no external cancellation path: removing the job (or
	// shutting triggers down) only prevents future fires, it never aborts a
	// search already talking to the site.
	runCtx := context.WithoutCancel(ctx)

	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.firing, job.ID)
			s.mu.Unlock()
		}()
		s.run(runCtx, job, date)
	}()
}

// NextFire returns the next fire time strictly after now for the given
// frequency: daily at the configured time-of-day, weekly on the configured
// weekday at that time.
func NextFire(now time.Time, freq store.Frequency, cfg Config) time.Time {
	(&cfg).defaults()

	next := time.Date(now.Year(), now.Month(), now.Day(),
		*cfg.FireHour, *cfg.FireMinute, 0, 0, now.Location())

	switch freq {
	case store.Weekly:
		days := (int(*cfg.FireWeekday) - int(next.Weekday()) + 7) % 7
		next = next.AddDate(0, 0, days)
		if !next.After(now) {
			next = next.AddDate(0, 0, 7)
		}
	default: // daily
		if !next.After(now) {
			next = next.AddDate(0, 0, 1)
		}
	}
	return next
}
