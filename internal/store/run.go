package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hazyhaar/tenderwatch/dbopen"
)

// TriggerKind says what started a run.
const (
	TriggerInteractive = "interactive"
	TriggerSchedule    = "schedule"
)

// Run statuses.
const (
	RunRunning = "running"
	RunOK      = "ok"
	RunFailed  = "failed"
)

// Run is one orchestrator run, for history and artifact lookup.
type Run struct {
	ID          string    `json:"id"`
	Keyword     string    `json:"keyword"`
	StartDate   string    `json:"startDate"`
	EndDate     string    `json:"endDate"`
	TriggerKind string    `json:"trigger"`
	JobID       string    `json:"jobId,omitempty"`
	Status      string    `json:"status"`
	ResultCount int       `json:"resultCount"`
	Artifact    string    `json:"artifact,omitempty"`
	Error       string    `json:"error,omitempty"`
	StartedAt   time.Time `json:"startedAt"`
	FinishedAt  time.Time `json:"finishedAt,omitzero"`
}

// InsertRun records the start of a run. Like the job mutations, run-log
// writes race scheduled fires against API traffic and go through RunTx.
func (s *Store) InsertRun(ctx context.Context, r *Run) error {
	err := dbopen.RunTx(ctx, s.DB, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO run_log (id, keyword, start_date, end_date, trigger_kind, job_id, status, started_at)
			VALUES (?,?,?,?,?,?,?,?)`,
			r.ID, r.Keyword, r.StartDate, r.EndDate, r.TriggerKind, r.JobID, RunRunning, r.StartedAt.Unix())
		return err
	})
	if err != nil {
		return fmt.Errorf("store: insert run: %w", err)
	}
	return nil
}

// FinishRun records the outcome of a run.
func (s *Store) FinishRun(ctx context.Context, id, status string, resultCount int, artifact, errMsg string) error {
	err := dbopen.RunTx(ctx, s.DB, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			UPDATE run_log
			SET status = ?, result_count = ?, artifact = ?, error = ?, finished_at = ?
			WHERE id = ?`,
			status, resultCount, artifact, errMsg, time.Now().Unix(), id)
		return err
	})
	if err != nil {
		return fmt.Errorf("store: finish run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, keyword, start_date, end_date, trigger_kind, job_id,
		       status, result_count, artifact, error, started_at, finished_at
		FROM run_log ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	defer rows.Close()

	runs := make([]Run, 0, limit)
	for rows.Next() {
		var r Run
		var started int64
		var finished sql.NullInt64
		if err := rows.Scan(&r.ID, &r.Keyword, &r.StartDate, &r.EndDate, &r.TriggerKind,
			&r.JobID, &r.Status, &r.ResultCount, &r.Artifact, &r.Error, &started, &finished); err != nil {
			return nil, fmt.Errorf("store: scan run: %w", err)
		}
		r.StartedAt = time.Unix(started, 0).UTC()
		if finished.Valid {
			r.FinishedAt = time.Unix(finished.Int64, 0).UTC()
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
