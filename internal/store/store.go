// Package store is the data access layer for tenderwatch: persisted schedule
// jobs and the run history log, both in a single SQLite database.
//
// Every mutation is synchronous and durable before the call returns. A crash
// must not silently lose a just-added job once the add has returned success,
// so there is no write-behind buffering anywhere in this package.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hazyhaar/tenderwatch/dbopen"
)

// ErrNotFound is returned when a schedule job id does not exist.
var ErrNotFound = errors.New("store: schedule job not found")

// Frequency is the recurrence of a schedule job.
type Frequency string

const (
	Daily  Frequency = "daily"
	Weekly Frequency = "weekly"
)

// ParseFrequency validates a caller-supplied frequency string.
func ParseFrequency(s string) (Frequency, error) {
	switch Frequency(s) {
	case Daily, Weekly:
		return Frequency(s), nil
	default:
		return "", fmt.Errorf("store: unknown frequency %q (want daily or weekly)", s)
	}
}

// Job is one persisted recurring search. The live trigger handle is runtime
// state owned by the scheduler and is never persisted.
type Job struct {
	ID        string    `json:"id"`
	Keyword   string    `json:"keyword"`
	Frequency Frequency `json:"frequency"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store wraps the tenderwatch database.
type Store struct {
	DB *sql.DB
}

// New creates a Store from an already-opened database connection.
func New(db *sql.DB) *Store {
	return &Store{DB: db}
}

// InsertJob persists a job. The write is committed before return. The
// scheduler and the API write concurrently on one database file, so every
// mutation goes through dbopen.RunTx for SQLITE_BUSY retry.
func (s *Store) InsertJob(ctx context.Context, j *Job) error {
	err := dbopen.RunTx(ctx, s.DB, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO schedule_jobs (id, keyword, frequency, created_at)
			VALUES (?,?,?,?)`,
			j.ID, j.Keyword, string(j.Frequency), j.CreatedAt.Unix())
		return err
	})
	if err != nil {
		return fmt.Errorf("store: insert job: %w", err)
	}
	return nil
}

// DeleteJob removes a job by id. ErrNotFound leaves the store untouched.
func (s *Store) DeleteJob(ctx context.Context, id string) error {
	err := dbopen.RunTx(ctx, s.DB, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM schedule_jobs WHERE id = ?`, id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("store: delete job: %w", err)
	}
	return nil
}

// ListJobs returns all jobs in insertion order.
func (s *Store) ListJobs(ctx context.Context) ([]Job, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, keyword, frequency, created_at
		FROM schedule_jobs ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("store: list jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]Job, 0)
	for rows.Next() {
		var j Job
		var freq string
		var created int64
		if err := rows.Scan(&j.ID, &j.Keyword, &freq, &created); err != nil {
			return nil, fmt.Errorf("store: scan job: %w", err)
		}
		j.Frequency = Frequency(freq)
		j.CreatedAt = time.Unix(created, 0).UTC()
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// CountJobs returns the number of persisted jobs.
func (s *Store) CountJobs(ctx context.Context) (int, error) {
	var n int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM schedule_jobs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count jobs: %w", err)
	}
	return n, nil
}
