package store

import "database/sql"

// Schema is the complete tenderwatch schema.
const Schema = `
-- Recurring searches. Live trigger handles are runtime state and never land here.
CREATE TABLE IF NOT EXISTS schedule_jobs (
    id         TEXT PRIMARY KEY,
    keyword    TEXT NOT NULL,
    frequency  TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

-- One row per orchestrator run (interactive or scheduled).
CREATE TABLE IF NOT EXISTS run_log (
    id           TEXT PRIMARY KEY,
    keyword      TEXT NOT NULL,
    start_date   TEXT NOT NULL DEFAULT '',
    end_date     TEXT NOT NULL DEFAULT '',
    trigger_kind TEXT NOT NULL,
    job_id       TEXT NOT NULL DEFAULT '',
    status       TEXT NOT NULL DEFAULT 'running',
    result_count INTEGER NOT NULL DEFAULT 0,
    artifact     TEXT NOT NULL DEFAULT '',
    error        TEXT NOT NULL DEFAULT '',
    started_at   INTEGER NOT NULL,
    finished_at  INTEGER
);
CREATE INDEX IF NOT EXISTS idx_run_log_time ON run_log(started_at DESC);
`

// ApplySchema creates all tables and indexes on the given database.
func ApplySchema(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}
