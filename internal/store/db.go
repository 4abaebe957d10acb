package store

import (
	"context"
	"database/sql"
	"time"

	"go-data-prep/internal/model"
	"go-data-prep/pkg/errors"

	_ "github.com/mattn/go-sqlite3"
)

// Store keeps run history in SQLite.
type Store struct {
	db *sql.DB
}

// Open connects to the database at dbPath and creates the tables if needed.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open history database %s", dbPath)
	}

	runTable := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		status TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME,
		error TEXT NOT NULL DEFAULT ''
	);
	`
	jobTable := `
	CREATE TABLE IF NOT EXISTS job_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		job TEXT NOT NULL,
		source TEXT NOT NULL,
		dest TEXT NOT NULL,
		status TEXT NOT NULL,
		lines_read INTEGER NOT NULL,
		rows_written INTEGER NOT NULL,
		skipped INTEGER NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		duration_ms INTEGER NOT NULL,
		error TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_job_results_run ON job_results(run_id);
	`

	for _, stmt := range []string{runTable, jobTable} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, errors.Wrapf(err, "failed to initialise history database %s", dbPath)
		}
	}

	return New(db), nil
}

// New wraps an already initialised database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// StartRun stores a new run
func (s *Store) StartRun(ctx context.Context, run model.RunResult) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, status, started_at, error) VALUES (?, ?, ?, ?)`,
		run.ID, run.Status, run.StartTime.UTC(), run.Error)
	return errors.Wrapf(err, "failed to save run %s", run.ID)
}

// RecordJob stores the outcome of one job
func (s *Store) RecordJob(ctx context.Context, runID string, job model.JobResult) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO job_results
			(run_id, job, source, dest, status, lines_read, rows_written, skipped, started_at, finished_at, duration_ms, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, job.Job, job.Source, job.Dest, job.Status,
		job.LinesRead, job.RowsWritten, job.Skipped,
		job.StartTime.UTC(), job.EndTime.UTC(), job.Duration.Milliseconds(), job.Error)
	return errors.Wrapf(err, "failed to save job %s for run %s", job.Job, runID)
}

// FinishRun updates run status
func (s *Store) FinishRun(ctx context.Context, run model.RunResult) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, finished_at = ?, error = ? WHERE id = ?`,
		run.Status, run.EndTime.UTC(), run.Error, run.ID)
	if err != nil {
		return errors.Wrapf(err, "failed to update run %s", run.ID)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Wrapf(errors.ErrNotFound, "run %s", run.ID)
	}
	return nil
}

// ListRuns returns the most recent runs without their jobs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]model.RunResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, status, started_at, finished_at, error FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list runs")
	}
	defer rows.Close()

	runs := make([]model.RunResult, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, errors.Wrap(rows.Err(), "failed to list runs")
}

// GetRun fetches a run and its jobs in execution order
func (s *Store) GetRun(ctx context.Context, runID string) (model.RunResult, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, status, started_at, finished_at, error FROM runs WHERE id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.RunResult{}, errors.Wrapf(errors.ErrNotFound, "run %s", runID)
	}
	if err != nil {
		return model.RunResult{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT job, source, dest, status, lines_read, rows_written, skipped, started_at, finished_at, duration_ms, error
		FROM job_results WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return model.RunResult{}, errors.Wrapf(err, "failed to load jobs for run %s", runID)
	}
	defer rows.Close()

	run.Jobs = make([]model.JobResult, 0)
	for rows.Next() {
		var jr model.JobResult
		var durationMs int64
		if err := rows.Scan(&jr.Job, &jr.Source, &jr.Dest, &jr.Status,
			&jr.LinesRead, &jr.RowsWritten, &jr.Skipped,
			&jr.StartTime, &jr.EndTime, &durationMs, &jr.Error); err != nil {
			return model.RunResult{}, errors.Wrapf(err, "failed to read job for run %s", runID)
		}
		jr.Duration = time.Duration(durationMs) * time.Millisecond
		run.Jobs = append(run.Jobs, jr)
	}
	return run, errors.Wrapf(rows.Err(), "failed to load jobs for run %s", runID)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (model.RunResult, error) {
	var run model.RunResult
	var finished sql.NullTime
	if err := sc.Scan(&run.ID, &run.Status, &run.StartTime, &finished, &run.Error); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return run, err
		}
		return run, errors.Wrap(err, "failed to read run")
	}
	if finished.Valid {
		run.EndTime = finished.Time
	}
	return run, nil
}
