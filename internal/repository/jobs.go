// Package repository persists extraction jobs and their attempt logs for
// the batch tooling. The core library never requires it.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/strataspect/borelog/constants"
	"github.com/strataspect/borelog/internal/entity"
)

const schema = `
CREATE TABLE IF NOT EXISTS extraction_job (
	id TEXT PRIMARY KEY,
	source_path TEXT NOT NULL,
	format TEXT NOT NULL,
	status TEXT NOT NULL,
	confidence REAL NOT NULL DEFAULT 0,
	layer_count INTEGER NOT NULL DEFAULT 0,
	error_message TEXT,
	started_at TIMESTAMP NOT NULL,
	finished_at TIMESTAMP
);
CREATE TABLE IF NOT EXISTS extraction_attempt (
	id TEXT PRIMARY KEY,
	job_id TEXT NOT NULL REFERENCES extraction_job(id),
	strategy TEXT NOT NULL,
	status TEXT NOT NULL,
	error_message TEXT,
	points INTEGER NOT NULL DEFAULT 0,
	started_at TIMESTAMP NOT NULL,
	finished_at TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_attempt_job ON extraction_attempt(job_id);
`

// Job is one recorded extraction run.
type Job struct {
	ID           uuid.UUID
	SourcePath   string
	Format       string
	Status       constants.JobStatus
	Confidence   float64
	LayerCount   int
	ErrorMessage string
	StartedAt    time.Time
	FinishedAt   *time.Time
}

// JobRepository stores extraction jobs and attempt logs in SQLite.
type JobRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) the job store. Use ":memory:" for tests.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*JobRepository, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open job store: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate job store: %w", err)
	}
	return &JobRepository{db: db, logger: logger}, nil
}

func (r *JobRepository) Close() error {
	return r.db.Close()
}

// Start inserts a RUNNING job row and returns it.
func (r *JobRepository) Start(ctx context.Context, sourcePath, format string) (*Job, error) {
	job := &Job{
		ID:         uuid.New(),
		SourcePath: sourcePath,
		Format:     format,
		Status:     constants.JobStatusRunning,
		StartedAt:  time.Now().UTC(),
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO extraction_job (id, source_path, format, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		job.ID.String(), job.SourcePath, job.Format, string(job.Status), job.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("start job: %w", err)
	}
	return job, nil
}

// Finish records the terminal outcome of a job and its attempt log.
func (r *JobRepository) Finish(ctx context.Context, jobID uuid.UUID, res *entity.ExtractionResult) error {
	status := constants.JobStatusFailed
	errMsg := ""
	if res.Success {
		status = constants.JobStatusOK
	} else if len(res.Data) > 0 {
		status = constants.JobStatusReview
	}
	if len(res.Errors) > 0 {
		errMsg = res.Errors[0]
	}

	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`UPDATE extraction_job SET status = ?, confidence = ?, layer_count = ?, error_message = ?, finished_at = ? WHERE id = ?`,
		string(status), res.Confidence.Score, len(res.Data), errMsg, now, jobID.String(),
	)
	if err != nil {
		return fmt.Errorf("finish job: %w", err)
	}

	for _, att := range res.Metadata.Attempts {
		if err := r.recordAttempt(ctx, jobID, att); err != nil {
			return err
		}
	}
	return nil
}

func (r *JobRepository) recordAttempt(ctx context.Context, jobID uuid.UUID, att entity.Attempt) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO extraction_attempt (id, job_id, strategy, status, error_message, points, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		att.ID.String(), jobID.String(), att.Strategy, string(att.Status), att.Error, att.Points, att.StartedAt, att.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	return nil
}

// GetByID loads one job.
func (r *JobRepository) GetByID(ctx context.Context, id uuid.UUID) (*Job, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, source_path, format, status, confidence, layer_count, COALESCE(error_message, ''), started_at, finished_at
		 FROM extraction_job WHERE id = ?`, id.String())
	return scanJob(row)
}

// ListJobs returns jobs most recent first.
func (r *JobRepository) ListJobs(ctx context.Context, limit int) ([]*Job, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, source_path, format, status, confidence, layer_count, COALESCE(error_message, ''), started_at, finished_at
		 FROM extraction_job ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*Job, error) {
	var job Job
	var idStr, status string
	var finished sql.NullTime
	err := row.Scan(&idStr, &job.SourcePath, &job.Format, &status, &job.Confidence, &job.LayerCount, &job.ErrorMessage, &job.StartedAt, &finished)
	if err != nil {
		return nil, fmt.Errorf("scan job: %w", err)
	}
	job.ID, err = uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("parse job id: %w", err)
	}
	job.Status = constants.JobStatus(status)
	if finished.Valid {
		t := finished.Time
		job.FinishedAt = &t
	}
	return &job, nil
}
