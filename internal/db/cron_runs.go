package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Cron run statuses.
const (
	RunStatusRunning = "running"
	RunStatusSuccess = "success"
	RunStatusFailed  = "failed"
)

// CronRun is one execution of a refresh job.
type CronRun struct {
	ID              uuid.UUID  `json:"id"`
	JobName         string     `json:"job_name"`
	TriggeredBy     string     `json:"triggered_by"` // 'cron' or 'manual'
	StartedAt       time.Time  `json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	Status          string     `json:"status"`
	DurationSeconds *int       `json:"duration_seconds,omitempty"`
	ItemsUpdated    int        `json:"items_updated"`
	ErrorMessage    string     `json:"error_message,omitempty"`
}

// CreateCronRun records the start of a job execution and returns its ID.
func (db *DB) CreateCronRun(ctx context.Context, jobName, triggeredBy string) (uuid.UUID, error) {
	id := uuid.New()
	_, err := db.pool.Exec(ctx,
		`INSERT INTO cron_runs (id, job_name, triggered_by, started_at, status)
		 VALUES ($1, $2, $3, NOW(), $4)`,
		id, jobName, triggeredBy, RunStatusRunning,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create cron run: %w", err)
	}
	return id, nil
}

// CompleteCronRun records the outcome of a job execution.
func (db *DB) CompleteCronRun(ctx context.Context, runID uuid.UUID, status string, itemsUpdated int, errMsg string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE cron_runs
		 SET completed_at = NOW(),
		     duration_seconds = EXTRACT(EPOCH FROM (NOW() - started_at))::INTEGER,
		     status = $2,
		     items_updated = $3,
		     error_message = NULLIF($4, '')
		 WHERE id = $1`,
		runID, status, itemsUpdated, errMsg,
	)
	if err != nil {
		return fmt.Errorf("failed to complete cron run %s: %w", runID, err)
	}
	return nil
}

// ListCronRuns returns recent runs, newest first, optionally filtered by job
// name.
func (db *DB) ListCronRuns(ctx context.Context, jobName string, limit int) ([]CronRun, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, job_name, triggered_by, started_at, completed_at, status,
	                 duration_seconds, items_updated, COALESCE(error_message, '')
	          FROM cron_runs`
	args := []any{}
	if jobName != "" {
		query += ` WHERE job_name = $1 ORDER BY started_at DESC LIMIT $2`
		args = append(args, jobName, limit)
	} else {
		query += ` ORDER BY started_at DESC LIMIT $1`
		args = append(args, limit)
	}

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list cron runs: %w", err)
	}
	defer rows.Close()

	var runs []CronRun
	for rows.Next() {
		var r CronRun
		if err := rows.Scan(&r.ID, &r.JobName, &r.TriggeredBy, &r.StartedAt, &r.CompletedAt,
			&r.Status, &r.DurationSeconds, &r.ItemsUpdated, &r.ErrorMessage); err != nil {
			return nil, fmt.Errorf("failed to scan cron run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, nil
}
