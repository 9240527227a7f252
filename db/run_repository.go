package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/serisow/narrador/narration_type"
	"github.com/serisow/narrador/pipeline"
)

const runSchema = `
CREATE TABLE IF NOT EXISTS narration_runs (
	run_id       UUID PRIMARY KEY,
	status       TEXT NOT NULL,
	stage        TEXT NOT NULL,
	voice        TEXT NOT NULL,
	use_stock    BOOLEAN NOT NULL DEFAULT FALSE,
	output_file  TEXT,
	message      TEXT,
	segments     INTEGER NOT NULL DEFAULT 0,
	duration     DOUBLE PRECISION NOT NULL DEFAULT 0,
	diagnostics  TEXT[],
	submitted_at TIMESTAMPTZ NOT NULL,
	completed_at TIMESTAMPTZ
)`

// RunRepository stores finished runs in Postgres.
type RunRepository struct {
	pool *pgxpool.Pool
}

func NewRunRepository(pool *pgxpool.Pool) *RunRepository {
	return &RunRepository{pool: pool}
}

func (r *RunRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, runSchema); err != nil {
		return fmt.Errorf("unable to create narration_runs table: %w", err)
	}
	return nil
}

func (r *RunRepository) SaveRun(ctx context.Context, rec pipeline.RunRecord) error {
	submitted, err := time.Parse(time.RFC3339, rec.SubmittedAt)
	if err != nil {
		return fmt.Errorf("invalid submitted_at: %w", err)
	}
	var completed *time.Time
	if rec.CompletedAt != "" {
		t, err := time.Parse(time.RFC3339, rec.CompletedAt)
		if err != nil {
			return fmt.Errorf("invalid completed_at: %w", err)
		}
		completed = &t
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO narration_runs
			(run_id, status, stage, voice, use_stock, output_file, message, segments, duration, diagnostics, submitted_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (run_id) DO UPDATE SET
			status = EXCLUDED.status,
			stage = EXCLUDED.stage,
			output_file = EXCLUDED.output_file,
			message = EXCLUDED.message,
			segments = EXCLUDED.segments,
			duration = EXCLUDED.duration,
			diagnostics = EXCLUDED.diagnostics,
			completed_at = EXCLUDED.completed_at`,
		rec.RunID, string(rec.Status), string(rec.Stage), rec.Voice, rec.UseStock, rec.OutputFile,
		rec.Message, rec.Segments, rec.Duration, rec.Diagnostics, submitted, completed)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", rec.RunID, err)
	}
	return nil
}

// GetRun loads a run persisted by an earlier process.
func (r *RunRepository) GetRun(ctx context.Context, runID string) (pipeline.RunRecord, error) {
	var (
		rec        pipeline.RunRecord
		status     string
		stage      string
		outputFile *string
		message    *string
		submitted  time.Time
		completed  *time.Time
	)
	err := r.pool.QueryRow(ctx, `
		SELECT run_id::text, status, stage, voice, use_stock, output_file, message, segments, duration,
		       COALESCE(diagnostics, '{}'), submitted_at, completed_at
		FROM narration_runs WHERE run_id = $1`, runID).
		Scan(&rec.RunID, &status, &stage, &rec.Voice, &rec.UseStock, &outputFile, &message,
			&rec.Segments, &rec.Duration, &rec.Diagnostics, &submitted, &completed)
	if errors.Is(err, pgx.ErrNoRows) {
		return pipeline.RunRecord{}, pipeline.ErrRunNotFound
	}
	if err != nil {
		return pipeline.RunRecord{}, fmt.Errorf("failed to load run %s: %w", runID, err)
	}

	rec.Status = pipeline.RunStatus(status)
	rec.Stage = narration_type.State(stage)
	if outputFile != nil {
		rec.OutputFile = *outputFile
	}
	if message != nil {
		rec.Message = *message
	}
	rec.SubmittedAt = submitted.Format(time.RFC3339)
	if completed != nil {
		rec.CompletedAt = completed.Format(time.RFC3339)
	}
	return rec, nil
}

// DeleteCompletedBefore removes history older than cutoff.
func (r *RunRepository) DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM narration_runs WHERE completed_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old runs: %w", err)
	}
	return tag.RowsAffected(), nil
}
