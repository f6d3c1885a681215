package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/richmenu-studio/richmenu-backend/internal/publish/domain"
)

// JobRepository handles PostgreSQL operations for publish jobs.
type JobRepository struct {
	db *sql.DB
}

// NewJobRepository creates a new JobRepository
func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Insert creates a new publish job row.
func (r *JobRepository) Insert(ctx context.Context, job *domain.PublishJob) error {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	now := time.Now()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now

	progressJSON, err := json.Marshal(job.Progress)
	if err != nil {
		return fmt.Errorf("failed to marshal progress: %w", err)
	}

	const q = `
INSERT INTO publish_jobs (id, user_id, draft_id, status, current_step, progress, error, created_at, updated_at)
VALUES ($1, $2, nullif($3,''), $4, $5, $6, nullif($7,''), $8, $9);
`
	_, err = r.db.ExecContext(ctx, q,
		job.ID, job.UserID, job.DraftID, job.Status, job.CurrentStep,
		progressJSON, job.Error, job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert publish job: %w", err)
	}
	return nil
}

// UpdateProgress persists the current step and the full progress array.
// Called after every step transition so observers see live progress.
func (r *JobRepository) UpdateProgress(ctx context.Context, jobID, currentStep string, progress []domain.MenuProgress) error {
	progressJSON, err := json.Marshal(progress)
	if err != nil {
		return fmt.Errorf("failed to marshal progress: %w", err)
	}

	const q = `
UPDATE publish_jobs
SET current_step = $2, progress = $3, updated_at = now()
WHERE id = $1;
`
	res, err := r.db.ExecContext(ctx, q, jobID, currentStep, progressJSON)
	if err != nil {
		return fmt.Errorf("failed to update job progress: %w", err)
	}
	return checkAffected(res)
}

// UpdateStatus moves the job to a terminal (or intermediate) status with an
// optional top-level error message.
func (r *JobRepository) UpdateStatus(ctx context.Context, jobID, status, errMsg string) error {
	const q = `
UPDATE publish_jobs
SET status = $2, error = nullif($3,''), updated_at = now()
WHERE id = $1;
`
	res, err := r.db.ExecContext(ctx, q, jobID, status, errMsg)
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}
	return checkAffected(res)
}

// GetByID retrieves a job scoped to its owning user.
func (r *JobRepository) GetByID(ctx context.Context, userID, jobID string) (*domain.PublishJob, error) {
	const q = `
SELECT id, user_id, coalesce(draft_id::text,''), status, current_step, progress, coalesce(error,''), created_at, updated_at
FROM publish_jobs
WHERE id = $1 AND user_id = $2;
`
	var (
		job          domain.PublishJob
		progressJSON []byte
	)
	err := r.db.QueryRowContext(ctx, q, jobID, userID).Scan(
		&job.ID, &job.UserID, &job.DraftID, &job.Status, &job.CurrentStep,
		&progressJSON, &job.Error, &job.CreatedAt, &job.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get publish job: %w", err)
	}

	if err := json.Unmarshal(progressJSON, &job.Progress); err != nil {
		return nil, fmt.Errorf("failed to unmarshal progress: %w", err)
	}
	return &job, nil
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}
