package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/richmenu-studio/richmenu-backend/internal/publish/domain"
)

const (
	jobKeyPrefix       = "publish:job:"    // Live job snapshot: publish:job:{job_id}
	jobEventChanPrefix = "publish:events:" // Pub/Sub channel for job updates: publish:events:{job_id}
	jobTTL             = 24 * time.Hour
)

// ProgressRepository keeps a live snapshot of each publish job in Redis and
// publishes every update on a per-job channel, so a polling or streaming UI
// can follow a publish without querying PostgreSQL. The durable record stays
// in the SQL ledger; this cache is best-effort.
type ProgressRepository struct {
	client *redis.Client
}

// NewProgressRepository creates a new ProgressRepository
func NewProgressRepository(client *redis.Client) *ProgressRepository {
	return &ProgressRepository{client: client}
}

// Set stores the job snapshot and broadcasts it.
func (r *ProgressRepository) Set(ctx context.Context, job *domain.PublishJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job snapshot: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, r.jobKey(job.ID), data, jobTTL)
	pipe.Publish(ctx, r.eventChannel(job.ID), data)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store job snapshot: %w", err)
	}
	return nil
}

// Get returns the live snapshot, or domain.ErrJobNotFound if it expired or
// was never written.
func (r *ProgressRepository) Get(ctx context.Context, jobID string) (*domain.PublishJob, error) {
	data, err := r.client.Get(ctx, r.jobKey(jobID)).Result()
	if err == redis.Nil {
		return nil, domain.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job snapshot: %w", err)
	}

	var job domain.PublishJob
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job snapshot: %w", err)
	}
	return &job, nil
}

func (r *ProgressRepository) jobKey(jobID string) string {
	return jobKeyPrefix + jobID
}

func (r *ProgressRepository) eventChannel(jobID string) string {
	return jobEventChanPrefix + jobID
}
