package repository

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richmenu-studio/richmenu-backend/internal/publish/domain"
)

func setupProgressRepo(t *testing.T) (*ProgressRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewProgressRepository(client), mr
}

func TestProgressRepository_SetGet(t *testing.T) {
	repo, mr := setupProgressRepo(t)
	ctx := context.Background()

	job := &domain.PublishJob{
		ID:          "job-1",
		UserID:      "user-1",
		Status:      domain.JobPublishing,
		CurrentStep: domain.StepUploadImage,
		Progress: []domain.MenuProgress{
			{AliasID: "mainalias", Step: domain.StepUploadImage, Status: domain.ProgressPending, RichMenuID: "richmenu-1"},
		},
	}

	require.NoError(t, repo.Set(ctx, job))
	assert.True(t, mr.Exists("publish:job:job-1"))

	got, err := repo.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.JobPublishing, got.Status)
	assert.Equal(t, domain.StepUploadImage, got.CurrentStep)
	require.Len(t, got.Progress, 1)
	assert.Equal(t, "richmenu-1", got.Progress[0].RichMenuID)
}

func TestProgressRepository_GetMissing(t *testing.T) {
	repo, _ := setupProgressRepo(t)

	_, err := repo.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
}

func TestProgressRepository_SnapshotExpires(t *testing.T) {
	repo, mr := setupProgressRepo(t)
	ctx := context.Background()

	job := &domain.PublishJob{ID: "job-1", UserID: "user-1", Status: domain.JobCompleted}
	require.NoError(t, repo.Set(ctx, job))

	mr.FastForward(jobTTL * 2)

	_, err := repo.Get(ctx, "job-1")
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
}
