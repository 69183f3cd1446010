package repository

import (
	"context"
	"testing"
	"time"

	"github.com/gitbounty-lab/backend/internal/entity"
	"github.com/gitbounty-lab/backend/pkg/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createSampleJob(ctx context.Context, t *testing.T, key string) *entity.Job {
	t.Helper()

	job := &entity.Job{
		Base:           entity.Base{ID: uuid.NewString()},
		Type:           entity.JobTypeParseComment,
		IdempotencyKey: key,
		Payload:        entity.Map{"comment_body": "nice work"},
		Status:         entity.JobWaiting,
		MaxAttempts:    5,
		NextRunAt:      time.Now(),
	}

	require.NoError(t, NewJobRepository().Create(ctx, job))
	return job
}

func Test_jobRepository_Create_DuplicateIdempotencyKey(t *testing.T) {
	ctx := testutil.MockContext()
	jobRepo := NewJobRepository()

	createSampleJob(ctx, t, "parse:repo-1:7")

	err := jobRepo.Create(ctx, &entity.Job{
		Base:           entity.Base{ID: uuid.NewString()},
		Type:           entity.JobTypeParseComment,
		IdempotencyKey: "parse:repo-1:7",
		Status:         entity.JobWaiting,
	})
	require.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func Test_jobRepository_MarkActive(t *testing.T) {
	ctx := testutil.MockContext()
	jobRepo := NewJobRepository()

	job := createSampleJob(ctx, t, "parse:repo-1:7")

	taken, err := jobRepo.MarkActive(ctx, job.ID)
	require.NoError(t, err)
	require.True(t, taken)

	// Broker re-delivery of an in-flight job must not take it twice.
	taken, err = jobRepo.MarkActive(ctx, job.ID)
	require.NoError(t, err)
	require.False(t, taken)

	require.NoError(t, jobRepo.Complete(ctx, job.ID))

	taken, err = jobRepo.MarkActive(ctx, job.ID)
	require.NoError(t, err)
	require.False(t, taken, "a completed job must never run again")
}

func Test_jobRepository_Revive(t *testing.T) {
	ctx := testutil.MockContext()
	jobRepo := NewJobRepository()

	job := createSampleJob(ctx, t, "settle:reward-1")
	require.NoError(t, jobRepo.Finalize(ctx, job.ID, entity.JobDead, "boom"))

	require.NoError(t, jobRepo.Revive(ctx, job.ID))

	got, err := jobRepo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	require.Equal(t, entity.JobWaiting, got.Status)
	require.Equal(t, 0, got.Attempts)
	require.Empty(t, got.LastError)

	// Revive only applies to terminally failed jobs.
	taken, err := jobRepo.MarkActive(ctx, job.ID)
	require.NoError(t, err)
	require.True(t, taken)

	require.NoError(t, jobRepo.Revive(ctx, job.ID))

	got, err = jobRepo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	require.Equal(t, entity.JobActive, got.Status)
}

func Test_jobRepository_GetDueDelayed(t *testing.T) {
	ctx := testutil.MockContext()
	jobRepo := NewJobRepository()

	due := createSampleJob(ctx, t, "parse:repo-1:1")
	later := createSampleJob(ctx, t, "parse:repo-1:2")

	require.NoError(t, jobRepo.Delay(ctx, due.ID, 1, time.Now().Add(-time.Minute), "timeout"))
	require.NoError(t, jobRepo.Delay(ctx, later.ID, 1, time.Now().Add(time.Hour), "timeout"))

	jobs, err := jobRepo.GetDueDelayed(ctx, time.Now())
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.Equal(t, due.ID, jobs[0].ID)
}

func Test_jobRepository_GetStaleWaiting(t *testing.T) {
	ctx := testutil.MockContext()
	jobRepo := NewJobRepository()

	job := createSampleJob(ctx, t, "parse:repo-1:1")

	// A freshly enqueued job is not stale yet; its broker message may
	// still be on its way.
	jobs, err := jobRepo.GetStaleWaiting(ctx, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	require.Empty(t, jobs)

	jobs, err = jobRepo.GetStaleWaiting(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.Equal(t, job.ID, jobs[0].ID)
}
