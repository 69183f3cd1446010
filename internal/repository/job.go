package repository

import (
	"context"
	"time"

	"github.com/gitbounty-lab/backend/internal/entity"
	"github.com/gitbounty-lab/backend/pkg/xcontext"
)

type JobStatusCount struct {
	Type   string
	Status string
	Count  int64
}

type JobRepository interface {
	Create(context.Context, *entity.Job) error
	GetByID(context.Context, string) (*entity.Job, error)
	GetByIdempotencyKey(context.Context, string) (*entity.Job, error)
	MarkActive(ctx context.Context, id string) (bool, error)
	Complete(ctx context.Context, id string) error
	Delay(ctx context.Context, id string, attempts int, nextRunAt time.Time, lastError string) error
	Finalize(ctx context.Context, id string, status entity.JobStatusType, lastError string) error
	Revive(ctx context.Context, id string) error
	GetDueDelayed(ctx context.Context, now time.Time) ([]entity.Job, error)
	GetStaleWaiting(ctx context.Context, olderThan time.Time) ([]entity.Job, error)
	CountGroupByStatus(ctx context.Context) ([]JobStatusCount, error)
}

type jobRepository struct{}

func NewJobRepository() *jobRepository {
	return &jobRepository{}
}

func (r *jobRepository) Create(ctx context.Context, job *entity.Job) error {
	return xcontext.DB(ctx).Create(job).Error
}

func (r *jobRepository) GetByID(ctx context.Context, id string) (*entity.Job, error) {
	var result entity.Job
	if err := xcontext.DB(ctx).Take(&result, "id=?", id).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *jobRepository) GetByIdempotencyKey(ctx context.Context, key string) (*entity.Job, error) {
	var result entity.Job
	if err := xcontext.DB(ctx).Take(&result, "idempotency_key=?", key).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

// MarkActive transitions a waiting or delayed job to active. It reports
// false when another worker already took the job or the job reached a
// terminal state, which makes broker re-delivery harmless.
func (r *jobRepository) MarkActive(ctx context.Context, id string) (bool, error) {
	tx := xcontext.DB(ctx).
		Model(&entity.Job{}).
		Where("id = ? AND status IN (?)", id,
			[]string{string(entity.JobWaiting), string(entity.JobDelayed)}).
		Update("status", entity.JobActive)
	if tx.Error != nil {
		return false, tx.Error
	}

	return tx.RowsAffected == 1, nil
}

func (r *jobRepository) Complete(ctx context.Context, id string) error {
	return xcontext.DB(ctx).
		Model(&entity.Job{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": entity.JobCompleted, "last_error": ""}).Error
}

func (r *jobRepository) Delay(
	ctx context.Context, id string, attempts int, nextRunAt time.Time, lastError string,
) error {
	return xcontext.DB(ctx).
		Model(&entity.Job{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":      entity.JobDelayed,
			"attempts":    attempts,
			"next_run_at": nextRunAt,
			"last_error":  lastError,
		}).Error
}

func (r *jobRepository) Finalize(
	ctx context.Context, id string, status entity.JobStatusType, lastError string,
) error {
	return xcontext.DB(ctx).
		Model(&entity.Job{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "last_error": lastError}).Error
}

// Revive resets a failed or dead job so a fresh enqueue of the same
// payload gets another full round of attempts.
func (r *jobRepository) Revive(ctx context.Context, id string) error {
	return xcontext.DB(ctx).
		Model(&entity.Job{}).
		Where("id = ? AND status IN (?)", id,
			[]string{string(entity.JobFailed), string(entity.JobDead)}).
		Updates(map[string]any{
			"status":      entity.JobWaiting,
			"attempts":    0,
			"next_run_at": time.Now(),
			"last_error":  "",
		}).Error
}

func (r *jobRepository) GetDueDelayed(ctx context.Context, now time.Time) ([]entity.Job, error) {
	var result []entity.Job
	err := xcontext.DB(ctx).
		Find(&result, "status=? AND next_run_at <= ?", entity.JobDelayed, now).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

// GetStaleWaiting returns waiting jobs whose broker message may have been
// lost. A freshly enqueued job is excluded by the age cutoff so the
// redeliverer does not race the original publish.
func (r *jobRepository) GetStaleWaiting(
	ctx context.Context, olderThan time.Time,
) ([]entity.Job, error) {
	var result []entity.Job
	err := xcontext.DB(ctx).
		Find(&result, "status=? AND updated_at <= ?", entity.JobWaiting, olderThan).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *jobRepository) CountGroupByStatus(ctx context.Context) ([]JobStatusCount, error) {
	var result []JobStatusCount
	err := xcontext.DB(ctx).
		Model(&entity.Job{}).
		Select("type, status, count(*) as count").
		Group("type").Group("status").
		Scan(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}
