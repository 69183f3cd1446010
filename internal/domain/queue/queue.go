package queue

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/gitbounty-lab/backend/internal/entity"
	"github.com/gitbounty-lab/backend/internal/repository"
	"github.com/gitbounty-lab/backend/pkg/pubsub"
	"github.com/gitbounty-lab/backend/pkg/xcontext"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Payload is a job body that knows how to name itself. Two payloads with
// the same idempotency key are the same unit of work.
type Payload interface {
	IdempotencyKey() string
}

// Envelope is what actually travels over the broker. The payload itself
// lives in the job row; the broker only carries a pointer to it.
type Envelope struct {
	JobID string `json:"job_id"`
}

// Manager is the durable outbox in front of the broker. Enqueue writes the
// job row first, inside the caller's transaction when one is open, so that
// accepting an event and recording its work are atomic. The broker message
// is best effort; the redeliverer repairs lost publishes.
type Manager struct {
	jobRepo   repository.JobRepository
	publisher pubsub.Publisher
}

func NewManager(jobRepo repository.JobRepository, publisher pubsub.Publisher) *Manager {
	return &Manager{jobRepo: jobRepo, publisher: publisher}
}

func (m *Manager) Enqueue(
	ctx context.Context, jobType entity.JobTypeType, payload Payload,
) (*entity.Job, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	var payloadMap entity.Map
	if err := json.Unmarshal(body, &payloadMap); err != nil {
		return nil, err
	}

	job := &entity.Job{
		Base:           entity.Base{ID: uuid.NewString()},
		Type:           jobType,
		IdempotencyKey: payload.IdempotencyKey(),
		Payload:        payloadMap,
		Status:         entity.JobWaiting,
		MaxAttempts:    maxAttemptsOf(ctx, jobType),
	}

	err = m.jobRepo.Create(ctx, job)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return m.handleDuplicate(ctx, payload.IdempotencyKey())
	}

	if err != nil {
		return nil, err
	}

	m.publish(ctx, job)
	return job, nil
}

// handleDuplicate maps a re-enqueue onto the existing job. A terminally
// failed job is revived and republished; an in-flight one is left alone.
func (m *Manager) handleDuplicate(ctx context.Context, key string) (*entity.Job, error) {
	existing, err := m.jobRepo.GetByIdempotencyKey(ctx, key)
	if err != nil {
		return nil, err
	}

	if existing.Status != entity.JobFailed && existing.Status != entity.JobDead {
		return existing, nil
	}

	if err := m.jobRepo.Revive(ctx, existing.ID); err != nil {
		return nil, err
	}

	m.publish(ctx, existing)
	return existing, nil
}

// Republish puts an already persisted job back on the broker.
func (m *Manager) Republish(ctx context.Context, job *entity.Job) {
	m.publish(ctx, job)
}

func (m *Manager) publish(ctx context.Context, job *entity.Job) {
	msg, err := json.Marshal(Envelope{JobID: job.ID})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot marshal job envelope: %v", err)
		return
	}

	topic := TopicOf(ctx, job.Type)
	err = m.publisher.Publish(ctx, topic, &pubsub.Pack{Key: []byte(job.ID), Msg: msg})
	if err != nil {
		// The job row is already durable; the redeliverer will retry.
		xcontext.Logger(ctx).Warnf("Cannot publish job %s to %s: %v", job.ID, topic, err)
	}
}

// DecodePayload restores a typed job payload from its stored map form.
func DecodePayload(payload entity.Map, v any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return json.Unmarshal(b, v)
}

func TopicOf(ctx context.Context, jobType entity.JobTypeType) string {
	cfg := xcontext.Configs(ctx).Pipeline
	switch jobType {
	case entity.JobTypeSettleClaim:
		return cfg.SettleTopic
	default:
		return cfg.ParseTopic
	}
}

func maxAttemptsOf(ctx context.Context, jobType entity.JobTypeType) int {
	cfg := xcontext.Configs(ctx).Pipeline
	switch jobType {
	case entity.JobTypeSettleClaim:
		return cfg.SettleMaxAttempts
	default:
		return cfg.ParseMaxAttempts
	}
}
