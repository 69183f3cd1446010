package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gitbounty-lab/backend/internal/entity"
	"github.com/gitbounty-lab/backend/internal/repository"
	"github.com/gitbounty-lab/backend/pkg/pubsub"
	"github.com/gitbounty-lab/backend/pkg/xcontext"
	"github.com/gitbounty-lab/backend/pkg/xredis"
	"github.com/puzpuzpuz/xsync"
	"golang.org/x/sync/errgroup"
)

// Processor executes one job. A nil return completes the job; a FatalError
// fails it permanently; any other error schedules a delayed retry.
type Processor interface {
	Process(ctx context.Context, job *entity.Job) error
}

// FatalError marks a failure that retrying cannot fix.
type FatalError struct {
	Err error
}

func (e FatalError) Error() string {
	return e.Err.Error()
}

func (e FatalError) Unwrap() error {
	return e.Err
}

func Fatal(format string, a ...any) error {
	return FatalError{Err: fmt.Errorf(format, a...)}
}

const heartbeatKeyPrefix = "worker:heartbeat:"

// Worker pulls job envelopes off the broker and runs them through its
// processor with bounded concurrency. Duplicate deliveries are filtered
// twice: locally through the in-flight map and globally through the
// active-status compare-and-swap on the job row.
type Worker struct {
	name        string
	processor   Processor
	jobRepo     repository.JobRepository
	redisClient xredis.Client

	group    *errgroup.Group
	inflight *xsync.MapOf[string, time.Time]
}

func NewWorker(
	name string,
	concurrency int,
	processor Processor,
	jobRepo repository.JobRepository,
	redisClient xredis.Client,
) *Worker {
	group := &errgroup.Group{}
	group.SetLimit(concurrency)

	return &Worker{
		name:        name,
		processor:   processor,
		jobRepo:     jobRepo,
		redisClient: redisClient,
		group:       group,
		inflight:    xsync.NewMapOf[time.Time](),
	}
}

// Start begins heartbeating. The caller wires Handle into a broker
// subscription separately.
func (w *Worker) Start(ctx context.Context) {
	go func() {
		expiration := xcontext.Configs(ctx).Pipeline.HeartbeatExpiration
		ticker := time.NewTicker(expiration / 2)
		defer ticker.Stop()

		for {
			w.beat(ctx, expiration)
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

// Wait blocks until every in-flight job has finished.
func (w *Worker) Wait() {
	w.group.Wait()
}

func (w *Worker) beat(ctx context.Context, expiration time.Duration) {
	now := time.Now().Format(time.RFC3339)
	err := w.redisClient.Set(ctx, heartbeatKeyPrefix+w.name, now, expiration)
	if err != nil {
		xcontext.Logger(ctx).Warnf("Cannot record heartbeat of %s: %v", w.name, err)
	}
}

// Handle is the broker subscription callback. It blocks when the
// concurrency limit is reached, which throttles consumption naturally.
func (w *Worker) Handle(ctx context.Context, pack *pubsub.Pack, t time.Time) {
	var envelope Envelope
	if err := json.Unmarshal(pack.Msg, &envelope); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot unmarshal job envelope: %v", err)
		return
	}

	w.group.Go(func() error {
		w.run(ctx, envelope.JobID)
		return nil
	})
}

func (w *Worker) run(ctx context.Context, jobID string) {
	if _, loaded := w.inflight.LoadOrStore(jobID, time.Now()); loaded {
		return
	}
	defer w.inflight.Delete(jobID)

	taken, err := w.jobRepo.MarkActive(ctx, jobID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot activate job %s: %v", jobID, err)
		return
	}

	if !taken {
		return
	}

	job, err := w.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot load job %s: %v", jobID, err)
		return
	}

	w.settle(ctx, job, w.processor.Process(ctx, job))
}

func (w *Worker) settle(ctx context.Context, job *entity.Job, processErr error) {
	logger := xcontext.Logger(ctx)

	if processErr == nil {
		if err := w.jobRepo.Complete(ctx, job.ID); err != nil {
			logger.Errorf("Cannot complete job %s: %v", job.ID, err)
		}
		return
	}

	var fatal FatalError
	if errors.As(processErr, &fatal) {
		logger.Errorf("Job %s failed permanently: %v", job.ID, processErr)
		err := w.jobRepo.Finalize(ctx, job.ID, entity.JobFailed, processErr.Error())
		if err != nil {
			logger.Errorf("Cannot finalize job %s: %v", job.ID, err)
		}
		return
	}

	attempts := job.Attempts + 1
	if attempts >= job.MaxAttempts {
		logger.Errorf("Job %s exhausted %d attempts: %v", job.ID, attempts, processErr)
		err := w.jobRepo.Finalize(ctx, job.ID, entity.JobDead, processErr.Error())
		if err != nil {
			logger.Errorf("Cannot finalize job %s: %v", job.ID, err)
		}
		return
	}

	nextRunAt := time.Now().Add(Backoff(ctx, attempts))
	logger.Warnf("Job %s attempt %d failed, retrying at %s: %v",
		job.ID, attempts, nextRunAt.Format(time.RFC3339), processErr)

	err := w.jobRepo.Delay(ctx, job.ID, attempts, nextRunAt, processErr.Error())
	if err != nil {
		logger.Errorf("Cannot delay job %s: %v", job.ID, err)
	}
}

// Backoff returns the delay before the given attempt is retried. It doubles
// per attempt from the configured base up to the configured cap.
func Backoff(ctx context.Context, attempts int) time.Duration {
	cfg := xcontext.Configs(ctx).Pipeline

	delay := cfg.BackoffBase
	for i := 1; i < attempts; i++ {
		delay *= 2
		if delay >= cfg.BackoffCap {
			return cfg.BackoffCap
		}
	}

	return delay
}
