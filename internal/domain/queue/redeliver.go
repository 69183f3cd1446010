package queue

import (
	"context"
	"time"

	"github.com/gitbounty-lab/backend/internal/repository"
	"github.com/gitbounty-lab/backend/pkg/xcontext"
)

// Redeliverer repairs the gap between the job table and the broker. It
// republishes delayed jobs whose retry time has come, and waiting jobs
// whose original publish was lost.
type Redeliverer struct {
	jobRepo repository.JobRepository
	manager *Manager
}

func NewRedeliverer(jobRepo repository.JobRepository, manager *Manager) *Redeliverer {
	return &Redeliverer{jobRepo: jobRepo, manager: manager}
}

func (r *Redeliverer) Sweep(ctx context.Context) {
	logger := xcontext.Logger(ctx)
	now := time.Now()

	due, err := r.jobRepo.GetDueDelayed(ctx, now)
	if err != nil {
		logger.Errorf("Cannot load due delayed jobs: %v", err)
	} else {
		for _, job := range due {
			r.manager.Republish(ctx, &job)
		}
	}

	cutoff := now.Add(-xcontext.Configs(ctx).Pipeline.BackoffBase)
	stale, err := r.jobRepo.GetStaleWaiting(ctx, cutoff)
	if err != nil {
		logger.Errorf("Cannot load stale waiting jobs: %v", err)
		return
	}

	for _, job := range stale {
		r.manager.Republish(ctx, &job)
	}
}
