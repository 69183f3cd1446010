package cron

import (
	"context"
	"time"

	"github.com/gitbounty-lab/backend/internal/domain/queue"
)

// RedeliverJobsCronJob republishes delayed jobs whose retry time has come
// and waiting jobs whose broker message was lost.
type RedeliverJobsCronJob struct {
	redeliverer *queue.Redeliverer
	interval    time.Duration
}

func NewRedeliverJobsCronJob(
	redeliverer *queue.Redeliverer, interval time.Duration,
) *RedeliverJobsCronJob {
	return &RedeliverJobsCronJob{redeliverer: redeliverer, interval: interval}
}

func (job *RedeliverJobsCronJob) Do(ctx context.Context) {
	job.redeliverer.Sweep(ctx)
}

func (job *RedeliverJobsCronJob) RunNow() bool {
	return false
}

func (job *RedeliverJobsCronJob) Next() time.Time {
	return time.Now().Add(job.interval)
}
