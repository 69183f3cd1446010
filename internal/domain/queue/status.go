package queue

import (
	"context"
	"strings"
	"time"

	"github.com/gitbounty-lab/backend/internal/entity"
	"github.com/gitbounty-lab/backend/internal/model"
	"github.com/gitbounty-lab/backend/internal/repository"
	"github.com/gitbounty-lab/backend/pkg/xcontext"
	"github.com/gitbounty-lab/backend/pkg/xredis"
)

// QueueStatuses aggregates the job table into per-type counters.
func QueueStatuses(
	ctx context.Context, jobRepo repository.JobRepository,
) ([]model.QueueStatus, error) {
	counts, err := jobRepo.CountGroupByStatus(ctx)
	if err != nil {
		return nil, err
	}

	byType := map[string]*model.QueueStatus{}
	order := []string{}
	for _, c := range counts {
		status, ok := byType[c.Type]
		if !ok {
			status = &model.QueueStatus{Type: c.Type}
			byType[c.Type] = status
			order = append(order, c.Type)
		}

		switch entity.JobStatusType(c.Status) {
		case entity.JobWaiting:
			status.Waiting = c.Count
		case entity.JobActive:
			status.Active = c.Count
		case entity.JobCompleted:
			status.Completed = c.Count
		case entity.JobDelayed:
			status.Delayed = c.Count
		case entity.JobFailed:
			status.Failed = c.Count
		case entity.JobDead:
			status.Dead = c.Count
		}
	}

	result := make([]model.QueueStatus, 0, len(order))
	for _, t := range order {
		result = append(result, *byType[t])
	}

	return result, nil
}

// WorkerStatuses lists workers from their redis heartbeats. A heartbeat key
// expires on its own, so a listed worker is a live one.
func WorkerStatuses(
	ctx context.Context, redisClient xredis.Client,
) ([]model.WorkerStatus, error) {
	keys, err := redisClient.Keys(ctx, heartbeatKeyPrefix+"*")
	if err != nil {
		return nil, err
	}

	result := make([]model.WorkerStatus, 0, len(keys))
	for _, key := range keys {
		lastSeen, err := redisClient.Get(ctx, key)
		if err != nil {
			continue
		}

		name := strings.TrimPrefix(key, heartbeatKeyPrefix)
		alive := false
		if seen, err := time.Parse(time.RFC3339, lastSeen); err == nil {
			expiration := xcontext.Configs(ctx).Pipeline.HeartbeatExpiration
			alive = time.Since(seen) < expiration
		}

		result = append(result, model.WorkerStatus{
			Name:     name,
			Alive:    alive,
			LastSeen: lastSeen,
		})
	}

	return result, nil
}
