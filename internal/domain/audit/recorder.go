package audit

import (
	"context"
	"database/sql"

	"github.com/gitbounty-lab/backend/internal/entity"
	"github.com/gitbounty-lab/backend/internal/repository"
	"github.com/gitbounty-lab/backend/pkg/xcontext"
)

// Recorder writes the operator-visible trail of the pipeline. Recording is
// best effort; a broken trail must never take a job down with it.
type Recorder struct {
	claimAuditRepo repository.ClaimAuditRepository
}

func NewRecorder(claimAuditRepo repository.ClaimAuditRepository) *Recorder {
	return &Recorder{claimAuditRepo: claimAuditRepo}
}

func (r *Recorder) Info(ctx context.Context, jobID, rewardID, reason, message string) {
	r.record(ctx, jobID, rewardID, entity.AuditInfo, reason, message)
}

func (r *Recorder) Failure(ctx context.Context, jobID, rewardID, reason, message string) {
	r.record(ctx, jobID, rewardID, entity.AuditFailure, reason, message)
}

func (r *Recorder) record(
	ctx context.Context, jobID, rewardID string,
	level entity.AuditLevelType, reason, message string,
) {
	audit := &entity.ClaimAudit{
		SnowFlakeBase: entity.SnowFlakeBase{ID: xcontext.SnowFlake(ctx).Generate().Int64()},
		RewardID:      sql.NullString{String: rewardID, Valid: rewardID != ""},
		JobID:         jobID,
		Level:         level,
		Reason:        reason,
		Message:       message,
	}

	if err := r.claimAuditRepo.Create(ctx, audit); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot record audit for job %s: %v", jobID, err)
	}
}
