package repository

import (
	"context"

	"github.com/gitbounty-lab/backend/internal/entity"
	"github.com/gitbounty-lab/backend/pkg/xcontext"
)

type ClaimAuditRepository interface {
	Create(context.Context, *entity.ClaimAudit) error
	GetByRewardID(context.Context, string) ([]entity.ClaimAudit, error)
}

type claimAuditRepository struct{}

func NewClaimAuditRepository() *claimAuditRepository {
	return &claimAuditRepository{}
}

func (r *claimAuditRepository) Create(ctx context.Context, audit *entity.ClaimAudit) error {
	return xcontext.DB(ctx).Create(audit).Error
}

func (r *claimAuditRepository) GetByRewardID(
	ctx context.Context, rewardID string,
) ([]entity.ClaimAudit, error) {
	var result []entity.ClaimAudit
	err := xcontext.DB(ctx).
		Order("id ASC").
		Find(&result, "reward_id=?", rewardID).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}
