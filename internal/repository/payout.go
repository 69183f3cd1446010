package repository

import (
	"context"

	"github.com/gitbounty-lab/backend/internal/entity"
	"github.com/gitbounty-lab/backend/pkg/xcontext"
)

type PayoutRepository interface {
	Create(context.Context, *entity.Payout) error
	GetByID(context.Context, string) (*entity.Payout, error)
	GetByRewardID(context.Context, string) (*entity.Payout, error)
}

type payoutRepository struct{}

func NewPayoutRepository() *payoutRepository {
	return &payoutRepository{}
}

func (r *payoutRepository) Create(ctx context.Context, payout *entity.Payout) error {
	return xcontext.DB(ctx).Create(payout).Error
}

func (r *payoutRepository) GetByID(ctx context.Context, id string) (*entity.Payout, error) {
	var result entity.Payout
	if err := xcontext.DB(ctx).Take(&result, "id=?", id).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *payoutRepository) GetByRewardID(ctx context.Context, rewardID string) (*entity.Payout, error) {
	var result entity.Payout
	if err := xcontext.DB(ctx).Take(&result, "reward_id=?", rewardID).Error; err != nil {
		return nil, err
	}

	return &result, nil
}
